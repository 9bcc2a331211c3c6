package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// NewNextIDCommand reserva el siguiente identificador de artículo de una categoría.
func NewNextIDCommand(opts *RootOptions) *cobra.Command {
	var (
		category string
		year     int
	)

	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Reserva el siguiente item_id para una categoría",
		Long: `Reserva el siguiente item_id para (categoría, año) usando el mismo contador
atómico que el alta de productos. El número reservado no se reutiliza.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if year <= 0 {
				year = time.Now().Year()
			}
			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				id, err := env.Products.NextIdentifier(ctx, category, year)
				if err != nil {
					return out.Failure(ExitFailure, nil, err.Error())
				}
				return out.Success(map[string]string{"item_id": id}, id)
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "categoría del producto")
	cmd.Flags().IntVar(&year, "year", 0, "año del identificador (por defecto el actual)")

	return cmd
}
