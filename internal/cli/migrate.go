package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewMigrateCommand aplica las migraciones pendientes.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL embebidas pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				if env.Migrate == nil {
					return NewExitError(ExitCommandError, "el almacenamiento no admite migraciones")
				}
				applied, err := env.Migrate(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "migrar", err)
				}
				text := "✓ Esquema al día"
				if len(applied) > 0 {
					text = fmt.Sprintf("✓ %d migración(es) aplicada(s): %s", len(applied), strings.Join(applied, ", "))
				}
				return out.Success(map[string]interface{}{"applied": applied}, text)
			})
		},
	}
}
