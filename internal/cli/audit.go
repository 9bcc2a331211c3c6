package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewAuditCommand reconstruye el saldo de un producto desde su historial.
func NewAuditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <product>",
		Short: "Verifica que el ledger de un producto explique su stock actual",
		Long: `Recorre las entradas del producto en orden de alta y recalcula el saldo.
Sale con código 1 si algún balance_after no coincide o si el saldo final
difiere del stock actual.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				report, err := env.Ledger.Replay(ctx, args[0])
				if err != nil {
					return out.Failure(ExitFailure, nil, err.Error())
				}
				if !report.Consistent {
					return out.Failure(ExitFailure, report, fmt.Sprintf(
						"ledger inconsistente: stock %d, saldo reconstruido %d, %d entrada(s) rotas",
						report.CurrentStock, report.LatestBalance, len(report.BrokenEntries)))
				}
				return out.Success(report, fmt.Sprintf("✓ %d entrada(s), saldo %d coincide con el stock",
					len(report.Timeline), report.LatestBalance))
			})
		},
	}
}
