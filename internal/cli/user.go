package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// operatorID identifica en el log de auditoría las altas hechas desde la CLI.
const operatorID = "ledgerctl"

// NewCreateUserCommand alta de usuarios, incluido el primer admin.
func NewCreateUserCommand(opts *RootOptions) *cobra.Command {
	var in dto.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Crea un usuario (admin o user) sin pasar por la API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return withEnv(cmd, opts, func(ctx context.Context, env *Env) error {
				// La CLI tiene acceso directo a la base: actúa como admin.
				actor := &entity.Caller{ID: operatorID, Role: entity.RoleAdmin}
				user, err := env.Auth.RegisterUser(ctx, actor, in)
				if err != nil {
					return out.Failure(ExitFailure, nil, err.Error())
				}
				return out.Success(user, fmt.Sprintf("✓ Usuario %s creado (%s, id %s)", user.Email, user.Role, user.ID))
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (mínimo 8 caracteres)")
	cmd.Flags().StringVar(&in.Name, "name", "", "nombre visible")
	cmd.Flags().StringVar(&in.Role, "role", entity.RoleUser, "admin | user")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
