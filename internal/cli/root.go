// Package cli comandos de administración (migraciones, usuarios, identificadores y auditoría).
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/catalog"
	"github.com/jhoicas/stock-ledger-api/internal/application/transactions"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// RootOptions flags globales de todos los comandos.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Open construye el entorno de trabajo; los tests lo reemplazan por uno en memoria.
	Open OpenFunc
}

// ValidFormats formatos de salida permitidos.
var ValidFormats = []string{"text", "json"}

// Env casos de uso que necesitan los comandos.
type Env struct {
	Auth     *auth.AuthUseCase
	Products *catalog.ProductUseCase
	Ledger   *transactions.LedgerUseCase
	Migrate  func(ctx context.Context) ([]string, error)
	Close    func()
}

// OpenFunc abre un Env.
type OpenFunc func(ctx context.Context, opts *RootOptions) (*Env, error)

// NewRootCommand comando raíz de ledgerctl.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	if opts.Open == nil {
		opts.Open = OpenPostgres
	}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Administración del ledger de inventario",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("formato inválido %q: debe ser uno de %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "salida detallada")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewNextIDCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// OpenPostgres Env sobre la base configurada por entorno.
func OpenPostgres(ctx context.Context, opts *RootOptions) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.Nop()
	if opts.Verbose {
		log = logger.New(logger.Config{Env: "development", Level: "debug"})
	}
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	productRepo := postgres.NewProductRepository(pool)
	return &Env{
		Auth: auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}),
		Products: catalog.NewProductUseCase(productRepo, postgres.NewCounterRepository(pool), postgres.NewTxRunner(pool), log),
		Ledger:   transactions.NewLedgerUseCase(postgres.NewLedgerRepository(pool), productRepo, nil),
		Migrate: func(ctx context.Context) ([]string, error) {
			return postgres.Migrate(ctx, pool, log)
		},
		Close: pool.Close,
	}, nil
}

// withEnv abre el Env, ejecuta fn y lo cierra.
func withEnv(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := opts.Open(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "abrir almacenamiento", err)
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(ctx, env)
}
