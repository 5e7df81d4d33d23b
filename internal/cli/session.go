package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/app"
	"github.com/roach88/storefront/internal/config"
	"github.com/roach88/storefront/internal/toast"
	"github.com/roach88/storefront/internal/validate"
)

// Error codes reported in JSON output.
const (
	CodeInvalidInput = "E_INVALID_INPUT"
	CodeNotFound     = "E_NOT_FOUND"
	CodeRemote       = "E_REMOTE"
)

// session is an App opened for the duration of one command.
type session struct {
	cfg config.Config
	app *app.App
}

// loadConfig resolves the configuration and applies the --db override.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// openSession opens the database and waits until every container has
// loaded. reg may be nil.
func openSession(ctx context.Context, opts *RootOptions, reg prometheus.Registerer, toastOpts ...toast.Option) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("opening database", "path", cfg.DBPath)
	a, err := app.Open(cfg.DBPath, app.Options{
		Logger:        slog.Default(),
		Registry:      reg,
		Toasts:        toastOpts,
		ToastDuration: cfg.ToastDuration,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if err := a.Start(ctx); err != nil {
		a.Close(context.WithoutCancel(ctx))
		return nil, WrapExitError(ExitCommandError, "failed to load state", err)
	}
	return &session{cfg: cfg, app: a}, nil
}

// close flushes pending writes and closes the database.
func (s *session) close(ctx context.Context) {
	if err := s.app.Close(context.WithoutCancel(ctx)); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withSession opens a session, runs fn and closes the session.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session, out *OutputFormatter) error) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts, nil)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	return fn(ctx, s, newFormatter(cmd, opts))
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// invalidInput reports validation failures and returns an ExitError.
func invalidInput(out *OutputFormatter, err error) error {
	var verrs validate.Errors
	var details interface{}
	if errors.As(err, &verrs) {
		details = verrs
	}
	_ = out.Error(CodeInvalidInput, err.Error(), details)
	return WrapExitError(ExitCommandError, "invalid input", err)
}
