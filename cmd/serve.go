package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nikhilchitrapu/portfolio/internal/analytics"
	"github.com/nikhilchitrapu/portfolio/internal/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var servePort string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the résumé web server until interrupted.

Example:
  portfolio serve
  portfolio serve --port 3000 --env-file .env.local`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	logger := newLogger(cfg)

	store, err := loadContent(cfg, logger)
	if err != nil {
		err = errors.Wrap(err, "failed to load content")
		return err
	}

	opts := server.Options{
		Config: cfg,
		Store:  store,
		Logger: logger,
	}

	if cfg.Analytics.Enabled {
		var visits *analytics.Store
		visits, err = analytics.Open(ctx, cfg.Analytics.Database, logger)
		if err != nil {
			err = errors.Wrap(err, "failed to open analytics database")
			return err
		}
		defer visits.Close()
		opts.Analytics = visits
		logger.Infof("Analytics database initialized at %s", cfg.Analytics.Database)
	}

	if mailer := server.NewSMTPMailer(cfg); mailer != nil {
		opts.Mailer = mailer
	} else {
		logger.Warn("SMTP credentials not configured; contact form disabled")
	}
	if cfg.Admin.Password == "" {
		logger.Warn("ADMIN_PASSWORD not set; admin dashboard disabled")
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	err = srv.Run(ctx)
	return err
}
