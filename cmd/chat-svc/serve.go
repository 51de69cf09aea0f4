package main

import (
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gochat/internal/dbmysql"
	"gochat/internal/di"
	"gochat/internal/server"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC APIs",
	Long: `Run the REST API on HTTP_PORT, the gRPC API on GRPC_PORT and, when MongoDB is
reachable, the attachment server on MEDIA_SERVER_PORT.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "run schema migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	app, cleanup, err := di.InitializeApplication(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", zap.Error(err))
		return err
	}
	defer cleanup()

	if migrateOnStart {
		if err := dbmysql.AutoMigrate(app.DB); err != nil {
			return err
		}
		log.Info("database migration completed")
	}

	srv := server.New(log).
		WithHTTP(net.JoinHostPort(cfg.Server.Host, cfg.Server.HTTPPort), app.HTTPHandler, cfg.Server).
		WithGRPC(net.JoinHostPort(cfg.Server.Host, cfg.Server.GRPCPort), app.GRPCServer)
	if app.Media != nil {
		srv.WithHTTP(net.JoinHostPort(cfg.Server.Host, cfg.Server.MediaPort), app.Media, cfg.Server)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("chat service starting",
		zap.String("environment", cfg.Server.Environment),
		zap.String("http_port", cfg.Server.HTTPPort),
		zap.String("grpc_port", cfg.Server.GRPCPort),
		zap.Bool("attachments", app.Mongo != nil))

	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("chat service stopped")
	return nil
}
