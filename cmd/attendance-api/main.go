package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/globalreino/attendance/backend/internal/auth"
	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/config"
	"github.com/globalreino/attendance/backend/internal/database"
	"github.com/globalreino/attendance/backend/internal/identity"
	"github.com/globalreino/attendance/backend/internal/logging"
	"github.com/globalreino/attendance/backend/internal/records"
	"github.com/globalreino/attendance/backend/internal/server"
	"github.com/globalreino/attendance/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "attendance-api",
		Short: "Multi-branch meeting attendance backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("token.session_ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().Int("verify-ttl-minutes", defaults.GetInt("token.verify_ttl_minutes"), "Verification token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.session_ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "token.verify_ttl_minutes", "verify-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "token.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Open(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	directory, err := branches.NewDirectory(branches.DirectoryConfig{Database: db})
	if err != nil {
		return err
	}

	idProvider := identity.NewUUIDProvider()

	userService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		Directory:  directory,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	recordService, err := records.NewService(records.ServiceConfig{
		Database:   db,
		Directory:  directory,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "attendance-auth",
		Audience:      "attendance-api",
		SessionTTL:    appConfig.SessionTTL,
		VerifyTTL:     appConfig.VerifyTTL,
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenIssuer:   tokenIssuer,
		UserService:   userService,
		RecordService: recordService,
		Directory:     directory,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
