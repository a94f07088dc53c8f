package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roaster_control/internal/handlers"
	"roaster_control/internal/logger"
	"roaster_control/internal/models"
	"roaster_control/internal/repository"
	"roaster_control/internal/repository/db"
	"roaster_control/internal/server"
	"roaster_control/internal/service"

	"github.com/spf13/viper"
)

const defaultSimTick = 1 * time.Second

// machineConfig is the config.yml shape for one machine entry.
type machineConfig struct {
	ID       string                      `mapstructure:"id"`
	Controls []models.ControlConfig      `mapstructure:"controls"`
	Extras   []models.ExtraChannelConfig `mapstructure:"extras"`
}

func main() {
	// load config.yml first so the logger level can come from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log.level"))

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Config{
		SigningKey: viper.GetString("auth.signing_key"),
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	registerMachines(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the roaster simulator (stands in for hardware transports)
	go services.Simulator.Run(ctx, simTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "roaster.db")
		dbPath = "roaster.db"
	}
	return db.InitDB(dbPath)
}

// registerMachines adds every machine declared in config.yml.
func registerMachines(services *service.Service, log *logger.Logger) {
	var machines []machineConfig
	if err := viper.UnmarshalKey("machines", &machines); err != nil {
		log.Fatalw("invalid machines config", "err", err)
	}
	for _, mc := range machines {
		if err := services.Machine.Add(mc.ID, mc.Controls, mc.Extras); err != nil {
			log.Fatalw("failed to register machine", "machine", mc.ID, "err", err)
		}
	}
}

func simTick() time.Duration {
	if d := viper.GetDuration("simulator.tick"); d > 0 {
		return d
	}
	return defaultSimTick
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
