// Package server wires configuration, storage, the authentication core and
// the gRPC transport, and runs them until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/infosec/internal/dbx"
	"github.com/dmitrijs2005/infosec/internal/logging"
	"github.com/dmitrijs2005/infosec/internal/server/auth"
	"github.com/dmitrijs2005/infosec/internal/server/config"
	"github.com/dmitrijs2005/infosec/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/infosec/internal/server/services"

	gs "github.com/dmitrijs2005/infosec/internal/server/grpc"
)

var logOutput io.Writer = os.Stdout

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
}

// NewApp validates c and builds the application. An empty DatabaseDSN
// selects the in-memory credential store.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(logOutput, slog.LevelInfo)

	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "Default secret key in use, tokens are signed with a public value")
	}

	signer, err := auth.NewTokenSigner([]byte(c.SecretKey), c.Issuer,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token signer init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	var (
		rm repomanager.RepositoryManager
		tr dbx.Transactor
	)

	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "No database configured, using in-memory store")
		rm = repomanager.NewMemoryRepositoryManager()
		tr = dbx.NopTransactor{}
	} else {
		db, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping error: %w", err)
		}

		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}

		app.db = db
		rm = pm
		tr = dbx.NewSQLTransactor(db, nil)
	}

	app.authService = services.NewAuthService(tr, rm, signer, auth.NewBcryptHasher(c.BcryptCost), logger)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "error closing db", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
}
