package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/infosec/internal/client/client"
	"github.com/dmitrijs2005/infosec/internal/client/config"
)

// AuthClient is the server API the CLI drives. *client.GRPCClient
// implements it.
type AuthClient interface {
	Signup(ctx context.Context, req client.SignupRequest) (*client.Session, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*client.Session, error)
	Refresh(ctx context.Context) (*client.Session, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	CheckEmail(ctx context.Context, email string) (bool, error)
	Me(ctx context.Context) (*client.Session, error)
	Ping(ctx context.Context) error
	Logout()
	Close() error
}

type App struct {
	config     *config.Config
	authClient AuthClient
	session    *client.Session
	reader     *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{config: c, authClient: apiClient, reader: bufio.NewReader(os.Stdin)}, nil
}

// Run starts the REPL and blocks until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.authClient.Close()

	printlnFn("infosec CLI (type 'help' for commands)")

	pctx, cancel := a.withTimeout(ctx)
	if err := a.authClient.Ping(pctx); err != nil {
		printlnFn("Server is not reachable:", err)
	}
	cancel()

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	var timeout time.Duration
	if a.config != nil {
		timeout = a.config.RequestTimeout
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.Username)
}
