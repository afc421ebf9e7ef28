package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/config"
	"sangihetrip/internal/domain"
	"sangihetrip/internal/logging"
	"sangihetrip/internal/session"
)

const tokenEnv = "SANGIHE_TOKEN"

var (
	errNoToken      = errors.New("no access token: pass --token or set " + tokenEnv)
	errNotAdmin     = errors.New("the access token does not carry the admin role")
	errSessionEnded = errors.New("session ended, sign in again to get a fresh token")
)

// adminApp holds the state shared by every command of one invocation.
type adminApp struct {
	// flags
	token      string
	backendURL string
	verbose    bool
	timeout    time.Duration

	cfg     *config.Config
	logger  *zap.Logger
	client  *apiclient.Client
	store   *session.Store
	watcher *session.Watcher

	// page is the admin page the console stands for, used as the login
	// redirect's next.
	page      string
	loggedOut chan struct{}
	endOnce   sync.Once
}

func newRootCmd() *cobra.Command {
	a := &adminApp{page: "/admin"}

	root := &cobra.Command{
		Use:   "sangihe-admin",
		Short: "SangiheTrip admin console",
		Long: `Manage SangiheTrip content and users from the terminal.

Resources: ` + strings.Join(domain.AdminResources(), ", ") + `

The access token is read from --token or the ` + tokenEnv + ` environment variable
and must carry the admin role. When it expires the session ends.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.token, "token", "", "Admin access token (or set "+tokenEnv+")")
	root.PersistentFlags().StringVar(&a.backendURL, "backend", "", "Backend API base URL (default from config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "Timeout for one-shot commands")

	root.AddCommand(a.listCmd())
	root.AddCommand(a.consoleCmd())
	root.AddCommand(a.deleteCmd())
	root.AddCommand(a.moderateCmd())

	return root
}

// setup loads the configuration and opens the session.
func (a *adminApp) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Log
	logCfg.Level = "warn"
	if a.verbose {
		logCfg.Level = "debug"
	}
	a.logger, err = logging.New(logCfg, cfg.Environment)
	if err != nil {
		return err
	}

	if a.backendURL == "" {
		a.backendURL = cfg.Backend.BaseURL
	}
	if a.token == "" {
		a.token = strings.TrimSpace(os.Getenv(tokenEnv))
	}
	if a.token == "" {
		return errNoToken
	}

	a.client = apiclient.New(a.backendURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		apiclient.WithLogger(a.logger.Named("backend")),
	)

	broker := session.NewBroker()
	broker.Subscribe(func(e session.Event) {
		a.logger.Debug("session changed", zap.String("kind", string(e.Kind)), zap.String("subject", e.Subject))
	})

	a.loggedOut = make(chan struct{})
	stderr := cmd.ErrOrStderr()
	a.store = session.NewStore(session.StoreOptions{
		Broker: broker,
		Navigator: session.NavigatorFunc(func(target string) {
			a.endOnce.Do(func() {
				fmt.Fprintf(stderr, "Session ended. Sign in again at %s\n", target)
				close(a.loggedOut)
			})
		}),
		LoginPath:   cfg.Auth.LoginPath,
		CurrentPath: func() string { return a.page },
	})
	a.store.SetTokens(a.token, "")
	a.watcher = session.NewWatcher(a.store, cfg.Auth.ExpiryCheckInterval, a.logger.Named("watcher"))

	if a.watcher.Check(cmd.Context()) {
		return errSessionEnded
	}
	claims, err := a.store.Claims()
	if err != nil {
		return err
	}
	if !claims.IsAdmin() {
		return errNotAdmin
	}
	return nil
}

// ended reports whether the session has ended.
func (a *adminApp) ended() bool {
	select {
	case <-a.loggedOut:
		return true
	default:
		return false
	}
}

// fail turns a backend error into the command's error.
func (a *adminApp) fail(action string, err error) error {
	if a.ended() {
		return errSessionEnded
	}
	return fmt.Errorf("%s: %s", action, apiclient.Message(err))
}

func (a *adminApp) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// checkResource validates resource and points the session at its page.
func (a *adminApp) checkResource(resource string) (string, error) {
	if !domain.IsAdminResource(resource) {
		return "", fmt.Errorf("unknown resource %q, expected one of %s",
			resource, strings.Join(domain.AdminResources(), ", "))
	}
	a.page = "/admin/" + resource
	return resource, nil
}
