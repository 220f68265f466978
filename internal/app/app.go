// Package app assembles the client: one explicitly constructed context
// owns the single instances of the session manager, the caches, and
// the router, so nothing in the program relies on package-level
// mutable state.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/analytics"
	"github.com/taskflow/client-core-go/internal/api"
	"github.com/taskflow/client-core-go/internal/config"
	"github.com/taskflow/client-core-go/internal/notification"
	"github.com/taskflow/client-core-go/internal/router"
	"github.com/taskflow/client-core-go/internal/session"
	"github.com/taskflow/client-core-go/internal/task"
)

// Context holds the process-wide service instances. Construct one at
// startup with New and dispose of it with Shutdown.
type Context struct {
	Config config.Config
	Logger *zap.SugaredLogger

	Store         *session.Store
	Session       *session.Manager
	API           *api.Client
	Tasks         *task.Service
	Notifications *notification.Service
	Analytics     *analytics.Service
	Router        *router.Router
}

// New wires the full object graph: the token store feeds the auth
// transport, a 401 anywhere forces a logout through the session
// manager, and logout navigates back to the login route.
func New(cfg config.Config, logger *zap.SugaredLogger) (*Context, error) {
	store := session.NewStore(cfg.StateFile())

	transport := &api.AuthTransport{
		Base:   http.DefaultTransport,
		Tokens: store,
		Logger: logger,
	}
	httpClient := &http.Client{Transport: transport, Timeout: cfg.RequestTimeout}

	client, err := api.NewClient(cfg.APIBaseURL, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	sess := session.NewManager(client, store, logger)
	transport.OnAuthFailure = sess.Logout

	rt := router.New(sess, logger)
	sess.SetNavigator(func(path string) {
		if _, err := rt.Navigate(context.Background(), path); err != nil {
			logger.Warnw("post-logout navigation failed", "path", path, "err", err)
		}
	})

	c := &Context{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Session:       sess,
		API:           client,
		Tasks:         task.NewService(client, logger),
		Notifications: notification.NewService(client, logger),
		Analytics:     analytics.NewService(client, logger),
		Router:        rt,
	}
	return c, nil
}

// Shutdown releases the context. Streams need no teardown of their
// own; subscribers own their subscriptions.
func (c *Context) Shutdown() {
	c.Logger.Debugw("client context shut down")
}
