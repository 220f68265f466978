// Package router gates client-side navigation. Every route declares
// whether it is public and which roles may enter; a single authorize
// step runs before any handler, so no handler ever needs its own
// access checks.
package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/session"
	"github.com/taskflow/client-core-go/pkg/observe"
)

const (
	// LoginPath receives unauthenticated sessions.
	LoginPath = "/auth/login"
	// DefaultPath receives unknown paths and authenticated sessions
	// that lack a required role.
	DefaultPath = "/dashboard"
)

// Handler runs a route's behavior once authorization passes.
type Handler func(ctx context.Context) error

// Route is one entry in the routing table.
type Route struct {
	Path string
	// Public routes skip the presence check.
	Public bool
	// Roles restricts entry to users holding one of these roles.
	// Empty means any authenticated user.
	Roles   []session.Role
	Handler Handler
}

// Router resolves paths against the routing table and consults the
// session manager as the single source of truth for identity.
type Router struct {
	logger  *zap.SugaredLogger
	session *session.Manager

	mu      sync.Mutex
	routes  map[string]Route
	aliases map[string]string
	current *observe.Subject[string]
}

func New(sess *session.Manager, logger *zap.SugaredLogger) *Router {
	return &Router{
		logger:  logger,
		session: sess,
		routes:  make(map[string]Route),
		aliases: make(map[string]string),
		current: observe.NewSubject[string](),
	}
}

// Handle registers a route. Later registrations for the same path
// replace earlier ones.
func (r *Router) Handle(route Route) {
	r.mu.Lock()
	r.routes[route.Path] = route
	r.mu.Unlock()
}

// Alias maps one path onto another, e.g. "/" onto the dashboard.
func (r *Router) Alias(from, to string) {
	r.mu.Lock()
	r.aliases[from] = to
	r.mu.Unlock()
}

// Current is the observable path of the most recently activated route.
func (r *Router) Current() *observe.Subject[string] { return r.current }

// Navigate authorizes and activates the route at path. It returns the
// path whose handler actually ran, which differs from the request when
// a guard redirected: an unauthenticated session lands on the login
// route, an authenticated session without the required role lands on
// the default route, and unknown paths fall through to the default
// route. The presence check always runs before the role check.
func (r *Router) Navigate(ctx context.Context, path string) (string, error) {
	return r.navigate(ctx, path, 0)
}

func (r *Router) navigate(ctx context.Context, path string, depth int) (string, error) {
	if depth > 4 {
		return "", fmt.Errorf("navigation loop at %q", path)
	}

	r.mu.Lock()
	if to, ok := r.aliases[path]; ok {
		path = to
	}
	route, ok := r.routes[path]
	r.mu.Unlock()

	if !ok {
		// catch-all
		r.logger.Debugw("unknown path, redirecting", "path", path, "to", DefaultPath)
		return r.navigate(ctx, DefaultPath, depth+1)
	}

	if !route.Public {
		if !r.session.IsAuthenticated() {
			r.logger.Debugw("navigation denied, not authenticated", "path", path)
			return r.navigate(ctx, LoginPath, depth+1)
		}
		if len(route.Roles) > 0 && !r.roleAllowed(route.Roles) {
			r.logger.Debugw("navigation denied, role not permitted", "path", path)
			return r.navigate(ctx, DefaultPath, depth+1)
		}
	}

	r.current.Publish(path)
	if route.Handler == nil {
		return path, nil
	}
	if err := route.Handler(ctx); err != nil {
		return path, err
	}
	return path, nil
}

// roleAllowed assumes a resolved session; the presence check has
// already run. A missing user still denies.
func (r *Router) roleAllowed(roles []session.Role) bool {
	u := r.session.User()
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}
