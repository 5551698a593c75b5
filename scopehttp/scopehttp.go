// Package scopehttp opens an injector scope for every HTTP request.
//
// The middleware has the standard func(http.Handler) http.Handler shape,
// so it plugs into net/http, chi and similar routers:
//
//	r := chi.NewRouter()
//	r.Use(scopehttp.Middleware(inj))
//	r.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
//	    repo, err := scopehttp.Resolve(req, UserRepositoryKey)
//	    ...
//	})
package scopehttp

import (
	"context"
	"net/http"

	"github.com/xraph/injector"
)

// scopeContextKey is the context key for storing the request Scope.
type scopeContextKey struct{}

// ErrorHandler is called when ending a request scope fails.
type ErrorHandler func(r *http.Request, err error)

// Option configures the middleware.
type Option func(*config)

type config struct {
	onEndError ErrorHandler
}

// WithEndErrorHandler sets the callback for dispose errors at the end of
// a request. By default they are dropped; the injector logs them.
func WithEndErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		c.onEndError = h
	}
}

// Middleware begins a scope before the handler runs and ends it after
// the handler returns, even if it panics.
func Middleware(inj *injector.Injector, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := inj.BeginScope()
			r = r.WithContext(WithScope(r.Context(), scope))

			defer func() {
				if err := scope.End(); err != nil && cfg.onEndError != nil {
					cfg.onEndError(r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// WithScope returns a copy of ctx carrying scope.
func WithScope(ctx context.Context, scope *injector.Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// FromContext returns the scope stored in ctx.
func FromContext(ctx context.Context) (*injector.Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(*injector.Scope)

	return scope, ok && scope != nil
}

// Resolve resolves key through the scope of the request.
// It fails with injector.ErrNoActiveScope when the middleware is not installed.
func Resolve[T any](r *http.Request, key injector.Key[T]) (T, error) {
	scope, ok := FromContext(r.Context())
	if !ok {
		var zero T

		return zero, injector.ErrNoActiveScope
	}

	return injector.ResolveContext(r.Context(), scope, key)
}
