// Package rest is the HTTP JSON surface of the store.
package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/metrics"
	"github.com/gorilla/mux"
)

const (
	RouteHealth   = "/health"
	RouteList     = "/kv"
	RouteItem     = "/kv/{id}"
	RouteMetrics  = "/metrics"
	RouteSnapshot = "/admin/snapshot"
)

type Options struct {
	// RequestTimeout bounds each request context; zero disables it.
	RequestTimeout time.Duration
	// AuthSecret enables bearer auth on write and admin routes when set.
	AuthSecret string
}

// NewRouter registers the routes and middleware chain. m may be nil.
func NewRouter(h *Handler, m *metrics.Metrics, l logging.Logger, opts Options) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	router.Use(
		instrument(l, m),
		recoverer(l),
		timeout(opts.RequestTimeout),
	)

	protect := func(next http.HandlerFunc) http.Handler {
		if opts.AuthSecret == "" {
			return next
		}
		return requireBearer([]byte(opts.AuthSecret), next)
	}

	router.HandleFunc(RouteHealth, h.Health).Methods(http.MethodGet)
	router.HandleFunc(RouteList, h.List).Methods(http.MethodGet)
	router.HandleFunc(RouteItem, h.Get).Methods(http.MethodGet)
	router.Handle(RouteItem, protect(h.Put)).Methods(http.MethodPut)
	router.Handle(RouteSnapshot, protect(h.Snapshot)).Methods(http.MethodPost)
	if m != nil {
		router.Handle(RouteMetrics, m.Handler()).Methods(http.MethodGet)
	}

	return router
}
