package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"github.com/shandysiswandi/safex/internal/pkg/jwt"
	"github.com/shandysiswandi/safex/internal/pkg/uid"
)

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs.
	UUID uid.StringID
	// JWT validates bearer tokens issued by the identity platform.
	JWT jwt.JWT
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
	// Public lists extra routes, keyed by method, that skip authentication.
	Public map[string][]string
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the application router with the standard middleware:
// recover, real ip, correlation id, observability, maintenance and bearer
// authentication, in that order.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	public := map[string]map[string]struct{}{
		http.MethodGet: {"/": {}, "/health": {}},
	}
	for method, paths := range cfg.Public {
		if public[method] == nil {
			public[method] = make(map[string]struct{})
		}
		for _, p := range paths {
			public[method][p] = struct{}{}
		}
	}

	r := &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config, public),
			middlewareAuthentication(cfg.JWT, public),
		},
	}

	r.GET("/", func(*Request) (any, error) {
		return welcomeResponse{}, nil
	})

	return r
}

type welcomeResponse struct{}

func (welcomeResponse) Message() string { return "Welcome to SafeX API" }

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})

	all := make([]Middleware, 0, len(r.mws)+len(mws))
	all = append(all, r.mws...)
	all = append(all, mws...)

	r.hr.Handler(method, path, Chain(handler, all...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
