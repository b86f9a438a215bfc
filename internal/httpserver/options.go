package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/sitegate/internal/httpmw"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/probe"
)

type Options struct {
	Logger log.Logger
	Port   int

	// APIRoutes mounts the admin API onto the router, typically at /_api.
	APIRoutes func(chi.Router)

	// GateHandler serves all host-addressed site traffic. It is installed
	// as the router's NotFound and MethodNotAllowed handler so every path
	// that is not an explicit route falls through to it.
	GateHandler http.Handler

	UseRecoverMW bool
	OnPanic      func()

	MetricsMW   func(http.Handler) http.Handler
	RateLimitMW func(http.Handler) http.Handler

	ClientIPOpts httpmw.ClientIPOptions

	Health    probe.Probe
	Readiness probe.Probe

	// MaxBodyBytes caps request bodies. Publish payloads carry base64
	// file content, so this is much larger than a typical form post.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 16 << 20 // 16 MB

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.Port == 0 {
		o.Port = 8080
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
}
