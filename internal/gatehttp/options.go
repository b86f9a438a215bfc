package gatehttp

import (
	"time"

	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/metrics"
	"github.com/keithlinneman/sitegate/internal/store"
	"github.com/keithlinneman/sitegate/internal/xerrors"
)

type Options struct {
	// Configs holds site config records keyed by "{brand}/{name}".
	Configs store.ConfigStore

	// Files holds site content keyed by "{brand}/{name}/{relativePath}".
	Files store.ObjectStore

	// GatewayDomain is the apex the gateway serves under; public hosts
	// look like "{brand}.{GatewayDomain}".
	GatewayDomain string

	// SessionTTL bounds minted session tokens. Default 24h.
	SessionTTL time.Duration

	Logger  log.Logger
	Metrics *metrics.ServerMetrics

	// Now is the clock, swappable in tests.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.SessionTTL == 0 {
		o.SessionTTL = 24 * time.Hour
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

func (o *Options) validate() error {
	if o.Configs == nil {
		return xerrors.New("Configs store is required")
	}
	if o.Files == nil {
		return xerrors.New("Files store is required")
	}
	if o.GatewayDomain == "" {
		return xerrors.New("GatewayDomain is required")
	}
	return nil
}
