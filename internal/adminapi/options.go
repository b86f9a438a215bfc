package adminapi

import (
	"time"

	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/metrics"
	"github.com/keithlinneman/sitegate/internal/store"
	"github.com/keithlinneman/sitegate/internal/xerrors"
)

type Options struct {
	// Configs holds site config records plus the "_admin:" token index.
	Configs store.ConfigStore

	// Files holds site content under "{brand}/{name}/" prefixes.
	Files store.ObjectStore

	// GatewayDomain builds the public URLs returned by publish/info.
	GatewayDomain string

	// SuperToken is the static operator bearer token. Optional; when
	// empty only registered principals can authenticate.
	SuperToken string

	Logger  log.Logger
	Metrics *metrics.ServerMetrics

	// Now is the clock, swappable in tests.
	Now func() time.Time
}

func (o *Options) setDefaults() {
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
