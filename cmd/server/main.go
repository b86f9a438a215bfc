package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/sitegate/internal/adminapi"
	"github.com/keithlinneman/sitegate/internal/cfg"
	"github.com/keithlinneman/sitegate/internal/gatehttp"
	"github.com/keithlinneman/sitegate/internal/httpmw"
	"github.com/keithlinneman/sitegate/internal/httpserver"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/metrics"
	"github.com/keithlinneman/sitegate/internal/opshttp"
	"github.com/keithlinneman/sitegate/internal/otelx"
	"github.com/keithlinneman/sitegate/internal/probe"
	"github.com/keithlinneman/sitegate/internal/prof"
	"github.com/keithlinneman/sitegate/internal/ratelimit"
	"github.com/keithlinneman/sitegate/internal/secrets"
	"github.com/keithlinneman/sitegate/internal/store"
	v "github.com/keithlinneman/sitegate/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	// Parse config from flags and env
	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf(
			"%s %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			vi.AppName, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		os.Exit(0)
	}

	// Fill in config from environment variables with prefix SITEGATE_ and validate
	cfg.FillFromEnv(flag.CommandLine, "SITEGATE_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// Setup logging
	lvl, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v\n", conf.LogLevel, err)
		os.Exit(1)
	}
	lg, err := log.New(log.Options{
		App:        v.AppName,
		Version:    vi.Version,
		Commit:     vi.Commit,
		Level:      lvl,
		JsonFormat: conf.LogJSON,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	// no-op for slog/stderr, but here if we swap backends in the future to ensure any buffered logs are flushed on shutdown
	defer lg.Sync()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_id", vi.BuildId,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"gateway_domain", conf.GatewayDomain,
		"store_s3_bucket", conf.StoreS3Bucket,
		"config_s3_prefix", conf.ConfigS3Prefix,
		"files_s3_prefix", conf.FilesS3Prefix,
		"session_ttl", conf.SessionTTL,
		"trusted_proxy_hops", conf.TrustedProxyHops,
		"rate_limit_per_second", conf.RateLimitPerSecond,
		"rate_limit_burst", conf.RateLimitBurst,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"otlp_endpoint", conf.OTLPEndpoint,
		"pyro_server", conf.PyroServer,
		"trace_sample", conf.TraceSample,
	)

	// Setup pyroscope profiling
	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		AuthToken:     "",
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"app":       v.AppName,
			"component": "server",
			"version":   vi.Version,
			"commit":    vi.Commit,
			"source":    "go-agent",
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	defer func() { stopProf() }()

	// Setup otel for tracing
	// Insecure is true because we are only writing to a collector on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, "server", &vi)
	m.SetProfilingActive(conf.EnablePyroscope)

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		L.Error(ctx, err, "failed to load AWS config")
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	ssmClient := ssm.NewFromConfig(awsCfg)

	// config records and file objects live in one bucket under separate prefixes
	configs := store.NewS3(s3Client, conf.StoreS3Bucket, conf.ConfigS3Prefix)
	files := store.NewS3(s3Client, conf.StoreS3Bucket, conf.FilesS3Prefix)

	// resolve the super-admin token, SSM in production, flag for local dev
	superToken := conf.SuperToken
	if conf.SuperTokenSSMParam != "" {
		superToken, err = secrets.FetchParameter(ctx, ssmClient, conf.SuperTokenSSMParam)
		if err != nil {
			L.Error(ctx, err, "failed to fetch super-admin token", "ssm_param", conf.SuperTokenSSMParam)
			os.Exit(1)
		}
		L.Info(ctx, "super-admin token loaded from SSM", "ssm_param", conf.SuperTokenSSMParam)
	}

	gate, err := gatehttp.New(&gatehttp.Options{
		Configs:       configs,
		Files:         files,
		GatewayDomain: conf.GatewayDomain,
		SessionTTL:    conf.SessionTTL,
		Logger:        L,
		Metrics:       m,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create gate handler")
		os.Exit(1)
	}

	api, err := adminapi.New(&adminapi.Options{
		Configs:       configs,
		Files:         files,
		GatewayDomain: conf.GatewayDomain,
		SuperToken:    superToken,
		Logger:        L,
		Metrics:       m,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create admin api")
		os.Exit(1)
	}

	// setup toggle for server shutdown
	var drainGate probe.ShutdownGate

	// readiness fails once the shutdown gate closes so load balancers stop
	// sending new requests during drain
	readiness := probe.Multi(
		drainGate.Probe(),
		probe.Static(true, ""),
	)

	// Setup rate limiter middleware for the public listener
	var limiter *ratelimit.IPLimiter
	if conf.RateLimitPerSecond > 0 {
		limiter = ratelimit.New(ctx,
			ratelimit.WithRate(conf.RateLimitPerSecond, conf.RateLimitBurst),
			// increment prometheus counter on each denied request
			ratelimit.WithOnDenied(func(ip string) {
				m.IncRateLimitDenied()
			}),
			// only log the first time an ip is denied each time it is cleaned from the bucket
			ratelimit.WithOnFirstDenied(func(ip string) {
				L.Warn(ctx, "rate limit triggered", "ip", ip)
			}),
			ratelimit.WithOnCapacity(func() {
				m.IncRateLimitCapacity()
				L.Warn(ctx, "rate limit capacity reached, rejecting new visitors until some are evicted")
			}),
		)
	}

	httpOpts := &httpserver.Options{
		Port: conf.HTTPPort,
		APIRoutes: func(r chi.Router) {
			r.Mount("/_api", api.Router())
		},
		GateHandler:  gate,
		Health:       probe.Static(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
		MetricsMW:    m.Middleware,
		ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedProxyHops},
		MaxBodyBytes: conf.MaxBodyBytes,
		Logger:       L,
	}
	if limiter != nil {
		httpOpts.RateLimitMW = limiter.Middleware
	}

	siteHTTPStop, err := httpserver.Start(ctx, httpOpts)
	if err != nil {
		L.Error(ctx, err, "failed to start gateway http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// start ops listener to serve metrics, health checks and pprof
	// sg restricts inbound to internal monitoring infrastructure
	opsHTTPStop, err := opshttp.Start(ctx, L, opshttp.Options{
		Port:         conf.AdminPort,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       probe.Static(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	// notify systemd that we started successfully if started under systemd
	if err := notifySystemd(); err != nil {
		// log and dont exit, worst case systemd will kill the process after timeout
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	// block until signal so we dont exit
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	L.Info(context.Background(), "shutdown signal received")

	// fail readiness to drain connections before closing listeners
	drainGate.Set("draining")
	L.Info(context.Background(), "shutdown gate closed")

	L.Info(context.Background(), "sleeping 15s for in-flight requests and load balancer checks to drain")
	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(15 * time.Second):
		L.Info(context.Background(), "drain period complete")
	case <-forceCh:
		L.Warn(context.Background(), "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "gateway http server shutdown")
	}

	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "ops http server shutdown")
	}

	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "otel shutdown")
	}

	stopProf()

	L.Info(context.Background(), "shutdown complete")
	os.Exit(0)
}

func notifySystemd() error {
	// systemd will set NOTIFY_SOCKET to a unix socket path if we were started under systemd with type=notify
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	conn.Write([]byte("READY=1"))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("systemd notify failed: close failed: %w", err)
	}
	return nil
}
