package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/validate"
)

type App struct {
	LogJSON  bool
	LogLevel string

	HTTPPort  int
	AdminPort int

	GatewayDomain string

	StoreS3Bucket  string
	ConfigS3Prefix string
	FilesS3Prefix  string

	// SuperToken is the direct super-admin token, for local development.
	// In production it is fetched from the SSM parameter instead.
	SuperToken         string
	SuperTokenSSMParam string

	SessionTTL time.Duration

	TrustedProxyHops int
	MaxBodyBytes     int64

	RateLimitPerSecond float64
	RateLimitBurst     int

	EnablePprof     bool
	EnablePyroscope bool
	EnableTracing   bool
	PyroServer      string
	PyroTenantID    string
	OTLPEndpoint    string
	TraceSample     float64
}

// Register binds all config fields to the given FlagSet with defaults inline
func Register(fs *flag.FlagSet, c *App) {
	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.IntVar(&c.HTTPPort, "http-port", 8080, "listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "ops listen TCP port (1..65535)")
	fs.StringVar(&c.GatewayDomain, "gateway-domain", "", "apex domain sites are served under ({brand}.{domain})")
	fs.StringVar(&c.StoreS3Bucket, "store-s3-bucket", "", "s3 bucket holding site configs and files")
	fs.StringVar(&c.ConfigS3Prefix, "config-s3-prefix", "config", "s3 prefix for site config records")
	fs.StringVar(&c.FilesS3Prefix, "files-s3-prefix", "files", "s3 prefix for site file objects")
	fs.StringVar(&c.SuperToken, "super-token", "", "super-admin bearer token (dev only, prefer -super-token-ssm-param)")
	fs.StringVar(&c.SuperTokenSSMParam, "super-token-ssm-param", "", "ssm parameter name holding the super-admin token")
	fs.DurationVar(&c.SessionTTL, "session-ttl", 24*time.Hour, "session cookie lifetime")
	fs.IntVar(&c.TrustedProxyHops, "trusted-proxy-hops", 0, "number of trusted reverse proxies in front of the server")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", 16<<20, "request body cap in bytes")
	fs.Float64Var(&c.RateLimitPerSecond, "rate-limit-per-second", 5, "sustained requests/second per client IP (0 disables)")
	fs.IntVar(&c.RateLimitBurst, "rate-limit-burst", 20, "burst size per client IP")
	fs.BoolVar(&c.EnablePprof, "enable-pprof", true, "Enable pprof profiling (on ops port only)")
	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "Enable OTLP tracing and push to otlp-endpoint")
	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "Enable pushing Pyroscope data to server set in -pyro-server")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url to push to")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "tenant (x-scope-orgid) to use for pyro-server")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP endpoint to push to (gRPC) (host:port)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")
}

// FillFromEnv sets any flag not explicitly passed on the CLI from
// environment variables. Flag "foo-bar" maps to PREFIX_FOO_BAR.
// Precedence: cli flag > env var > default.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := prefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
		envVal, envSet := os.LookupEnv(key)
		if !envSet {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, envVal)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVal); err != nil {
			fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, envVal, err)
			}
		}
	})
}

// Validate checks that config values are within expected ranges and formats.
// Returns an error describing all invalid fields, or nil if all valid.
func Validate(c App) error {
	var errs []error

	// Ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort))
	}
	if c.AdminPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort))
	}

	// Log level
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err))
	}

	// Gateway domain: required, lowercase DNS labels only. Brand hosts
	// are derived by prefixing a label, so the apex itself must be clean.
	if c.GatewayDomain == "" {
		errs = append(errs, fmt.Errorf("GATEWAY_DOMAIN is required"))
	} else {
		for _, label := range strings.Split(c.GatewayDomain, ".") {
			if err := validate.Slug(label, "GATEWAY_DOMAIN label"); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}

	// Store
	if c.StoreS3Bucket == "" {
		errs = append(errs, fmt.Errorf("STORE_S3_BUCKET is required"))
	}
	if c.ConfigS3Prefix == c.FilesS3Prefix {
		errs = append(errs, fmt.Errorf("CONFIG_S3_PREFIX and FILES_S3_PREFIX must differ (both %q)", c.ConfigS3Prefix))
	}

	// Super-admin token, exactly one source
	if c.SuperToken == "" && c.SuperTokenSSMParam == "" {
		errs = append(errs, fmt.Errorf("one of SUPER_TOKEN or SUPER_TOKEN_SSM_PARAM is required"))
	}
	if c.SuperToken != "" && c.SuperTokenSSMParam != "" {
		errs = append(errs, fmt.Errorf("SUPER_TOKEN and SUPER_TOKEN_SSM_PARAM are mutually exclusive"))
	}

	// Session lifetime
	if c.SessionTTL < time.Minute || c.SessionTTL > 30*24*time.Hour {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be 1m..720h (got %v)", c.SessionTTL))
	}

	if c.TrustedProxyHops < 0 || c.TrustedProxyHops > 10 {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXY_HOPS must be 0..10 (got %d)", c.TrustedProxyHops))
	}
	if c.MaxBodyBytes < 1024 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be at least 1024 (got %d)", c.MaxBodyBytes))
	}

	// Rate limiting
	if c.RateLimitPerSecond < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_SECOND must be >= 0 (got %g)", c.RateLimitPerSecond))
	}
	if c.RateLimitPerSecond > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be >= 1 when rate limiting is on (got %d)", c.RateLimitBurst))
	}

	// Tracing sample
	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}

	// Pyroscope (URL and scheme)
	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if u, err := url.Parse(c.PyroServer); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, fmt.Errorf("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}

	// OTLP tracing (grpc exporter wants host:port, no scheme)
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
