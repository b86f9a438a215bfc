// Package gatehttp serves public site traffic: it gates every request
// behind a per-site password, mints and verifies stateless session
// cookies, and streams stored files with their resolved MIME types.
package gatehttp

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/keithlinneman/sitegate/internal/cryptoutil"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/site"
	"github.com/keithlinneman/sitegate/internal/store"
	"github.com/keithlinneman/sitegate/internal/validate"
)

type Handler struct {
	opts Options
}

func New(opts *Options) (*Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Handler{opts: *opts}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	brand, ok := h.brandFromHost(r.Host)
	if !ok {
		http.NotFound(w, r)
		return
	}

	name, rel, ok := splitSitePath(r.URL.Path)
	if !ok || validate.Slug(name, "name") != nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.handleLogin(w, r, brand, name)
	case http.MethodGet, http.MethodHead:
		h.handleGet(w, r, brand, name, rel)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// brandFromHost extracts the tenant label from "{brand}.{gateway-domain}".
// Anything else (bare apex, nested subdomains, foreign hosts) is not ours.
func (h *Handler) brandFromHost(hostport string) (string, bool) {
	host := hostport
	if hp, _, err := net.SplitHostPort(hostport); err == nil {
		host = hp
	}
	host = strings.ToLower(host)

	suffix := "." + strings.ToLower(h.opts.GatewayDomain)
	brand, found := strings.CutSuffix(host, suffix)
	if !found || brand == "" {
		return "", false
	}
	if validate.Slug(brand, "brand") != nil {
		return "", false
	}
	return brand, true
}

// splitSitePath splits "/{name}/{relativePath}" into its parts. A bare
// "/{name}" or trailing slash resolves to the site's index.html.
func splitSitePath(p string) (name, rel string, ok bool) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", "", false
	}
	name, rel, _ = strings.Cut(p, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	clean, err := validate.FilePath(rel)
	if err != nil {
		return "", "", false
	}
	return name, clean, true
}

func (h *Handler) loadSite(r *http.Request, brand, name string) (*site.Config, error) {
	raw, err := h.opts.Configs.Get(r.Context(), site.Key(brand, name))
	if err != nil {
		return nil, err
	}
	var cfg site.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, brand, name, rel string) {
	cfg, err := h.loadSite(r, brand, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// unknown site renders the same login form as a missing session
			h.renderLogin(w, http.StatusOK, nil, brand, name, "")
			return
		}
		h.serverError(w, r, err, "load site config")
		return
	}

	if v, ok := CookieValue(r.Header.Get("Cookie"), CookieName); ok {
		if VerifyToken(v, brand, name, cfg.HMACSecret, h.opts.Now()) {
			h.serveFile(w, r, cfg, rel)
			return
		}
		// present but invalid: expired, forged, or pre-rotation
		if h.opts.Metrics != nil {
			h.opts.Metrics.IncSessionExpired()
		}
	}

	h.renderLogin(w, http.StatusOK, cfg, brand, name, "")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request, brand, name string) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, nil, brand, name, genericError)
		return
	}
	password := r.PostFormValue("password")

	cfg, err := h.loadSite(r, brand, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// burn comparable work so absent sites are not distinguishable
			// from wrong passwords by timing
			cryptoutil.StringsEqual(password, "")
			h.loginFailed(w, r, nil, brand, name)
			return
		}
		h.serverError(w, r, err, "load site config")
		return
	}

	if !cryptoutil.HashEqual(cryptoutil.SHA256Hex([]byte(password)), cfg.PasswordHash) {
		h.loginFailed(w, r, cfg, brand, name)
		return
	}

	expires := h.opts.Now().Add(h.opts.SessionTTL)
	token := MintToken(brand, name, cfg.HMACSecret, expires)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/" + name + "/",
		Domain:   brand + "." + h.opts.GatewayDomain,
		Expires:  expires,
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	if h.opts.Metrics != nil {
		h.opts.Metrics.IncLoginSuccess()
		h.opts.Metrics.IncSessionIssued()
	}
	log.FromContext(r.Context()).Info(r.Context(), "login succeeded",
		"brand", brand,
		"site", name,
	)

	http.Redirect(w, r, "/"+name+"/", http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, cfg *site.Config, brand, name string) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.IncLoginFailure()
	}
	log.FromContext(r.Context()).Info(r.Context(), "login failed",
		"brand", brand,
		"site", name,
	)
	h.renderLogin(w, http.StatusUnauthorized, cfg, brand, name, genericError)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, cfg *site.Config, rel string) {
	data, err := h.opts.Files.Get(r.Context(), cfg.FileKey(rel))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.Header().Set("Cache-Control", "no-store")
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, err, "load site file")
		return
	}

	w.Header().Set("Content-Type", store.MimeType(rel))
	w.Header().Set("Cache-Control", store.CacheControl)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	L := h.opts.Logger
	if ctxL := log.FromContext(r.Context()); ctxL != log.Nop() {
		L = ctxL
	}
	L.Error(r.Context(), err, msg)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
