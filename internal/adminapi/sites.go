package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/sitegate/internal/cryptoutil"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/passphrase"
	"github.com/keithlinneman/sitegate/internal/site"
	"github.com/keithlinneman/sitegate/internal/store"
	"github.com/keithlinneman/sitegate/internal/validate"
)

// sitePayload is the request body for publish and update. Files map
// sanitized-relative paths to base64 content.
type sitePayload struct {
	Title       string            `json:"title"`
	BrandTokens map[string]string `json:"brand_tokens,omitempty"`
	Files       map[string]string `json:"files"`
}

type publishResponse struct {
	URL      string `json:"url"`
	Password string `json:"password"`
	Files    int    `json:"files"`
}

type updateResponse struct {
	Updated bool `json:"updated"`
	Files   int  `json:"files"`
}

type listResponse struct {
	Sites []site.Info `json:"sites"`
	Count int         `json:"count"`
}

// siteParams validates the {brand}/{name} route segments. Validation
// errors surface with the field-specific message.
func (api *API) siteParams(w http.ResponseWriter, r *http.Request) (brand, name string, ok bool) {
	brand = chi.URLParam(r, "brand")
	name = chi.URLParam(r, "name")
	if err := validate.Slug(brand, "brand"); err != nil {
		api.writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	if err := validate.Slug(name, "name"); err != nil {
		api.writeError(r.Context(), w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return brand, name, true
}

func (api *API) decodePayload(w http.ResponseWriter, r *http.Request, p *sitePayload) bool {
	if err := json.NewDecoder(r.Body).Decode(p); err != nil {
		api.writeError(r.Context(), w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func (api *API) loadConfig(r *http.Request, brand, name string) (*site.Config, error) {
	raw, err := api.opts.Configs.Get(r.Context(), site.Key(brand, name))
	if err != nil {
		return nil, err
	}
	var cfg site.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (api *API) putConfig(r *http.Request, cfg *site.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return api.opts.Configs.Put(r.Context(), cfg.Key(), raw)
}

// writeFiles decodes and stores every file in the payload. Writes are
// idempotent per-file overwrites; a failure mid-batch leaves earlier
// files in place and the caller retries via update.
func (api *API) writeFiles(w http.ResponseWriter, r *http.Request, cfg *site.Config, files map[string]string) (int, bool) {
	for rawPath, b64 := range files {
		rel, err := validate.FilePath(rawPath)
		if err != nil {
			api.writeError(r.Context(), w, http.StatusBadRequest, err.Error())
			return 0, false
		}
		data, ok := validate.DecodeBase64(b64)
		if !ok {
			api.writeError(r.Context(), w, http.StatusBadRequest, "file "+rel+": malformed base64 content")
			return 0, false
		}
		if err := api.opts.Files.Put(r.Context(), cfg.FileKey(rel), data); err != nil {
			api.serverError(w, r, err, "store site file")
			return 0, false
		}
	}
	return len(files), true
}

// handlePublish creates a site: absent -> published. The exists check is
// read-before-write against an eventually consistent store, so two
// concurrent publishes may both pass it; that race is documented and
// accepted, last write wins.
func (api *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brand, name, ok := api.siteParams(w, r)
	if !ok {
		return
	}

	var p sitePayload
	if !api.decodePayload(w, r, &p) {
		return
	}
	if p.Title == "" {
		api.writeError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}
	if len(p.Files) == 0 {
		api.writeError(ctx, w, http.StatusBadRequest, "at least one file is required")
		return
	}
	if err := validate.BrandTokens(p.BrandTokens); err != nil {
		api.writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := api.loadConfig(r, brand, name); err == nil {
		api.writeError(ctx, w, http.StatusConflict, "site already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		api.serverError(w, r, err, "check existing site")
		return
	}

	password, err := passphrase.Generate()
	if err != nil {
		api.serverError(w, r, err, "generate passphrase")
		return
	}
	secret, err := cryptoutil.NewSecretHex(32)
	if err != nil {
		api.serverError(w, r, err, "generate session secret")
		return
	}

	cfg := &site.Config{
		Brand:        brand,
		Name:         name,
		Title:        p.Title,
		PasswordHash: cryptoutil.SHA256Hex([]byte(password)),
		HMACSecret:   secret,
		BrandTokens:  p.BrandTokens,
		Created:      api.opts.Now().UTC(),
	}

	n, ok := api.writeFiles(w, r, cfg, p.Files)
	if !ok {
		return
	}
	if err := api.putConfig(r, cfg); err != nil {
		api.serverError(w, r, err, "store site config")
		return
	}

	if api.opts.Metrics != nil {
		api.opts.Metrics.IncSitePublished()
		api.opts.Metrics.ObserveSiteFilesStored(n)
	}
	log.FromContext(ctx).Info(ctx, "site published",
		"brand", brand,
		"site", name,
		"files", n,
	)

	api.writeJSON(ctx, w, http.StatusCreated, publishResponse{
		URL:      cfg.URL(api.opts.GatewayDomain),
		Password: password,
		Files:    n,
	})
}

// handleUpdate rewrites content for an existing site, preserving its
// password hash and session secret.
func (api *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brand, name, ok := api.siteParams(w, r)
	if !ok {
		return
	}

	var p sitePayload
	if !api.decodePayload(w, r, &p) {
		return
	}
	if len(p.Files) == 0 {
		api.writeError(ctx, w, http.StatusBadRequest, "at least one file is required")
		return
	}
	if err := validate.BrandTokens(p.BrandTokens); err != nil {
		api.writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := api.loadConfig(r, brand, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.writeError(ctx, w, http.StatusNotFound, "site not found")
			return
		}
		api.serverError(w, r, err, "load site config")
		return
	}

	if p.Title != "" {
		cfg.Title = p.Title
	}
	if p.BrandTokens != nil {
		cfg.BrandTokens = p.BrandTokens
	}

	n, ok := api.writeFiles(w, r, cfg, p.Files)
	if !ok {
		return
	}
	if err := api.putConfig(r, cfg); err != nil {
		api.serverError(w, r, err, "store site config")
		return
	}

	if api.opts.Metrics != nil {
		api.opts.Metrics.IncSiteUpdated()
		api.opts.Metrics.ObserveSiteFilesStored(n)
	}
	log.FromContext(ctx).Info(ctx, "site updated",
		"brand", brand,
		"site", name,
		"files", n,
	)

	api.writeJSON(ctx, w, http.StatusOK, updateResponse{Updated: true, Files: n})
}

func (api *API) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prefix := ""
	if brand := r.URL.Query().Get("brand"); brand != "" {
		if err := validate.Slug(brand, "brand"); err != nil {
			api.writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		prefix = brand + "/"
	}

	keys, err := api.opts.Configs.List(ctx, prefix)
	if err != nil {
		api.serverError(w, r, err, "list site configs")
		return
	}

	sites := make([]site.Info, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, site.AdminKeyPrefix) {
			continue
		}
		// Site configs live at exactly "{brand}/{name}". Anything deeper
		// or shallower under the prefix is not a site record.
		if strings.Count(key, "/") != 1 {
			continue
		}
		raw, err := api.opts.Configs.Get(ctx, key)
		if err != nil {
			// racing with a delete is fine, skip the gone record
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			api.serverError(w, r, err, "load site config")
			return
		}
		var cfg site.Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			// tolerate stray non-config records under the prefix
			log.FromContext(ctx).Warn(ctx, "skipping undecodable site record", "key", key, "error", err)
			continue
		}
		sites = append(sites, cfg.Info(api.opts.GatewayDomain))
	}

	api.writeJSON(ctx, w, http.StatusOK, listResponse{Sites: sites, Count: len(sites)})
}

func (api *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brand, name, ok := api.siteParams(w, r)
	if !ok {
		return
	}

	cfg, err := api.loadConfig(r, brand, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.writeError(ctx, w, http.StatusNotFound, "site not found")
			return
		}
		api.serverError(w, r, err, "load site config")
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, cfg.Info(api.opts.GatewayDomain))
}

// handleDelete removes files first, config last: an interruption leaves
// a published-but-empty site that still resolves via info/list, never a
// dangling config-free file set. Retrying is always safe.
func (api *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brand, name, ok := api.siteParams(w, r)
	if !ok {
		return
	}

	deleted, err := api.opts.Files.DeletePrefix(ctx, site.Key(brand, name)+"/")
	if err != nil {
		api.serverError(w, r, err, "delete site files")
		return
	}
	if err := api.opts.Configs.Delete(ctx, site.Key(brand, name)); err != nil {
		api.serverError(w, r, err, "delete site config")
		return
	}

	if api.opts.Metrics != nil {
		api.opts.Metrics.IncSiteDeleted()
	}
	log.FromContext(ctx).Info(ctx, "site deleted",
		"brand", brand,
		"site", name,
		"files_removed", deleted,
	)

	api.writeJSON(ctx, w, http.StatusOK, map[string]bool{"deleted": true})
}

// handleRotatePassword issues a fresh passphrase and session secret.
// Rotating the secret fails every outstanding session at once.
func (api *API) handleRotatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brand, name, ok := api.siteParams(w, r)
	if !ok {
		return
	}

	cfg, err := api.loadConfig(r, brand, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.writeError(ctx, w, http.StatusNotFound, "site not found")
			return
		}
		api.serverError(w, r, err, "load site config")
		return
	}

	password, err := passphrase.Generate()
	if err != nil {
		api.serverError(w, r, err, "generate passphrase")
		return
	}
	secret, err := cryptoutil.NewSecretHex(32)
	if err != nil {
		api.serverError(w, r, err, "generate session secret")
		return
	}

	cfg.PasswordHash = cryptoutil.SHA256Hex([]byte(password))
	cfg.HMACSecret = secret
	if err := api.putConfig(r, cfg); err != nil {
		api.serverError(w, r, err, "store site config")
		return
	}

	if api.opts.Metrics != nil {
		api.opts.Metrics.IncPasswordRotated()
	}
	log.FromContext(ctx).Info(ctx, "site password rotated",
		"brand", brand,
		"site", name,
	)

	api.writeJSON(ctx, w, http.StatusOK, map[string]string{
		"password": password,
		"url":      cfg.URL(api.opts.GatewayDomain),
	})
}
