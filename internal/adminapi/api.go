// Package adminapi implements the site lifecycle API mounted under
// /_api: publish, update, list, inspect, delete, rotate-password, and
// admin principal registration. Every route requires a bearer token.
package adminapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/sitegate/internal/log"
)

// API implements the admin endpoints.
type API struct {
	opts Options
}

func New(opts *Options) (*API, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &API{opts: *opts}, nil
}

// Router returns the admin route tree, intended to be mounted at /_api.
func (api *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(api.requireAuth)

	r.Get("/sites", api.handleList)
	r.Post("/sites/{brand}/{name}", api.handlePublish)
	r.Put("/sites/{brand}/{name}", api.handleUpdate)
	r.Get("/sites/{brand}/{name}", api.handleInfo)
	r.Delete("/sites/{brand}/{name}", api.handleDelete)
	r.Post("/sites/{brand}/{name}/password", api.handleRotatePassword)

	r.Post("/admins", api.handleRegisterAdmin)
	r.Get("/admins", api.handleListAdmins)

	return r
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.opts.Logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}

func (api *API) writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	api.writeJSON(ctx, w, status, map[string]string{"error": msg})
}

func (api *API) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.FromContext(r.Context()).Error(r.Context(), err, msg)
	api.writeError(r.Context(), w, http.StatusInternalServerError, "internal error")
}

func unmarshalRecord(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}
