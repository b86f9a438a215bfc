package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/keithlinneman/sitegate/internal/cryptoutil"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/site"
	"github.com/keithlinneman/sitegate/internal/store"
)

type principalKey struct{}

// principal records who authenticated this request. Super is true only
// for the static operator token; registered tokens carry their name.
type principal struct {
	Super bool
	Name  string
}

func principalFromContext(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

// requireAuth gates every admin route behind a bearer token: either the
// configured super-admin secret (timing-safe compared) or a registered
// principal looked up by token hash. The raw token is never logged or
// stored.
func (api *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			api.denyAuth(w, r, "missing bearer token")
			return
		}

		if api.opts.SuperToken != "" && cryptoutil.StringsEqual(token, api.opts.SuperToken) {
			ctx := context.WithValue(r.Context(), principalKey{}, principal{Super: true})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		hash := cryptoutil.SHA256Hex([]byte(token))
		raw, err := api.opts.Configs.Get(r.Context(), site.AdminKey(hash))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.denyAuth(w, r, "unknown bearer token")
				return
			}
			api.serverError(w, r, err, "look up admin principal")
			return
		}

		var rec site.AdminRecord
		if err := unmarshalRecord(raw, &rec); err != nil {
			api.serverError(w, r, err, "decode admin principal")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal{Name: rec.Name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (api *API) denyAuth(w http.ResponseWriter, r *http.Request, reason string) {
	if api.opts.Metrics != nil {
		api.opts.Metrics.IncAdminAuthFailure()
	}
	log.FromContext(r.Context()).Warn(r.Context(), "admin auth rejected", "reason", reason)
	api.writeError(r.Context(), w, http.StatusUnauthorized, "unauthorized")
}
