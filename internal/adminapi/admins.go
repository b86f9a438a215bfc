package adminapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/keithlinneman/sitegate/internal/cryptoutil"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/site"
)

type registerAdminRequest struct {
	Name string `json:"name"`
}

type registerAdminResponse struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

type adminSummary struct {
	Name       string `json:"name"`
	HashPrefix string `json:"hash_prefix"`
	Created    string `json:"created"`
}

// handleRegisterAdmin mints a named bearer token. Only the super-admin
// may create principals. The plaintext token appears once in this
// response; the store keeps just its hash.
func (api *API) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, _ := principalFromContext(ctx)
	if !p.Super {
		api.writeError(ctx, w, http.StatusForbidden, "super-admin token required")
		return
	}

	var req registerAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(ctx, w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		api.writeError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	token, err := cryptoutil.NewToken(32)
	if err != nil {
		api.serverError(w, r, err, "generate admin token")
		return
	}

	rec := site.AdminRecord{Name: req.Name, Created: api.opts.Now().UTC()}
	raw, err := json.Marshal(&rec)
	if err != nil {
		api.serverError(w, r, err, "encode admin record")
		return
	}
	hash := cryptoutil.SHA256Hex([]byte(token))
	if err := api.opts.Configs.Put(ctx, site.AdminKey(hash), raw); err != nil {
		api.serverError(w, r, err, "store admin record")
		return
	}

	log.FromContext(ctx).Info(ctx, "admin principal registered",
		"name", req.Name,
		"hash_prefix", hash[:8],
	)

	api.writeJSON(ctx, w, http.StatusCreated, registerAdminResponse{
		Name:  req.Name,
		Token: token,
	})
}

func (api *API) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keys, err := api.opts.Configs.List(ctx, site.AdminKeyPrefix)
	if err != nil {
		api.serverError(w, r, err, "list admin principals")
		return
	}

	admins := make([]adminSummary, 0, len(keys))
	for _, key := range keys {
		raw, err := api.opts.Configs.Get(ctx, key)
		if err != nil {
			continue
		}
		var rec site.AdminRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		hash := strings.TrimPrefix(key, site.AdminKeyPrefix)
		prefix := hash
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		admins = append(admins, adminSummary{
			Name:       rec.Name,
			HashPrefix: prefix,
			Created:    rec.Created.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	api.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"admins": admins,
		"count":  len(admins),
	})
}
