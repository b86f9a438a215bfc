package gatehttp

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/keithlinneman/sitegate/internal/site"
)

// The login page is self-contained: no external assets, styling via CSS
// custom properties that default sensibly and are overridden by the
// site's brand tokens. Dynamic strings pass through html/template's
// contextual escaping; token values are validated hex colors so the
// inline style block is injection-safe.
var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
<style>
:root{--accent:#1f2937;--background:#f9fafb;--surface:#ffffff;--text:#111827;{{.Palette}}}
body{margin:0;font-family:system-ui,sans-serif;background:var(--background);color:var(--text);display:flex;min-height:100vh;align-items:center;justify-content:center}
.card{background:var(--surface);border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.12);padding:2.5rem;width:100%;max-width:22rem}
h1{margin:0 0 .5rem;font-size:1.25rem}
p.brand{margin:0 0 1.5rem;color:var(--accent);font-size:.85rem;text-transform:uppercase;letter-spacing:.08em}
label{display:block;margin-bottom:.5rem;font-size:.9rem}
input[type=password]{width:100%;box-sizing:border-box;padding:.6rem;border:1px solid #d1d5db;border-radius:4px;font-size:1rem}
button{margin-top:1rem;width:100%;padding:.6rem;border:0;border-radius:4px;background:var(--accent);color:#fff;font-size:1rem;cursor:pointer}
.error{margin-top:1rem;color:#b91c1c;font-size:.9rem}
</style>
</head>
<body>
<div class="card">
<h1>{{.Title}}</h1>
<p class="brand">{{.Brand}}</p>
<form method="post" action="{{.Action}}">
<label for="password">Password</label>
<input type="password" id="password" name="password" autocomplete="current-password" autofocus required>
<button type="submit">View site</button>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
</form>
</div>
</body>
</html>
`))

type loginPage struct {
	Title   string
	Brand   string
	Action  string
	Error   string
	Palette template.CSS
}

// genericError is the single login failure message: absent site and
// wrong password are indistinguishable to the visitor.
const genericError = "Incorrect password. Please try again."

// paletteCSS turns validated brand tokens into CSS custom properties.
// Keys are emitted sorted so rendering is deterministic.
func paletteCSS(tokens map[string]string) template.CSS {
	if len(tokens) == 0 {
		return ""
	}
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "--%s:%s;", name, tokens[name])
	}
	return template.CSS(b.String())
}

// renderLogin writes the login form. cfg may be nil (unknown site): the
// page then carries placeholder branding, identical in shape to a real
// site's page.
func (h *Handler) renderLogin(w http.ResponseWriter, status int, cfg *site.Config, brand, name, errMsg string) {
	page := loginPage{
		Title:  "Protected site",
		Brand:  brand,
		Action: "/" + name + "/",
		Error:  errMsg,
	}
	if cfg != nil {
		if cfg.Title != "" {
			page.Title = cfg.Title
		}
		page.Palette = paletteCSS(cfg.BrandTokens)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = loginTmpl.Execute(w, page)
}
