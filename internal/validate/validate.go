// Package validate contains input validation for everything that crosses
// the trust boundary: brand/site slugs, file paths headed for the object
// store, CSS color tokens destined for generated login pages, and
// client-supplied base64 payloads.
package validate

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxSlugLen = 63
	maxPathLen = 512
)

// slugRe enforces DNS-label shape: lowercase alphanumerics with interior
// hyphens only.
var slugRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Slug validates a brand or site name. Returns nil on success, otherwise
// an error whose message names the field and the specific rule violated.
func Slug(value, field string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(value) > maxSlugLen {
		return fmt.Errorf("%s too long (max %d characters)", field, maxSlugLen)
	}
	if strings.ToLower(value) != value {
		return fmt.Errorf("%s must be lowercase", field)
	}
	if strings.HasPrefix(value, "-") || strings.HasSuffix(value, "-") {
		return fmt.Errorf("%s must not start or end with a hyphen", field)
	}
	if strings.ContainsAny(value, " \t\n") {
		return fmt.Errorf("%s must not contain whitespace", field)
	}
	if strings.Contains(value, "_") {
		return fmt.Errorf("%s must use hyphens, not underscores", field)
	}
	if !slugRe.MatchString(value) {
		return fmt.Errorf("%s may only contain lowercase letters, digits, and hyphens", field)
	}
	return nil
}

// FilePath sanitizes a site-relative file path. Any number of leading
// slashes is stripped; traversal segments, null/control bytes, and
// backslashes are rejected. Returns the cleaned relative path, or an
// error naming the specific violation. This is the only defense between
// client-supplied paths and the object store's shared namespace.
func FilePath(p string) (string, error) {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", fmt.Errorf("file path is empty")
	}
	if len(p) > maxPathLen {
		return "", fmt.Errorf("file path too long (max %d characters)", maxPathLen)
	}
	if strings.Contains(p, "\x00") {
		return "", fmt.Errorf("file path contains a null byte")
	}
	if strings.Contains(p, "\\") {
		return "", fmt.Errorf("file path contains a backslash")
	}
	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("file path contains a control character")
		}
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("file path contains a traversal segment")
		}
	}
	return p, nil
}

// cssColorRe accepts exactly #RGB, #RRGGBB, and #RRGGBBAA hex forms.
// Named colors and functional notations would open a CSS injection hole
// on the login page, so nothing else passes.
var cssColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// CSSColor reports whether v is a safe hex color literal.
func CSSColor(v string) bool {
	return cssColorRe.MatchString(v)
}

// cssTokenNameRe constrains brand token names to safe CSS custom
// property suffixes. Names are interpolated into the login page's
// inline <style> block, so the grammar is as tight as the values'.
var cssTokenNameRe = regexp.MustCompile(`^[a-z][a-z0-9]*(?:-[a-z0-9]+)*$`)

const maxTokenNameLen = 64

// BrandTokens validates every token in the map, returning an error that
// names the first offending token, or nil if all names are safe CSS
// identifiers and all values are safe hex colors.
func BrandTokens(tokens map[string]string) error {
	for name, v := range tokens {
		if len(name) > maxTokenNameLen || !cssTokenNameRe.MatchString(name) {
			return fmt.Errorf("brand token name %q is not a valid CSS identifier", name)
		}
		if !CSSColor(v) {
			return fmt.Errorf("brand token %q is not a valid hex color", name)
		}
	}
	return nil
}

// DecodeBase64 decodes client-supplied base64 defensively: it returns
// (nil, false) on malformed input instead of an error so callers can fold
// the failure into field-level validation. Accepts standard encoding
// with or without padding.
func DecodeBase64(s string) ([]byte, bool) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	return nil, false
}
