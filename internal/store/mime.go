package store

import (
	"path"
	"strings"
)

// CacheControl is applied to every served site object.
const CacheControl = "public, max-age=3600"

// mimeTypes is the static extension table for served objects. Anything
// not listed is served as opaque bytes.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// MimeType resolves a content type from the file extension, defaulting
// to application/octet-stream for unknown or missing extensions.
func MimeType(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}
