// Package site defines the published-site configuration record and its
// external (secret-free) projection.
package site

import (
	"fmt"
	"time"
)

// Config is the durable record for one published site, stored as JSON in
// the config store under the key "{brand}/{name}". PasswordHash and
// HMACSecret never leave the server.
type Config struct {
	Brand        string            `json:"brand"`
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	PasswordHash string            `json:"password_hash"`
	HMACSecret   string            `json:"hmac_secret"`
	BrandTokens  map[string]string `json:"brand_tokens,omitempty"`
	Created      time.Time         `json:"created"`
}

// Key returns the config-store key for this site.
func (c *Config) Key() string { return Key(c.Brand, c.Name) }

// Key builds the config-store key for a (brand, name) pair.
func Key(brand, name string) string { return brand + "/" + name }

// FilePrefix returns the object-store prefix holding this site's files.
func (c *Config) FilePrefix() string { return c.Brand + "/" + c.Name + "/" }

// FileKey maps a sanitized relative path to its object-store key.
func (c *Config) FileKey(relPath string) string { return c.FilePrefix() + relPath }

// URL returns the public URL of the site for the given gateway domain.
func (c *Config) URL(gatewayDomain string) string {
	return fmt.Sprintf("https://%s.%s/%s/", c.Brand, gatewayDomain, c.Name)
}

// Info is the secret-free projection returned by the admin API.
type Info struct {
	Brand       string            `json:"brand"`
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	BrandTokens map[string]string `json:"brand_tokens,omitempty"`
	Created     time.Time         `json:"created"`
}

// Info projects the config for external consumption. The password hash
// and HMAC secret are deliberately absent.
func (c *Config) Info(gatewayDomain string) Info {
	return Info{
		Brand:       c.Brand,
		Name:        c.Name,
		Title:       c.Title,
		URL:         c.URL(gatewayDomain),
		BrandTokens: c.BrandTokens,
		Created:     c.Created,
	}
}

// AdminRecord is the stored identity for a registered admin principal,
// keyed by "_admin:{sha256(token)}". Only the token hash is ever
// persisted.
type AdminRecord struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// AdminKeyPrefix namespaces admin principal records in the config store.
const AdminKeyPrefix = "_admin:"

// AdminKey returns the config-store key for a token hash.
func AdminKey(tokenHash string) string { return AdminKeyPrefix + tokenHash }
