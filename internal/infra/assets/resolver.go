// Package assets maps logical asset names to loadable resource locators.
// The core only ever requests assets by logical name; it never constructs
// paths itself.
package assets

import (
	"fmt"
	"strings"
)

// Resolver resolves logical names against a manifest loaded from static
// configuration. The manifest is immutable for the session.
type Resolver struct {
	baseURL  string
	manifest map[string]string
}

// NewResolver creates a resolver over the given manifest. baseURL is
// prefixed to every relative locator.
func NewResolver(baseURL string, manifest map[string]string) *Resolver {
	m := make(map[string]string, len(manifest))
	for name, locator := range manifest {
		m[name] = locator
	}
	return &Resolver{baseURL: strings.TrimRight(baseURL, "/"), manifest: m}
}

// Resolve returns the locator for the logical name. Unknown names are an
// error: a missing asset is a configuration bug, not a runtime state.
func (r *Resolver) Resolve(name string) (string, error) {
	locator, ok := r.manifest[name]
	if !ok {
		return "", fmt.Errorf("asset %q not in manifest", name)
	}
	if strings.Contains(locator, "://") || r.baseURL == "" {
		return locator, nil
	}
	return r.baseURL + "/" + strings.TrimLeft(locator, "/"), nil
}

// Names returns all logical names in the manifest.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.manifest))
	for name := range r.manifest {
		names = append(names, name)
	}
	return names
}
