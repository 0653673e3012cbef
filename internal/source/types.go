// Package source defines the data model shared by every property source
// implementation — the Git-backed source, the caching decorator, and any
// future source — along with the five discriminable error kinds described
// in the configuration-pipeline design.
package source

import (
	"context"

	"github.com/cburgosro9303/vortex-config/internal/value"
)

// PropertySource is a named bag of properties. Name is an opaque
// provenance label such as "git:main:myapp-dev.yml"; the server never
// interprets it after construction.
type PropertySource struct {
	Name       string
	Properties *value.OrderedMap
}

// PropertySourceList is an ordered sequence of PropertySource in priority
// order, highest priority first. Order is a primary invariant: the first
// source containing a key wins for flat lookup.
type PropertySourceList []PropertySource

// ConfigQuery is the three-coordinate lookup Spring Cloud Config clients
// issue: application name, ordered profile list, and an optional label
// (branch/tag/commit).
type ConfigQuery struct {
	Application string
	Profiles    []string
	Label       string // empty means "use the source's default label"
}

// ConfigResult is what the source layer returns for a query.
type ConfigResult struct {
	Name            string
	Profiles        []string
	Label           string
	Version         string // repository-native identifier; empty if unknown
	PropertySources PropertySourceList
}

// HasVersion reports whether Version was resolved.
func (r ConfigResult) HasVersion() bool { return r.Version != "" }

// InvalidateSelector narrows a cache invalidation request to the
// application, application+profile, or application+profile+label
// granularity described in §6.
type InvalidateSelector struct {
	Application string // empty = match all
	Profile     string // empty = match all (ignored if Application is empty)
	Label       string // empty = match all (ignored if Profile is empty)
}

// Matches reports whether fp satisfies the selector using the
// prefix-match semantics from §4.5: an empty selector field matches
// anything, and a selector field is only examined once the field(s)
// before it in the triple are non-empty.
func (sel InvalidateSelector) Matches(application string, profiles []string, label string) bool {
	if sel.Application == "" {
		return true
	}

	if sel.Application != application {
		return false
	}

	if sel.Profile == "" {
		return true
	}

	if !containsProfile(profiles, sel.Profile) {
		return false
	}

	if sel.Label == "" {
		return true
	}

	return sel.Label == label
}

func containsProfile(profiles []string, p string) bool {
	for _, c := range profiles {
		if c == p {
			return true
		}
	}

	return false
}

// Source is the single capability required of any backing store: fetch a
// ConfigResult for a query, report the default label, and accept
// selective invalidation requests. The cache is a decorator implementing
// the same interface, and any future source (S3, SQL, ...) plugs into
// this boundary without exposing Git specifics to callers.
type Source interface {
	Fetch(ctx context.Context, query ConfigQuery) (ConfigResult, error)
	DefaultLabel() string
	Invalidate(sel InvalidateSelector)
}
