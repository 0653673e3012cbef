package cache

import "strings"

// Key is the comparable lookup key for a resolved ConfigResult: Go's
// native struct equality stands in for an explicit content hash, since
// Application/Profiles/Label already uniquely determine a result and a
// comparable struct works directly as both a map key and an LRU key
// without a hashing step.
type Key struct {
	Application string
	Profiles    string // profiles joined with "," in request order
	Label       string
}

// NewKey builds a Key from the query coordinates.
func NewKey(application string, profiles []string, label string) Key {
	return Key{
		Application: application,
		Profiles:    strings.Join(profiles, ","),
		Label:       label,
	}
}

// String renders a Key as the flat token used for the Redis L2 tier and
// for log fields.
func (k Key) String() string {
	return "cfg:" + k.Application + ":" + k.Profiles + ":" + k.Label
}

// ParseKey reverses String for the subset of keys this package produces,
// used by L2 invalidation scans to recover the coordinates to match
// against an InvalidateSelector.
func ParseKey(s string) (Key, bool) {
	const prefix = "cfg:"
	if !strings.HasPrefix(s, prefix) {
		return Key{}, false
	}

	parts := strings.SplitN(strings.TrimPrefix(s, prefix), ":", 3)
	if len(parts) != 3 {
		return Key{}, false
	}

	return Key{Application: parts[0], Profiles: parts[1], Label: parts[2]}, true
}

// ProfileList splits the joined Profiles field back into its parts,
// reporting zero profiles (not one empty-string profile) for "".
func (k Key) ProfileList() []string {
	if k.Profiles == "" {
		return nil
	}

	return strings.Split(k.Profiles, ",")
}
