// Package springenv renders a resolved configuration as the Spring Cloud
// Config Environment JSON document: the wire contract every existing
// Spring Cloud Config client already knows how to parse.
package springenv

import (
	"github.com/cburgosro9303/vortex-config/internal/codec"
	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/internal/value"
)

// Environment is the server's in-memory view of the wire document; Encode
// renders it to JSON in the field order Spring Cloud Config clients
// expect.
type Environment struct {
	Name            string
	Profiles        []string
	Label           string // empty renders as JSON null
	Version         string // empty renders as JSON null
	PropertySources source.PropertySourceList
}

// FromResult builds an Environment from a resolved ConfigResult.
func FromResult(r source.ConfigResult) Environment {
	return Environment{
		Name:            r.Name,
		Profiles:        r.Profiles,
		Label:           r.Label,
		Version:         r.Version,
		PropertySources: r.PropertySources,
	}
}

// Encode renders the Environment as the Spring Cloud Config Environment
// JSON shape: {name, profiles[], label, version, state, propertySources:
// [{name, source:{dotted.key: scalar}}]}. Each source's properties are
// flattened to dotted keys, matching Environment.PropertySource.getSource()
// on the Java side.
func Encode(env Environment) ([]byte, error) {
	root := value.NewOrderedMap()
	root.Set("name", value.String(env.Name))

	profiles := make([]value.Value, len(env.Profiles))
	for i, p := range env.Profiles {
		profiles[i] = value.String(p)
	}

	root.Set("profiles", value.Array(profiles))

	if env.Label != "" {
		root.Set("label", value.String(env.Label))
	} else {
		root.Set("label", value.Null)
	}

	if env.Version != "" {
		root.Set("version", value.String(env.Version))
	} else {
		root.Set("version", value.Null)
	}

	root.Set("state", value.Null)

	sources := make([]value.Value, len(env.PropertySources))

	for i, ps := range env.PropertySources {
		flat := value.Flatten(value.Object(ps.Properties))

		entry := value.NewOrderedMap()
		entry.Set("name", value.String(ps.Name))
		entry.Set("source", value.Object(flat))

		sources[i] = value.Object(entry)
	}

	root.Set("propertySources", value.Array(sources))

	return codec.JSON{}.Emit(value.Object(root))
}
