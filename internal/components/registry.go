// Package components defines the contract to the external component-tag
// collaborator. Tag discovery and scanning live outside this repository; the
// build pipeline only needs a synchronous lookup-and-render surface.
package components

// Registry resolves component tags found in Markdown content and theme
// templates.
type Registry interface {
	// HasTag reports whether the registry can render the named tag.
	HasTag(tag string) bool
	// Render produces the HTML for a tag. Errors are author-facing: callers
	// leave the original tag text in place rather than dropping it.
	Render(tag string, props map[string]string) (string, error)
}

// MapRegistry is a map-backed Registry for configuration-driven components
// and tests.
type MapRegistry map[string]func(props map[string]string) (string, error)

func (m MapRegistry) HasTag(tag string) bool { _, ok := m[tag]; return ok }

func (m MapRegistry) Render(tag string, props map[string]string) (string, error) {
	return m[tag](props)
}

// Noop is the registry used when no component collaborator is wired; every
// tag passes through as literal text.
type Noop struct{}

func (Noop) HasTag(string) bool { return false }

func (Noop) Render(string, map[string]string) (string, error) { return "", nil }
