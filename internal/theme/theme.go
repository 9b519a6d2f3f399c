// Package theme loads page templates and renders page contexts into full
// HTML documents.
//
// Templates are plain HTML files carrying `{{tag}}` placeholders and
// `{{#if tag}}...{{/if tag}}` conditionals. This is deliberately a closed
// substitution surface, not a general template language.
package theme

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/components"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultTemplate is the template name every unknown name falls back to.
const DefaultTemplate = "default"

// builtinDefault keeps a site renderable before any theme files exist.
const builtinDefault = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{title}}</title>
{{#if description}}<meta name="description" content="{{description}}">{{/if description}}
</head>
<body>
<nav>{{navigation}}</nav>
<main>{{content}}</main>
</body>
</html>
`

// Registry holds every loaded template for one build.
type Registry struct {
	templates map[string]string
	registry  components.Registry
}

// Load reads all *.html templates from templatesDir, then overlays same-named
// templates from templatesDir/<theme> when a non-default theme is configured.
// A missing templates directory is not an error; the builtin default covers it.
func Load(templatesDir, themeName string, registry components.Registry) (*Registry, error) {
	if registry == nil {
		registry = components.Noop{}
	}
	r := &Registry{templates: map[string]string{}, registry: registry}

	if templatesDir == "" {
		return r, nil
	}
	if err := r.loadDir(templatesDir); err != nil {
		return nil, err
	}
	if themeName != "" && themeName != DefaultTemplate {
		overlay := filepath.Join(templatesDir, themeName)
		if _, err := os.Stat(overlay); err == nil {
			if err := r.loadDir(overlay); err != nil {
				return nil, err
			}
			slog.Debug("Applied theme overlay", logfields.Theme(themeName))
		} else {
			slog.Warn("Theme overlay directory not found, using base templates", logfields.Theme(themeName))
		}
	}
	return r, nil
}

func (r *Registry) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read templates directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path) // #nosec G304 -- template paths come from the configured theme dir
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}
		name := strings.TrimSuffix(entry.Name(), ".html")
		r.templates[name] = string(raw)
	}
	return nil
}

// Has reports whether a template with the given name was loaded.
func (r *Registry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render substitutes a page context into the named template. Unknown template
// names fall back to "default" rather than failing the build.
func (r *Registry) Render(name string, ctx map[string]string) string {
	tpl, ok := r.templates[name]
	if !ok {
		if name != DefaultTemplate {
			slog.Debug("Unknown template, falling back to default", logfields.Template(name))
		}
		if tpl, ok = r.templates[DefaultTemplate]; !ok {
			tpl = builtinDefault
		}
	}
	return r.substitute(tpl, ctx)
}

var (
	conditionalRe = regexp.MustCompile(`(?s)\{\{#if ([a-zA-Z0-9_-]+)\}\}(.*?)\{\{/if ([a-zA-Z0-9_-]+)\}\}`)
	tagRe         = regexp.MustCompile(`\{\{([a-zA-Z0-9_-]+)\}\}`)
)

func (r *Registry) substitute(tpl string, ctx map[string]string) string {
	// Conditionals first: a field is truthy when present and non-empty.
	tpl = conditionalRe.ReplaceAllStringFunc(tpl, func(match string) string {
		groups := conditionalRe.FindStringSubmatch(match)
		tag, inner, closer := groups[1], groups[2], groups[3]
		if tag != closer {
			// Mismatched close tag: leave the block visible for the author.
			return match
		}
		if ctx[tag] != "" {
			return inner
		}
		return ""
	})

	return tagRe.ReplaceAllStringFunc(tpl, func(match string) string {
		tag := tagRe.FindStringSubmatch(match)[1]
		if value, ok := ctx[tag]; ok {
			return value
		}
		if r.registry.HasTag(tag) {
			html, err := r.registry.Render(tag, nil)
			if err == nil {
				return html
			}
			slog.Warn("Component render failed in template", logfields.Name(tag), logfields.Error(err))
		}
		// Templates are site-owned: unknown tags render empty, unlike author
		// Markdown where they stay literal.
		return ""
	})
}
