// Package markdown compiles page bodies to HTML fragments.
//
// The compiler handles two authoring surfaces beyond plain Markdown: raw
// `:::html ... :::` blocks, which are emitted verbatim, and `{{tag}}`
// component placeholders, resolved through the external component registry.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/components"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Options controls per-compiler behavior.
type Options struct {
	// Sanitize passes compiled Markdown fragments through a bluemonday UGC
	// policy. Raw :::html blocks are site-owned and always exempt.
	Sanitize bool
}

// Compiler renders Markdown bodies to HTML.
type Compiler struct {
	md       goldmark.Markdown
	policy   *bluemonday.Policy
	registry components.Registry
	opts     Options
}

// New builds a Compiler bound to a component registry. A nil registry
// disables component expansion.
func New(registry components.Registry, opts Options) *Compiler {
	if registry == nil {
		registry = components.Noop{}
	}
	policy := bluemonday.UGCPolicy()
	// Component and directive markup relies on classes for styling.
	policy.AllowAttrs("class").Globally()

	return &Compiler{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy:   policy,
		registry: registry,
		opts:     opts,
	}
}

var rawBlockRe = regexp.MustCompile(`(?s):::html\s*(.*?)\s*:::`)

// Compile renders a Markdown body (frontmatter already removed) to HTML.
func (c *Compiler) Compile(body []byte) (string, error) {
	var out strings.Builder

	source := string(body)
	cursor := 0
	for _, loc := range rawBlockRe.FindAllStringSubmatchIndex(source, -1) {
		before := source[cursor:loc[0]]
		if err := c.renderMarkdown(&out, before); err != nil {
			return "", err
		}
		// Raw block content is emitted verbatim, never sanitized.
		out.WriteString(source[loc[2]:loc[3]])
		out.WriteString("\n")
		cursor = loc[1]
	}
	if err := c.renderMarkdown(&out, source[cursor:]); err != nil {
		return "", err
	}

	return out.String(), nil
}

func (c *Compiler) renderMarkdown(out *strings.Builder, segment string) error {
	if strings.TrimSpace(segment) == "" {
		return nil
	}
	segment = c.expandComponents(segment)

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(segment), &buf); err != nil {
		return fmt.Errorf("markdown conversion failed: %w", err)
	}
	if c.opts.Sanitize {
		out.Write(c.policy.SanitizeBytes(buf.Bytes()))
		return nil
	}
	out.Write(buf.Bytes())
	return nil
}

var componentTagRe = regexp.MustCompile(`\{\{([a-zA-Z][a-zA-Z0-9_-]*)((?:\s+[^}]*)?)\}\}`)

// expandComponents replaces recognized {{tag}} placeholders with registry
// output. Unknown tags and render failures keep the literal text so the
// rendered page shows a visible author-facing signal instead of silently
// dropping content.
func (c *Compiler) expandComponents(segment string) string {
	return componentTagRe.ReplaceAllStringFunc(segment, func(match string) string {
		groups := componentTagRe.FindStringSubmatch(match)
		tag := groups[1]
		if !c.registry.HasTag(tag) {
			return match
		}
		html, err := c.registry.Render(tag, ParseProps(groups[2]))
		if err != nil {
			slog.Warn("Component render failed, leaving tag literal",
				logfields.Name(tag), logfields.Error(err))
			return match
		}
		return html
	})
}

var propRe = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9_-]*)\s*=\s*(?:"([^"]*)"|(\S+))`)

// ParseProps parses `key="value"` pairs from a component tag's attribute
// text. Unquoted single-token values are accepted.
func ParseProps(attrs string) map[string]string {
	props := map[string]string{}
	for _, m := range propRe.FindAllStringSubmatch(attrs, -1) {
		value := m[2]
		if value == "" && m[3] != "" {
			value = m[3]
		}
		props[m[1]] = value
	}
	return props
}
