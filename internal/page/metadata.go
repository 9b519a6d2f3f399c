// Package page turns raw frontmatter into typed, defaulted page metadata.
//
// Frontmatter keys are matched case-insensitively, so `Short-URI`, `short-uri`
// and `SHORT-URI` all address the same field. Unknown keys are preserved in
// Extra for templates and component props.
package page

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// RootParent is the sentinel parent value that attaches a page directly to
// the site root. An empty parent marks the site root itself.
const RootParent = "root"

// Page type values. Anything else authored in frontmatter is kept verbatim;
// only `product` changes builder behavior (commerce fields, product index).
const (
	TypePage    = "page"
	TypePost    = "post"
	TypeProduct = "product"
	TypeSection = "section"
	TypeIndex   = "index"
)

const (
	defaultOrder    = 999
	defaultTemplate = "default"
)

// ErrMetadata indicates the frontmatter of a file could not be parsed into
// metadata. Callers fall back to filename-derived metadata rather than
// aborting the build.
var ErrMetadata = errors.New("page metadata parse failed")

// Metadata is the normalized, semantically typed view of one page.
type Metadata struct {
	ShortURI    string
	Title       string
	Parent      string // "" = site root, RootParent = child of the root
	Order       int
	Type        string
	Category    string
	Labels      []string
	Keywords    []string
	Author      string
	Date        *time.Time
	Description string
	Template    string

	// Commerce fields, meaningful only on product pages.
	PriceCents        int
	Currency          string
	StripePriceID     string
	StripePaymentLink string
	Image             string

	// Extra carries the raw frontmatter mapping, case preserved as authored,
	// for component data and template passthrough.
	Extra map[string]any

	// SourcePath is the file's path relative to the content root.
	SourcePath string
}

// IsRoot reports whether this page is the site root.
func (m Metadata) IsRoot() bool { return m.Parent == "" }

// FromFile parses a raw Markdown file into Metadata. The body is returned so
// callers do not split the file twice.
func FromFile(raw []byte, relPath string) (Metadata, []byte, error) {
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("%w: %s: %w", ErrMetadata, relPath, err)
	}
	return Normalize(doc.Data, relPath), doc.Content, nil
}

// Normalize builds Metadata from parsed frontmatter, applying defaults and
// deriving the short URI from the file path when absent.
func Normalize(data map[string]any, relPath string) Metadata {
	lookup := foldKeys(data)

	m := Metadata{
		ShortURI:          stringField(lookup, "short-uri"),
		Title:             stringField(lookup, "title"),
		Parent:            normalizeParent(stringField(lookup, "parent"), relPath),
		Order:             intField(lookup, "order", defaultOrder),
		Type:              stringField(lookup, "type"),
		Category:          stringField(lookup, "category"),
		Labels:            listField(lookup, "labels"),
		Keywords:          listField(lookup, "keywords"),
		Author:            stringField(lookup, "author"),
		Date:              dateField(lookup, "date"),
		Description:       stringField(lookup, "description"),
		Template:          stringField(lookup, "template"),
		PriceCents:        intField(lookup, "price-cents", 0),
		Currency:          stringField(lookup, "currency"),
		StripePriceID:     stringField(lookup, "stripe-price-id"),
		StripePaymentLink: stringField(lookup, "stripe-payment-link"),
		Image:             stringField(lookup, "image"),
		Extra:             data,
		SourcePath:        relPath,
	}

	if m.ShortURI == "" {
		m.ShortURI = DeriveSlug(relPath)
	}
	if m.Title == "" {
		m.Title = titleFromSlug(m.ShortURI)
	}
	if m.Type == "" {
		m.Type = TypePage
	}
	if m.Template == "" {
		m.Template = defaultTemplate
	}
	return m
}

// Fallback derives metadata purely from the file path. Used when frontmatter
// cannot be parsed so one bad page does not block the build; the page still
// gets a deterministic slug.
func Fallback(relPath string) Metadata {
	m := Normalize(map[string]any{}, relPath)
	// A fallback page must never compete for the root slot; it hangs off the
	// real root so the rest of the site still builds.
	if !IsContentRoot(relPath) {
		m.Parent = RootParent
	}
	return m
}

// DeriveSlug computes the default short URI for a source path: the filename
// stem, or the directory name for index files. The content-root index file
// maps to the empty slug (the site root).
func DeriveSlug(relPath string) string {
	rel := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if stem != "index" {
		return stem
	}
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return ""
	}
	return path.Base(dir)
}

// IsContentRoot reports whether relPath is the content-root index file, which
// is always published as the site root regardless of its short URI.
func IsContentRoot(relPath string) bool {
	return path.Clean(strings.ReplaceAll(relPath, "\\", "/")) == "index.md"
}

func normalizeParent(parent, relPath string) string {
	parent = strings.TrimSpace(parent)
	// The content-root index file is the site root whatever its frontmatter
	// claims; `Parent: root` there is a self-reference, not an attachment.
	if IsContentRoot(relPath) {
		return ""
	}
	if strings.EqualFold(parent, RootParent) {
		return RootParent
	}
	return parent
}

func titleFromSlug(slug string) string {
	if slug == "" {
		return "Home"
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func foldKeys(data map[string]any) map[string]any {
	folded := make(map[string]any, len(data))
	for k, v := range data {
		folded[strings.ToLower(k)] = v
	}
	return folded
}

func stringField(lookup map[string]any, key string) string {
	v, ok := lookup[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func intField(lookup map[string]any, key string, fallback int) int {
	v, ok := lookup[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}

// listField coerces a frontmatter value into a string slice. YAML sequences
// arrive as []any; authors also write comma-separated scalars.
func listField(lookup map[string]any, key string) []string {
	v, ok := lookup[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s := strings.TrimSpace(fmt.Sprintf("%v", item))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	case string:
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

func dateField(lookup map[string]any, key string) *time.Time {
	v, ok := lookup[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
