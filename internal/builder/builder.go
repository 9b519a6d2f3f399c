// Package builder orchestrates one full site build: scan, collect, per-page
// compile/render/write, then the derived artifacts (page index, label pages,
// product index, SEO files).
//
// A build is single-threaded and stateless across invocations; everything is
// derived fresh from the filesystem.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/basepath"
	"git.home.luguber.info/inful/sitebuilder/internal/children"
	"git.home.luguber.info/inful/sitebuilder/internal/components"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/hierarchy"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/htmltext"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
	"git.home.luguber.info/inful/sitebuilder/internal/pageindex"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

// Builder drives site builds for one configuration.
type Builder struct {
	cfg       config.Config
	registry  components.Registry
	compiler  *markdown.Compiler
	templates *theme.Registry
	publisher *events.Publisher
	store     *history.Store
}

// Option customizes a Builder.
type Option func(*Builder)

// WithRegistry wires the external component registry.
func WithRegistry(r components.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

// WithPublisher wires optional NATS build-event publishing.
func WithPublisher(p *events.Publisher) Option {
	return func(b *Builder) { b.publisher = p }
}

// WithHistory wires the optional build-history store.
func WithHistory(s *history.Store) Option {
	return func(b *Builder) { b.store = s }
}

// New constructs a Builder, loading theme templates eagerly so template
// problems surface before any page is written.
func New(cfg config.Config, opts ...Option) (*Builder, error) {
	b := &Builder{cfg: cfg, registry: components.Noop{}}
	for _, opt := range opts {
		opt(b)
	}

	templates, err := theme.Load(cfg.TemplatesDir, cfg.Theme, b.registry)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	b.templates = templates
	b.compiler = markdown.New(b.registry, markdown.Options{Sanitize: cfg.Sanitize})
	return b, nil
}

// Result summarizes one completed build.
type Result struct {
	BuildID  string
	Pages    int
	Duration time.Duration
}

// sourcePage is one scanned file with its parsed metadata and Markdown body.
type sourcePage struct {
	file ContentFile
	meta page.Metadata
	body []byte
}

// Build runs the whole pipeline. Hierarchy violations and malformed
// directives abort; per-file metadata failures fall back and continue.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	buildID := uuid.NewString()
	slog.Info("Starting build", logfields.BuildID(buildID), logfields.Path(b.cfg.ContentDir))

	result, err := b.run(ctx, buildID, start)
	if err != nil {
		metrics.RecordFailure()
		b.report(buildID, "failed", 0, start)
		return nil, err
	}
	metrics.RecordBuild(result.Pages, result.Duration.Seconds())
	b.report(buildID, "completed", result.Pages, start)
	slog.Info("Build finished",
		logfields.BuildID(buildID),
		logfields.Count(result.Pages),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

func (b *Builder) run(ctx context.Context, buildID string, start time.Time) (*Result, error) {
	files, assets, err := Scan(b.cfg.ContentDir)
	if err != nil {
		return nil, err
	}

	pages, err := b.loadPages(files)
	if err != nil {
		return nil, err
	}

	metas := make([]page.Metadata, len(pages))
	for i, p := range pages {
		metas[i] = p.meta
	}

	if len(pages) == 0 {
		// An empty content directory is a valid site: the page index and
		// manifest are still written so consumers see a consistent contract.
		slog.Warn("No content pages found", logfields.Path(b.cfg.ContentDir))
		if err := b.copyAssets(assets); err != nil {
			return nil, err
		}
		if err := b.writePageIndex(nil); err != nil {
			return nil, err
		}
		if err := b.writeManifest(buildID, start, 0); err != nil {
			return nil, err
		}
		return &Result{BuildID: buildID, Duration: time.Since(start)}, nil
	}

	tree, err := hierarchy.Build(metas)
	if err != nil {
		return nil, fmt.Errorf("page hierarchy: %w", err)
	}

	childrenMap := buildChildrenMap(tree)
	navigation := b.navigationHTML(metas)
	labelCloud := b.labelCloudHTML(collectSiteLabels(metas))

	var indexSources []pageindex.Source
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		url := pageURL(p.meta)
		if err := b.renderPage(p, tree, childrenMap, navigation, labelCloud); err != nil {
			return nil, err
		}
		indexSources = append(indexSources, pageindex.Source{Meta: p.meta, URL: b.publicURL(url)})
	}

	if err := b.copyAssets(assets); err != nil {
		return nil, err
	}
	if err := b.writePageIndex(indexSources); err != nil {
		return nil, err
	}
	if err := b.writeLabelIndexes(metas, navigation, labelCloud); err != nil {
		return nil, err
	}
	if err := b.writeProductIndex(metas); err != nil {
		return nil, err
	}
	if err := b.writeSEO(metas); err != nil {
		return nil, err
	}
	if err := b.writeManifest(buildID, start, len(pages)); err != nil {
		return nil, err
	}

	return &Result{BuildID: buildID, Pages: len(pages), Duration: time.Since(start)}, nil
}

// loadPages reads and normalizes every scanned file. Metadata failures are
// recoverable: the page falls back to filename-derived metadata so one bad
// header does not block the site, and its URL stays deterministic.
func (b *Builder) loadPages(files []ContentFile) ([]sourcePage, error) {
	pages := make([]sourcePage, 0, len(files))
	for _, f := range files {
		raw, err := os.ReadFile(f.Path) // #nosec G304 -- paths come from the content scan
		if err != nil {
			return nil, fmt.Errorf("read content file %s: %w", f.RelativePath, err)
		}
		meta, body, err := page.FromFile(raw, f.RelativePath)
		if err != nil {
			slog.Warn("Metadata parse failed, deriving from file path",
				logfields.File(f.RelativePath), logfields.Error(err))
			meta = page.Fallback(f.RelativePath)
			body = raw
		}
		pages = append(pages, sourcePage{file: f, meta: meta, body: body})
	}
	return pages, nil
}

func (b *Builder) renderPage(p sourcePage, tree *hierarchy.Tree, childrenMap map[string][]children.ChildPage, navigation, labelCloud string) error {
	source, err := children.Resolve(string(p.body), childrenMap[p.meta.ShortURI])
	if err != nil {
		return fmt.Errorf("page %s: %w", p.meta.ShortURI, err)
	}

	content, err := b.compiler.Compile([]byte(source))
	if err != nil {
		return fmt.Errorf("compile %s: %w", p.file.RelativePath, err)
	}

	pageCtx := b.templateContext(p.meta, content, navigation, labelCloud)
	pageCtx["breadcrumbs"] = b.breadcrumbHTML(tree, p.meta.ShortURI)

	rendered := b.templates.Render(p.meta.Template, pageCtx)
	rendered = basepath.Rewrite(rendered, b.cfg.BasePath)

	outPath := filepath.Join(b.cfg.OutputDir, OutputPath(p.meta))
	if err := writeFile(outPath, []byte(rendered)); err != nil {
		return err
	}
	slog.Debug("Rendered page",
		logfields.Page(p.meta.ShortURI),
		logfields.Template(p.meta.Template),
		logfields.Path(outPath))
	return nil
}

// templateContext assembles the value set a template may reference for one
// page. Extra frontmatter fields pass through under their lowercased key
// unless they would shadow a computed field.
func (b *Builder) templateContext(m page.Metadata, content, navigation, labelCloud string) map[string]string {
	ctx := map[string]string{}
	for k, v := range m.Extra {
		key := lowerKey(k)
		if v == nil {
			continue
		}
		ctx[key] = fmt.Sprintf("%v", v)
	}

	date, dateISO := "", ""
	if m.Date != nil {
		date = m.Date.Format("Jan 2, 2006")
		dateISO = m.Date.Format("2006-01-02")
	}
	description := m.Description
	if description == "" {
		description = htmltext.Excerpt(content, 160)
	}

	ctx["title"] = m.Title
	ctx["content"] = content
	ctx["description"] = description
	ctx["author"] = m.Author
	ctx["date"] = date
	ctx["date-iso"] = dateISO
	ctx["category"] = m.Category
	ctx["type"] = m.Type
	ctx["short-uri"] = m.ShortURI
	ctx["url"] = b.publicURL(pageURL(m))
	ctx["labels"] = joinLabels(m.Labels)
	ctx["labels-badges"] = labelBadgesHTML(m.Labels)
	ctx["navigation"] = navigation
	ctx["label-cloud"] = labelCloud
	ctx["base-path"] = basepath.Normalize(b.cfg.BasePath)
	ctx["site-title"] = b.cfg.Site.Title
	ctx["site-url"] = b.cfg.Site.URL
	ctx["site-description"] = b.cfg.Site.Description
	return ctx
}

func (b *Builder) breadcrumbHTML(tree *hierarchy.Tree, shortURI string) string {
	crumbs, err := tree.Breadcrumbs(shortURI)
	if err != nil || len(crumbs) <= 1 {
		return ""
	}
	var out string
	for i, c := range crumbs {
		if i == len(crumbs)-1 {
			out += `<span>` + c.Title + `</span>`
			continue
		}
		node := tree.Find(c.ShortURI)
		out += fmt.Sprintf(`<a href="%s">%s</a> / `, pageURL(node.Metadata), c.Title)
	}
	return `<nav class="breadcrumbs">` + out + `</nav>`
}

// report records the build outcome in the optional history store and event
// publisher. Both are best effort.
func (b *Builder) report(buildID, status string, pages int, start time.Time) {
	duration := time.Since(start)
	if b.store != nil {
		err := b.store.Append(history.Record{
			BuildID:    buildID,
			Status:     status,
			Pages:      pages,
			DurationMS: duration.Milliseconds(),
			StartedAt:  start,
		})
		if err != nil {
			slog.Warn("Failed to record build history", logfields.Error(err))
		}
	}
	if b.publisher != nil {
		err := b.publisher.Publish(events.BuildEvent{
			BuildID:     buildID,
			Status:      status,
			Pages:       pages,
			DurationMS:  duration.Milliseconds(),
			CompletedAt: time.Now(),
		})
		if err != nil {
			slog.Warn("Failed to publish build event", logfields.Error(err))
		}
	}
}

// buildChildrenMap flattens each node's children into the render-ready shape
// consumed by the children directive engine. Built once, shared by every page.
func buildChildrenMap(tree *hierarchy.Tree) map[string][]children.ChildPage {
	out := map[string][]children.ChildPage{}
	for _, node := range tree.Flatten() {
		if len(node.Children) == 0 {
			continue
		}
		kids := make([]children.ChildPage, 0, len(node.Children))
		for _, c := range node.Children {
			kids = append(kids, children.ChildPage{
				ShortURI:          c.ShortURI,
				Title:             c.Title,
				URL:               pageURL(c.Metadata),
				Description:       c.Description,
				Category:          c.Category,
				Author:            c.Author,
				Type:              c.Type,
				Order:             c.Order,
				Labels:            c.Labels,
				Date:              c.Date,
				PriceCents:        c.PriceCents,
				Currency:          c.Currency,
				StripePriceID:     c.StripePriceID,
				StripePaymentLink: c.StripePaymentLink,
				Image:             c.Image,
			})
		}
		out[node.ShortURI] = kids
	}
	return out
}

// publicURL prefixes a site-relative URL with the configured base path for
// externally published artifacts (page index, product index).
func (b *Builder) publicURL(url string) string {
	return basepath.Normalize(b.cfg.BasePath) + url
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory for %s: %w", path, err)
	}
	// #nosec G306 -- generated site files are public content
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
