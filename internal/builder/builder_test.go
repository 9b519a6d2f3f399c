package builder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/hierarchy"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.ContentDir = filepath.Join(root, "content")
	cfg.OutputDir = filepath.Join(root, "dist")
	cfg.TemplatesDir = filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(cfg.ContentDir, 0o750))
	return cfg
}

func writePage(t *testing.T, cfg config.Config, rel, content string) {
	t.Helper()
	path := filepath.Join(cfg.ContentDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runBuild(t *testing.T, cfg config.Config) *Result {
	t.Helper()
	b, err := New(cfg)
	require.NoError(t, err)
	result, err := b.Build(context.Background())
	require.NoError(t, err)
	return result
}

func readOutput(t *testing.T, cfg config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, rel))
	require.NoError(t, err)
	return string(data)
}

func TestBuildEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", `---
Short-URI: home
Title: Home
Parent: root
---

# Welcome
`)
	writePage(t, cfg, "blog/index.md", `---
Title: Blog
Parent: root
Type: section
---

All posts.
`)
	writePage(t, cfg, "blog/post.md", `---
Short-URI: my-post
Title: My Post
Parent: blog
Date: 2024-03-01
Labels:
  - go
---

Post body.
`)

	result := runBuild(t, cfg)
	require.Equal(t, 3, result.Pages)
	require.NotEmpty(t, result.BuildID)

	// Output location is short-URI driven, not source-tree driven: the nested
	// post publishes at the site root under its own slug.
	require.Contains(t, readOutput(t, cfg, "index.html"), "Welcome")
	require.Contains(t, readOutput(t, cfg, "blog/index.html"), "All posts.")
	require.Contains(t, readOutput(t, cfg, "my-post/index.html"), "Post body.")
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "blog", "post", "index.html"))

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg, "fragments/page-index.json")), &entries))
	require.Len(t, entries, 3)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg, "fragments/build-manifest.json")), &manifest))
	require.Equal(t, result.BuildID, manifest["buildId"])
	require.EqualValues(t, 3, manifest["pageCount"])
}

func TestBuildEmptySite(t *testing.T) {
	cfg := testConfig(t)

	result := runBuild(t, cfg)
	require.Zero(t, result.Pages)

	require.JSONEq(t, "[]", readOutput(t, cfg, "fragments/page-index.json"))
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "index.html"))
	require.FileExists(t, filepath.Join(cfg.OutputDir, "fragments", "build-manifest.json"))
}

func TestBuildMetadataFallback(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")
	// Unclosed frontmatter block: the page must still publish, deriving its
	// identity from the file path.
	writePage(t, cfg, "broken.md", "---\nTitle: Broken\n\nNo closing fence.\n")

	result := runBuild(t, cfg)
	require.Equal(t, 2, result.Pages)

	out := readOutput(t, cfg, "broken/index.html")
	require.Contains(t, out, "No closing fence.")
}

func TestBuildHierarchyViolationAborts(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")
	writePage(t, cfg, "lost.md", "---\nShort-URI: lost\nTitle: Lost\nParent: nowhere\n---\n\nBody.\n")

	b, err := New(cfg)
	require.NoError(t, err)
	_, err = b.Build(context.Background())

	var orphaned *hierarchy.OrphanedPagesError
	require.ErrorAs(t, err, &orphaned)
	require.Len(t, orphaned.Orphans, 1)
	require.Equal(t, "lost", orphaned.Orphans[0].ShortURI)
}

func TestBuildBasePathRewriting(t *testing.T) {
	cfg := testConfig(t)
	cfg.BasePath = "/flint"
	writePage(t, cfg, "index.md", `---
Title: Home
---

[About](/about/) and [external](https://example.com/x).
`)
	writePage(t, cfg, "about.md", "---\nShort-URI: about\nTitle: About\nParent: root\n---\n\nAbout.\n")

	runBuild(t, cfg)

	out := readOutput(t, cfg, "index.html")
	require.Contains(t, out, `href="/flint/about/"`)
	require.Contains(t, out, `href="https://example.com/x"`)
	require.NotContains(t, out, "/flint/flint")

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg, "fragments/page-index.json")), &entries))
	for _, e := range entries {
		require.True(t, strings.HasPrefix(e["url"].(string), "/flint/"), "url %v", e["url"])
	}
}

func TestBuildLabelIndexThreshold(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")
	writePage(t, cfg, "a.md", "---\nShort-URI: a\nTitle: A\nParent: root\nLabels: [Go Lang, rare]\n---\n\nA.\n")
	writePage(t, cfg, "b.md", "---\nShort-URI: b\nTitle: B\nParent: root\nLabels: [Go Lang]\n---\n\nB.\n")

	runBuild(t, cfg)

	shared := readOutput(t, cfg, "label/go-lang/index.html")
	require.Contains(t, shared, `href="/a/"`)
	require.Contains(t, shared, `href="/b/"`)
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "label", "rare", "index.html"))
}

func TestBuildProductIndex(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")

	runBuild(t, cfg)
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "static", "products", "index.json"))

	writePage(t, cfg, "widget.md", `---
Short-URI: widget
Title: Widget
Parent: root
Type: product
Price-Cents: 1999
Currency: USD
Stripe-Price-ID: price_123
---

A widget.
`)

	runBuild(t, cfg)
	var products []map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg, "static/products/index.json")), &products))
	require.Len(t, products, 1)
	require.Equal(t, "/widget/", products[0]["url"])
	require.EqualValues(t, 1999, products[0]["priceCents"])
	require.Equal(t, "price_123", products[0]["stripePriceId"])
}

func TestBuildSEOGatedOnSiteURL(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")

	runBuild(t, cfg)
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "robots.txt"))
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "sitemap.xml"))
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "llms.txt"))

	cfg.Site.URL = "https://example.com/"
	cfg.Site.Title = "Example"
	runBuild(t, cfg)

	require.Contains(t, readOutput(t, cfg, "robots.txt"), "Sitemap: https://example.com/sitemap.xml")
	require.Contains(t, readOutput(t, cfg, "sitemap.xml"), "<loc>https://example.com/</loc>")
	require.Contains(t, readOutput(t, cfg, "llms.txt"), "# Example")
}

func TestBuildCopiesStaticAssets(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")
	writePage(t, cfg, "img/logo.svg", "<svg/>")

	runBuild(t, cfg)
	require.Equal(t, "<svg/>", readOutput(t, cfg, "img/logo.svg"))
}

func TestBuildChildrenDirective(t *testing.T) {
	cfg := testConfig(t)
	writePage(t, cfg, "index.md", `---
Title: Home
---

:::children sort=title
:::
`)
	writePage(t, cfg, "one.md", "---\nShort-URI: one\nTitle: Alpha\nParent: root\n---\n\nOne.\n")
	writePage(t, cfg, "two.md", "---\nShort-URI: two\nTitle: Beta\nParent: root\n---\n\nTwo.\n")

	runBuild(t, cfg)

	out := readOutput(t, cfg, "index.html")
	require.Contains(t, out, `href="/one/"`)
	require.Contains(t, out, `href="/two/"`)
	require.Less(t, strings.Index(out, "Alpha"), strings.Index(out, "Beta"))
	require.NotContains(t, out, ":::children")
}

func TestBuildCustomTemplate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.TemplatesDir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.TemplatesDir, "default.html"),
		[]byte("<title>{{title}} | {{site-title}}</title><main>{{content}}</main>{{unknown-tag}}"),
		0o644))
	cfg.Site.Title = "Mysite"
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")

	runBuild(t, cfg)

	out := readOutput(t, cfg, "index.html")
	require.Contains(t, out, "<title>Home | Mysite</title>")
	require.NotContains(t, out, "{{unknown-tag}}")
}

func TestOutputPathDeterminism(t *testing.T) {
	cfg := testConfig(t)
	// Same logical site, scrambled file layout: URLs must not move.
	writePage(t, cfg, "index.md", "---\nTitle: Home\n---\n\nRoot.\n")
	writePage(t, cfg, "deep/nested/dir/page.md", "---\nShort-URI: shallow\nTitle: Shallow\nParent: root\n---\n\nBody.\n")

	runBuild(t, cfg)
	require.FileExists(t, filepath.Join(cfg.OutputDir, "shallow", "index.html"))
	require.NoFileExists(t, filepath.Join(cfg.OutputDir, "deep"))
}
