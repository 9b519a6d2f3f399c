package builder

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// OutputPath computes where a page is written under the output directory.
//
// The short URI, not the source file's location, determines the path: every
// page publishes as {slug}/index.html, giving a flat URL namespace where a
// deeply nested source file can live at a shallow URL. The one exception is
// the content-root index.md, which is always the site root index.html.
func OutputPath(m page.Metadata) string {
	if page.IsContentRoot(m.SourcePath) {
		return "index.html"
	}
	slug := m.ShortURI
	if slug == "" {
		slug = page.DeriveSlug(m.SourcePath)
	}
	return filepath.Join(slug, "index.html")
}

// pageURL computes a page's site-relative clean URL (no base path).
func pageURL(m page.Metadata) string {
	if page.IsContentRoot(m.SourcePath) {
		return "/"
	}
	slug := m.ShortURI
	if slug == "" {
		slug = page.DeriveSlug(m.SourcePath)
	}
	return "/" + slug + "/"
}
