package builder

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
	"git.home.luguber.info/inful/sitebuilder/internal/pageindex"
)

// writeSEO emits robots.txt, sitemap.xml, and llms.txt. All three are gated
// on a configured site URL; without one they are silently skipped.
func (b *Builder) writeSEO(metas []page.Metadata) error {
	siteURL := strings.TrimRight(b.cfg.Site.URL, "/")
	if siteURL == "" {
		return nil
	}

	if err := writeFile(filepath.Join(b.cfg.OutputDir, "robots.txt"), []byte(b.robotsTxt(siteURL))); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(b.cfg.OutputDir, "sitemap.xml"), []byte(b.sitemapXML(siteURL, metas))); err != nil {
		return err
	}
	return writeFile(filepath.Join(b.cfg.OutputDir, "llms.txt"), []byte(b.llmsTxt(siteURL, metas)))
}

func (b *Builder) robotsTxt(siteURL string) string {
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", siteURL)
}

func (b *Builder) sitemapXML(siteURL string, metas []page.Metadata) string {
	var urls []string
	for _, m := range metas {
		entry := fmt.Sprintf("  <url>\n    <loc>%s%s</loc>", siteURL, pageURL(m))
		if m.Date != nil {
			entry += fmt.Sprintf("\n    <lastmod>%s</lastmod>", m.Date.Format("2006-01-02"))
		}
		entry += "\n  </url>"
		urls = append(urls, entry)
	}
	for _, slug := range qualifyingLabelSlugs(metas) {
		urls = append(urls, fmt.Sprintf("  <url>\n    <loc>%s/label/%s/</loc>\n  </url>", siteURL, slug))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
%s
</urlset>
`, strings.Join(urls, "\n"))
}

// llmsTxt renders the site outline in the llms.txt convention: a heading,
// a blockquote summary, and one link per page.
func (b *Builder) llmsTxt(siteURL string, metas []page.Metadata) string {
	var out strings.Builder
	title := b.cfg.Site.Title
	if title == "" {
		title = siteURL
	}
	fmt.Fprintf(&out, "# %s\n\n", title)
	if b.cfg.Site.Description != "" {
		fmt.Fprintf(&out, "> %s\n\n", b.cfg.Site.Description)
	}
	fmt.Fprintf(&out, "Generated %s\n\n## Pages\n\n", time.Now().Format("2006-01-02"))
	for _, m := range metas {
		line := fmt.Sprintf("- [%s](%s%s)", m.Title, siteURL, pageURL(m))
		if m.Description != "" {
			line += ": " + m.Description
		}
		out.WriteString(line + "\n")
	}
	return out.String()
}

// qualifyingLabelSlugs returns the sorted, deduplicated slugs of labels that
// earn an index page.
func qualifyingLabelSlugs(metas []page.Metadata) []string {
	counts := map[string]int{}
	for _, m := range metas {
		for _, l := range m.Labels {
			counts[l]++
		}
	}
	seen := map[string]struct{}{}
	var slugs []string
	for label, n := range counts {
		if n < labelIndexThreshold {
			continue
		}
		slug := pageindex.LabelSlug(label)
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
