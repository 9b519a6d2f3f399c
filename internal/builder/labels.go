package builder

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/basepath"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/page"
	"git.home.luguber.info/inful/sitebuilder/internal/pageindex"
)

// labelIndexThreshold is the minimum number of pages sharing a label before
// it earns its own index page. Singly-used labels stay in the cloud only.
const labelIndexThreshold = 2

var labelTitleCaser = cases.Title(language.English)

// collectSiteLabels gathers every label used anywhere, independent of the
// index-page threshold, for the site-wide label cloud.
func collectSiteLabels(metas []page.Metadata) []string {
	seen := map[string]struct{}{}
	for _, m := range metas {
		for _, l := range m.Labels {
			seen[l] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func (b *Builder) labelCloudHTML(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	var out strings.Builder
	out.WriteString(`<div class="label-cloud">`)
	for _, l := range labels {
		fmt.Fprintf(&out, `<a class="label-badge" href="/label/%s/">%s</a>`, pageindex.LabelSlug(l), l)
	}
	out.WriteString(`</div>`)
	return out.String()
}

// writePageIndex emits fragments/page-index.json: always, even for an empty
// site, in input order.
func (b *Builder) writePageIndex(sources []pageindex.Source) error {
	entries := pageindex.Generate(sources)
	if entries == nil {
		entries = []pageindex.Entry{}
	}
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal page index: %w", err)
	}
	return writeFile(filepath.Join(b.cfg.OutputDir, "fragments", "page-index.json"), payload)
}

// writeLabelIndexes emits one label/{slug}/index.html per label carried by
// two or more pages.
func (b *Builder) writeLabelIndexes(metas []page.Metadata, navigation, labelCloud string) error {
	byLabel := map[string][]page.Metadata{}
	for _, m := range metas {
		for _, l := range m.Labels {
			byLabel[l] = append(byLabel[l], m)
		}
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	slugOwners := map[string]string{}
	for _, label := range labels {
		members := byLabel[label]
		if len(members) < labelIndexThreshold {
			continue
		}
		slug := pageindex.LabelSlug(label)
		if owner, taken := slugOwners[slug]; taken {
			// Distinct labels can normalize to the same slug; intended
			// behavior is undocumented upstream, so surface it loudly.
			slog.Warn("Label slug collision, page will be overwritten",
				logfields.Label(label), logfields.Name(owner), logfields.Slug(slug))
		}
		slugOwners[slug] = label

		ctx := b.labelPageContext(label, members, navigation, labelCloud)
		rendered := b.templates.Render("label", ctx)
		rendered = basepath.Rewrite(rendered, b.cfg.BasePath)

		outPath := filepath.Join(b.cfg.OutputDir, "label", slug, "index.html")
		if err := writeFile(outPath, []byte(rendered)); err != nil {
			return err
		}
		slog.Debug("Generated label index", logfields.Label(label), logfields.Count(len(members)))
	}
	return nil
}

func (b *Builder) labelPageContext(label string, members []page.Metadata, navigation, labelCloud string) map[string]string {
	var listing strings.Builder
	listing.WriteString(`<div class="label-pages">`)
	for _, m := range members {
		fmt.Fprintf(&listing, `<div class="child-card"><h3><a href="%s">%s</a></h3><p>%s</p></div>`,
			pageURL(m), m.Title, m.Description)
	}
	listing.WriteString(`</div>`)

	title := labelTitleCaser.String(label)
	return map[string]string{
		"title":            title,
		"content":          fmt.Sprintf(`<h1>%s</h1>%s`, title, listing.String()),
		"description":      fmt.Sprintf("Pages labeled %s", label),
		"label":            label,
		"navigation":       navigation,
		"label-cloud":      labelCloud,
		"site-title":       b.cfg.Site.Title,
		"site-url":         b.cfg.Site.URL,
		"site-description": b.cfg.Site.Description,
	}
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}

func labelBadgesHTML(labels []string) string {
	var out strings.Builder
	for _, l := range labels {
		out.WriteString(`<span class="label-badge">`)
		out.WriteString(l)
		out.WriteString(`</span>`)
	}
	return out.String()
}

func lowerKey(k string) string { return strings.ToLower(strings.TrimSpace(k)) }
