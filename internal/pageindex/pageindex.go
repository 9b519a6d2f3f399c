// Package pageindex produces the machine-readable page manifest consumed by
// label pages and client-side routing, plus the label slug rules.
package pageindex

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Entry is the externally published shape of one page. Date is ISO
// YYYY-MM-DD or null.
type Entry struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	Category    string   `json:"category"`
	Date        *string  `json:"date"`
	Type        string   `json:"type"`
}

// Source pairs page metadata with its computed public URL.
type Source struct {
	Meta page.Metadata
	URL  string
}

// Generate maps every page to its index entry, preserving input order.
func Generate(pages []Source) []Entry {
	entries := make([]Entry, 0, len(pages))
	for _, p := range pages {
		labels := p.Meta.Labels
		if labels == nil {
			labels = []string{}
		}
		var date *string
		if p.Meta.Date != nil {
			iso := p.Meta.Date.Format("2006-01-02")
			date = &iso
		}
		entries = append(entries, Entry{
			URL:         p.URL,
			Title:       p.Meta.Title,
			Description: p.Meta.Description,
			Labels:      labels,
			Category:    p.Meta.Category,
			Date:        date,
			Type:        p.Meta.Type,
		})
	}
	return entries
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// LabelSlug normalizes a label name into a URL slug: lowercase, trimmed, any
// run of non-alphanumeric characters collapsed to a single hyphen, leading
// and trailing hyphens stripped.
//
// Distinct labels can collide on the same slug (e.g. "C++" and "C"); the
// builder logs collisions but does not reject them.
func LabelSlug(label string) string {
	slug := strings.ToLower(strings.TrimSpace(label))
	slug = nonAlnumRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
