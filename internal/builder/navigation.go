package builder

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

var navCollator = collate.New(language.Und)

// navigationHTML computes the top-level navigation: pages whose parent is
// root or absent, sorted by order then title. A configured navigation list
// overrides the computed one entirely.
func (b *Builder) navigationHTML(metas []page.Metadata) string {
	type navEntry struct {
		title string
		url   string
		order int
	}

	var entries []navEntry
	if len(b.cfg.Navigation) > 0 {
		for _, item := range b.cfg.Navigation {
			entries = append(entries, navEntry{title: item.Title, url: item.URL})
		}
	} else {
		for _, m := range metas {
			if m.Parent != "" && m.Parent != page.RootParent {
				continue
			}
			entries = append(entries, navEntry{title: m.Title, url: pageURL(m), order: m.Order})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].order != entries[j].order {
				return entries[i].order < entries[j].order
			}
			return navCollator.CompareString(entries[i].title, entries[j].title) < 0
		})
	}

	if len(entries) == 0 {
		return ""
	}
	var out strings.Builder
	out.WriteString(`<ul class="site-nav">`)
	for _, e := range entries {
		fmt.Fprintf(&out, `<li><a href="%s">%s</a></li>`, e.url, e.title)
	}
	out.WriteString(`</ul>`)
	return out.String()
}
