// Package children resolves `:::children` directives: per-page listings of
// child pages with sort, filter, limit, and template options.
//
// Directive grammar (authoring surface, stable):
//
//	:::children [sort=<mode>] [limit=<n>] [type=<t>] [class="..."]
//	<optional per-item template>
//	:::
//
// The resolved directive is replaced by a `:::html ... :::` block so the
// downstream Markdown compiler treats the listing as opaque HTML.
package children

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ChildPage is the flattened, render-ready shape of one child page.
type ChildPage struct {
	ShortURI    string
	Title       string
	URL         string
	Description string
	Category    string
	Author      string
	Type        string
	Order       int
	Labels      []string
	Date        *time.Time

	PriceCents        int
	Currency          string
	StripePriceID     string
	StripePaymentLink string
	Image             string
}

// ErrMalformedDirective indicates directive options that cannot be parsed at
// all. This is fatal for the build: broken authoring surface must not publish.
var ErrMalformedDirective = errors.New("malformed children directive")

// Sort modes. Unknown values silently fall back to SortDateDesc.
const (
	SortDateDesc = "date-desc"
	SortDateAsc  = "date-asc"
	SortTitle    = "title"
	SortOrder    = "order"
)

const (
	defaultWrapperClass = "space-y-4"
	directiveMarker     = ":::children"
)

const defaultItemTemplate = `<div class="child-card">
<h3><a href="{url}">{title}</a></h3>
<p class="child-card-meta">{date} {labels:badges}</p>
<p>{description}</p>
</div>`

type options struct {
	sortMode     string
	limit        int
	typeFilter   string
	wrapperClass string
}

// Resolve expands every children directive in source against the page's
// resolved child set. Source text outside directives is preserved byte for
// byte; both \n and \r\n line endings are tolerated.
func Resolve(source string, kids []ChildPage) (string, error) {
	var out strings.Builder
	rest := source

	for {
		start := directiveStart(rest)
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		block := rest[start:]

		headerEnd := strings.IndexByte(block, '\n')
		if headerEnd < 0 {
			headerEnd = len(block)
		}
		header := strings.TrimSuffix(block[:headerEnd], "\r")

		opts, err := parseOptions(strings.TrimPrefix(header, directiveMarker))
		if err != nil {
			return "", err
		}

		body, consumed, err := directiveBody(block, headerEnd)
		if err != nil {
			return "", err
		}

		rendered := render(opts, body, kids)
		out.WriteString(rendered)
		rest = rest[start+consumed:]
	}
}

// directiveStart finds the next `:::children` marker at the beginning of a
// line, skipping lookalikes such as `:::childrenish`.
func directiveStart(s string) int {
	offset := 0
	for {
		idx := strings.Index(s[offset:], directiveMarker)
		if idx < 0 {
			return -1
		}
		abs := offset + idx
		atLineStart := abs == 0 || s[abs-1] == '\n'
		after := abs + len(directiveMarker)
		validEnd := after >= len(s) || s[after] == ' ' || s[after] == '\n' || s[after] == '\r' || s[after] == '\t'
		if atLineStart && validEnd {
			return abs
		}
		offset = after
	}
}

// directiveBody returns the template text between the header line and the
// closing `:::` fence, plus the number of bytes the whole directive spans.
func directiveBody(block string, headerEnd int) (body string, consumed int, err error) {
	if headerEnd >= len(block) {
		return "", 0, fmt.Errorf("%w: missing closing fence", ErrMalformedDirective)
	}
	pos := headerEnd + 1
	bodyStart := pos
	for pos <= len(block) {
		lineEnd := strings.IndexByte(block[pos:], '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = block[pos:]
			next = len(block)
		} else {
			line = block[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		}
		if strings.TrimRight(line, "\r \t") == ":::" {
			return block[bodyStart:pos], next, nil
		}
		if next >= len(block) {
			break
		}
		pos = next
	}
	return "", 0, fmt.Errorf("%w: missing closing fence", ErrMalformedDirective)
}

var optionRe = regexp.MustCompile(`([a-z]+)=(?:"([^"]*)"|(\S+))`)

func parseOptions(raw string) (options, error) {
	opts := options{sortMode: SortDateDesc, wrapperClass: defaultWrapperClass}

	raw = strings.TrimRight(raw, "\r")
	leftover := optionRe.ReplaceAllString(raw, "")
	if strings.TrimSpace(leftover) != "" {
		return options{}, fmt.Errorf("%w: unparseable options %q", ErrMalformedDirective, strings.TrimSpace(raw))
	}

	for _, m := range optionRe.FindAllStringSubmatch(raw, -1) {
		key := m[1]
		value := m[2]
		if value == "" && m[3] != "" {
			value = m[3]
		}
		switch key {
		case "sort":
			switch value {
			case SortDateDesc, SortDateAsc, SortTitle, SortOrder:
				opts.sortMode = value
			default:
				// Unknown sort modes silently fall back to the default.
				opts.sortMode = SortDateDesc
			}
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return options{}, fmt.Errorf("%w: limit must be a positive integer, got %q", ErrMalformedDirective, value)
			}
			opts.limit = n
		case "type":
			opts.typeFilter = value
		case "class":
			opts.wrapperClass = value
		default:
			return options{}, fmt.Errorf("%w: unknown option %q", ErrMalformedDirective, key)
		}
	}
	return opts, nil
}

func render(opts options, body string, kids []ChildPage) string {
	selected := make([]ChildPage, 0, len(kids))
	for _, k := range kids {
		if opts.typeFilter != "" && k.Type != opts.typeFilter {
			continue
		}
		selected = append(selected, k)
	}
	// No matches: the directive disappears entirely, no empty wrapper.
	if len(selected) == 0 {
		return ""
	}

	sortChildren(selected, opts.sortMode)
	if opts.limit > 0 && len(selected) > opts.limit {
		selected = selected[:opts.limit]
	}

	tmpl := strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	if tmpl == "" {
		tmpl = defaultItemTemplate
	}

	var items strings.Builder
	for _, k := range selected {
		items.WriteString(substitute(tmpl, k))
		items.WriteString("\n")
	}

	// Trailing newline keeps following Markdown on its own line; the
	// directive's own closing-fence newline was consumed with the block.
	return fmt.Sprintf(":::html <div class=\"%s\">\n%s</div> :::\n", opts.wrapperClass, items.String())
}

var titleCollator = collate.New(language.Und)

func sortChildren(kids []ChildPage, mode string) {
	switch mode {
	case SortTitle:
		sort.SliceStable(kids, func(i, j int) bool {
			return titleCollator.CompareString(kids[i].Title, kids[j].Title) < 0
		})
	case SortOrder:
		sort.SliceStable(kids, func(i, j int) bool {
			if kids[i].Order != kids[j].Order {
				return kids[i].Order < kids[j].Order
			}
			return titleCollator.CompareString(kids[i].Title, kids[j].Title) < 0
		})
	case SortDateAsc:
		sort.SliceStable(kids, func(i, j int) bool { return dateBefore(kids[i].Date, kids[j].Date) })
	default: // SortDateDesc
		sort.SliceStable(kids, func(i, j int) bool { return dateBefore(kids[j].Date, kids[i].Date) })
	}
}

// dateBefore orders dated pages before undated ones.
func dateBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

// substitute applies the closed placeholder set. Every supported placeholder
// is always replaced, even when the value is empty; none are left literal.
func substitute(tmpl string, k ChildPage) string {
	price, priceCents, currency, stripePriceID, image := "", "", "", "", ""
	if k.Type == "product" {
		price = formatPrice(k.PriceCents, k.Currency)
		priceCents = strconv.Itoa(k.PriceCents)
		currency = strings.ToUpper(k.Currency)
		stripePriceID = k.StripePriceID
		image = k.Image
	}

	date, dateISO := "", ""
	if k.Date != nil {
		date = k.Date.Format("Jan 2, 2006")
		dateISO = k.Date.Format("2006-01-02")
	}

	return strings.NewReplacer(
		"{title}", k.Title,
		"{url}", k.URL,
		"{description}", k.Description,
		"{category}", k.Category,
		"{author}", k.Author,
		"{type}", k.Type,
		"{short-uri}", k.ShortURI,
		"{labels:badges}", labelBadges(k.Labels),
		"{labels}", strings.Join(k.Labels, ", "),
		"{date:iso}", dateISO,
		"{date}", date,
		"{price-cents}", priceCents,
		"{price}", price,
		"{currency}", currency,
		"{stripe-price-id}", stripePriceID,
		"{image}", image,
	).Replace(tmpl)
}

func labelBadges(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range labels {
		b.WriteString(`<span class="label-badge">`)
		b.WriteString(l)
		b.WriteString(`</span>`)
	}
	return b.String()
}

var currencySymbols = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
}

func formatPrice(cents int, currency string) string {
	if cents <= 0 {
		return ""
	}
	amount := fmt.Sprintf("%.2f", float64(cents)/100)
	if sym, ok := currencySymbols[strings.ToLower(currency)]; ok {
		return sym + amount
	}
	if currency == "" {
		return amount
	}
	return amount + " " + strings.ToUpper(currency)
}
