package hierarchy

import (
	"fmt"
	"strings"
)

// Structural invariant violations abort the whole build; every error names the
// offending page(s) so authors can fix content without spelunking.

// OrphanRef is one shortUri -> parent pair whose parent does not exist.
type OrphanRef struct {
	ShortURI string
	Parent   string
}

// OrphanedPagesError reports every page whose parent is not in the metadata set.
type OrphanedPagesError struct {
	Orphans []OrphanRef
}

func (e *OrphanedPagesError) Error() string {
	pairs := make([]string, len(e.Orphans))
	for i, o := range e.Orphans {
		pairs[i] = fmt.Sprintf("%s -> %s", o.ShortURI, o.Parent)
	}
	return fmt.Sprintf("orphaned pages (parent does not exist): %s", strings.Join(pairs, ", "))
}

// NoRootError indicates no page qualifies as the site root.
type NoRootError struct{}

func (e *NoRootError) Error() string {
	return "no root page found: exactly one page must have an empty parent"
}

// MultipleRootsError indicates more than one page qualifies as the site root.
type MultipleRootsError struct {
	ShortURIs []string
}

func (e *MultipleRootsError) Error() string {
	return fmt.Sprintf("multiple root pages found: %s", strings.Join(e.ShortURIs, ", "))
}

// CircularReferenceError indicates a parent cycle, naming a page on the cycle.
type CircularReferenceError struct {
	ShortURI string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular parent reference involving page %q", e.ShortURI)
}

// DuplicatePageError indicates two pages share a short URI, which would
// collapse their published URLs.
type DuplicatePageError struct {
	ShortURI string
}

func (e *DuplicatePageError) Error() string {
	return fmt.Sprintf("duplicate short URI %q: published URLs must be unique", e.ShortURI)
}

// PageNotFoundError indicates a query target absent from the tree.
type PageNotFoundError struct {
	ShortURI string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %q not found in hierarchy", e.ShortURI)
}
