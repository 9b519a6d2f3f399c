// Package hierarchy assembles flat page metadata into the single-rooted page
// tree and answers ancestry queries against it.
//
// The tree is built from a flat parent-pointer list: a map of shortUri to
// node plus a children index, with ownership kept in the maps rather than a
// navigated object graph.
package hierarchy

import (
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

// Node is one page in the tree.
type Node struct {
	page.Metadata
	Children []*Node
}

// Crumb is one breadcrumb step on the root-to-target path.
type Crumb struct {
	ShortURI string
	Title    string
}

// Tree is the validated page hierarchy for one build.
type Tree struct {
	Root  *Node
	byURI map[string]*Node
}

// Build validates the metadata set and assembles the tree.
//
// Validation order: duplicate short URIs, orphaned parents (all offenders
// reported at once), root count, then parent cycles. Any violation aborts
// with an error naming the page(s) involved.
func Build(pages []page.Metadata) (*Tree, error) {
	byURI := make(map[string]*Node, len(pages))
	for _, p := range pages {
		if _, exists := byURI[p.ShortURI]; exists {
			return nil, &DuplicatePageError{ShortURI: p.ShortURI}
		}
		byURI[p.ShortURI] = &Node{Metadata: p}
	}

	var orphans []OrphanRef
	var roots []*Node
	for _, p := range pages {
		node := byURI[p.ShortURI]
		if p.Parent == "" {
			roots = append(roots, node)
			continue
		}
		if p.Parent == page.RootParent {
			// Sentinel: resolves to the root node unless a page literally
			// named "root" exists. Either way it is not an orphan.
			continue
		}
		if _, ok := byURI[p.Parent]; !ok {
			orphans = append(orphans, OrphanRef{ShortURI: p.ShortURI, Parent: p.Parent})
		}
	}
	if len(orphans) > 0 {
		sort.Slice(orphans, func(i, j int) bool { return orphans[i].ShortURI < orphans[j].ShortURI })
		return nil, &OrphanedPagesError{Orphans: orphans}
	}

	switch {
	case len(roots) == 0:
		return nil, &NoRootError{}
	case len(roots) > 1:
		uris := make([]string, len(roots))
		for i, r := range roots {
			uris[i] = r.ShortURI
		}
		sort.Strings(uris)
		return nil, &MultipleRootsError{ShortURIs: uris}
	}
	root := roots[0]

	resolveParent := func(n *Node) string {
		if n.Parent == page.RootParent {
			if _, literal := byURI[page.RootParent]; !literal {
				return root.ShortURI
			}
		}
		return n.Parent
	}

	if err := detectCycles(byURI, root, resolveParent); err != nil {
		return nil, err
	}

	for _, p := range pages {
		node := byURI[p.ShortURI]
		if node == root {
			continue
		}
		parent := byURI[resolveParent(node)]
		parent.Children = append(parent.Children, node)
	}
	for _, node := range byURI {
		sortSiblings(node.Children)
	}

	return &Tree{Root: root, byURI: byURI}, nil
}

// detectCycles walks every node's parent chain once. A node revisited on its
// own chain is on a cycle; nodes proven acyclic are skipped on later chains,
// keeping the whole pass linear.
func detectCycles(byURI map[string]*Node, root *Node, resolveParent func(*Node) string) error {
	acyclic := make(map[string]struct{}, len(byURI))
	acyclic[root.ShortURI] = struct{}{}

	uris := make([]string, 0, len(byURI))
	for uri := range byURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	for _, uri := range uris {
		onPath := map[string]struct{}{}
		var path []string
		cur := byURI[uri]
		for {
			if _, done := acyclic[cur.ShortURI]; done {
				break
			}
			if _, seen := onPath[cur.ShortURI]; seen {
				return &CircularReferenceError{ShortURI: cur.ShortURI}
			}
			onPath[cur.ShortURI] = struct{}{}
			path = append(path, cur.ShortURI)
			cur = byURI[resolveParent(cur)]
		}
		for _, visited := range path {
			acyclic[visited] = struct{}{}
		}
	}
	return nil
}

func sortSiblings(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].Title < nodes[j].Title
	})
}

// Find returns the node for a short URI, or nil.
func (t *Tree) Find(shortURI string) *Node {
	return t.byURI[shortURI]
}

// ChildrenOf returns the direct children of a page, or nil when the page is
// absent or a leaf.
func (t *Tree) ChildrenOf(parentURI string) []*Node {
	if n := t.byURI[parentURI]; n != nil {
		return n.Children
	}
	return nil
}

// Breadcrumbs returns the root-to-target path. Requesting the root yields a
// single-element path; requesting an absent page fails with PageNotFoundError.
func (t *Tree) Breadcrumbs(targetURI string) ([]Crumb, error) {
	target := t.byURI[targetURI]
	if target == nil {
		return nil, &PageNotFoundError{ShortURI: targetURI}
	}

	var chain []*Node
	for cur := target; cur != nil; {
		chain = append(chain, cur)
		if cur == t.Root {
			break
		}
		parent := cur.Parent
		if parent == page.RootParent {
			if _, literal := t.byURI[page.RootParent]; !literal {
				parent = t.Root.ShortURI
			}
		}
		cur = t.byURI[parent]
	}

	crumbs := make([]Crumb, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		crumbs = append(crumbs, Crumb{ShortURI: chain[i].ShortURI, Title: chain[i].Title})
	}
	return crumbs, nil
}

// Flatten returns every node in pre-order.
func (t *Tree) Flatten() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return out
}
