package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

func meta(shortURI, parent string) page.Metadata {
	return page.Metadata{ShortURI: shortURI, Title: shortURI, Parent: parent, Order: 999, Type: page.TypePage}
}

func TestBuild_SingleRoot_FlattenMatchesInput(t *testing.T) {
	pages := []page.Metadata{
		meta("home", ""),
		meta("blog", page.RootParent),
		meta("my-post", "blog"),
		meta("about", page.RootParent),
	}

	tree, err := Build(pages)
	require.NoError(t, err)
	require.Equal(t, "home", tree.Root.ShortURI)
	require.Len(t, tree.Flatten(), len(pages))
}

func TestBuild_RootSentinelAttachesToRoot(t *testing.T) {
	tree, err := Build([]page.Metadata{
		meta("home", ""),
		meta("blog", page.RootParent),
	})
	require.NoError(t, err)
	require.Len(t, tree.ChildrenOf("home"), 1)
	require.Equal(t, "blog", tree.ChildrenOf("home")[0].ShortURI)
}

func TestBuild_LiteralRootPageWinsOverSentinel(t *testing.T) {
	tree, err := Build([]page.Metadata{
		meta("home", ""),
		meta("root", page.RootParent),
		meta("leaf", "root"),
	})
	require.NoError(t, err)
	require.Equal(t, "root", tree.Find("leaf").Parent)
	require.Len(t, tree.ChildrenOf("root"), 1)
}

func TestBuild_ZeroRoots_Fails(t *testing.T) {
	_, err := Build([]page.Metadata{
		meta("a", "b"),
		meta("b", "a"),
	})
	// Both errors are plausible here; the mutual reference is caught as a
	// cycle only after the root check, so NoRootError wins.
	var noRoot *NoRootError
	require.ErrorAs(t, err, &noRoot)
}

func TestBuild_MultipleRoots_Fails(t *testing.T) {
	_, err := Build([]page.Metadata{
		meta("home", ""),
		meta("other", ""),
	})
	var multi *MultipleRootsError
	require.ErrorAs(t, err, &multi)
	require.Equal(t, []string{"home", "other"}, multi.ShortURIs)
}

func TestBuild_Orphan_FailsListingAllOffenders(t *testing.T) {
	_, err := Build([]page.Metadata{
		meta("home", ""),
		meta("a", "ghost"),
		meta("b", "phantom"),
	})
	var orphaned *OrphanedPagesError
	require.ErrorAs(t, err, &orphaned)
	require.Equal(t, []OrphanRef{
		{ShortURI: "a", Parent: "ghost"},
		{ShortURI: "b", Parent: "phantom"},
	}, orphaned.Orphans)
}

func TestBuild_Cycle_FailsNamingAPageOnTheCycle(t *testing.T) {
	_, err := Build([]page.Metadata{
		meta("home", ""),
		meta("a", "b"),
		meta("b", "c"),
		meta("c", "a"),
	})
	var circular *CircularReferenceError
	require.ErrorAs(t, err, &circular)
	require.Contains(t, []string{"a", "b", "c"}, circular.ShortURI)
}

func TestBuild_TwoNodeCycle_Fails(t *testing.T) {
	_, err := Build([]page.Metadata{
		meta("home", ""),
		meta("x", "y"),
		meta("y", "x"),
	})
	var circular *CircularReferenceError
	require.ErrorAs(t, err, &circular)
}

func TestBuild_DuplicateShortURI_Fails(t *testing.T) {
	_, err := Build([]page.Metadata{
		meta("home", ""),
		meta("post", page.RootParent),
		meta("post", page.RootParent),
	})
	var dup *DuplicatePageError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "post", dup.ShortURI)
}

func TestBuild_SiblingsSortedByOrderThenTitle(t *testing.T) {
	b := meta("b", page.RootParent)
	b.Order = 1
	a := meta("a", page.RootParent)
	a.Order = 2
	z := meta("z", page.RootParent)
	z.Order = 2

	tree, err := Build([]page.Metadata{meta("home", ""), z, a, b})
	require.NoError(t, err)

	kids := tree.ChildrenOf("home")
	require.Equal(t, "b", kids[0].ShortURI)
	require.Equal(t, "a", kids[1].ShortURI)
	require.Equal(t, "z", kids[2].ShortURI)
}

func TestBreadcrumbs(t *testing.T) {
	tree, err := Build([]page.Metadata{
		meta("home", ""),
		meta("blog", page.RootParent),
		meta("my-post", "blog"),
	})
	require.NoError(t, err)

	crumbs, err := tree.Breadcrumbs("my-post")
	require.NoError(t, err)
	require.Equal(t, []Crumb{
		{ShortURI: "home", Title: "home"},
		{ShortURI: "blog", Title: "blog"},
		{ShortURI: "my-post", Title: "my-post"},
	}, crumbs)

	rootOnly, err := tree.Breadcrumbs("home")
	require.NoError(t, err)
	require.Len(t, rootOnly, 1)

	_, err = tree.Breadcrumbs("missing")
	var notFound *PageNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.ShortURI)
}

func TestFindAndChildrenOf_AbsentPage(t *testing.T) {
	tree, err := Build([]page.Metadata{meta("home", "")})
	require.NoError(t, err)
	require.Nil(t, tree.Find("nope"))
	require.Nil(t, tree.ChildrenOf("nope"))
}
