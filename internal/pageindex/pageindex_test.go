package pageindex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/page"
)

func TestGenerate_PreservesInputOrder(t *testing.T) {
	date := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	sources := []Source{
		{Meta: page.Metadata{ShortURI: "z", Title: "Z", Type: "page"}, URL: "/z/"},
		{Meta: page.Metadata{ShortURI: "a", Title: "A", Type: "post", Date: &date, Labels: []string{"go"}}, URL: "/a/"},
	}

	entries := Generate(sources)
	require.Len(t, entries, 2)
	require.Equal(t, "/z/", entries[0].URL)
	require.Equal(t, "/a/", entries[1].URL)
	require.Equal(t, "2025-02-14", *entries[1].Date)
	require.Nil(t, entries[0].Date)
}

func TestGenerate_JSONShape(t *testing.T) {
	entries := Generate([]Source{{Meta: page.Metadata{Title: "T", Type: "page"}, URL: "/t/"}})

	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	// Undated pages serialize date as null, labels always as an array.
	require.Contains(t, string(raw), `"date":null`)
	require.Contains(t, string(raw), `"labels":[]`)
}

func TestGenerate_EmptyInput(t *testing.T) {
	require.Empty(t, Generate(nil))

	raw, err := json.Marshal(Generate(nil))
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))
}

func TestLabelSlug(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Go", "go"},
		{"Static Sites", "static-sites"},
		{"  padded  ", "padded"},
		{"C++", "c"},
		{"web/dev & ops", "web-dev-ops"},
		{"---", ""},
		{"Already-Slugged", "already-slugged"},
		{"multiple   spaces", "multiple-spaces"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, LabelSlug(tc.label), tc.label)
	}
}

func TestLabelSlug_Deterministic(t *testing.T) {
	require.Equal(t, LabelSlug("Some Label!"), LabelSlug("Some Label!"))
}
