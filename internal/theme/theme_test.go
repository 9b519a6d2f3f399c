package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/components"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_AndRender(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "<title>{{title}}</title><main>{{content}}</main>")

	reg, err := Load(dir, "", nil)
	require.NoError(t, err)
	require.True(t, reg.Has("default"))

	html := reg.Render("default", map[string]string{"title": "Hi", "content": "<p>x</p>"})
	require.Equal(t, "<title>Hi</title><main><p>x</p></main>", html)
}

func TestRender_UnknownTemplateFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "DEFAULT:{{title}}")

	reg, err := Load(dir, "", nil)
	require.NoError(t, err)
	require.Equal(t, "DEFAULT:X", reg.Render("landing", map[string]string{"title": "X"}))
}

func TestRender_BuiltinDefaultWhenNoTemplatesExist(t *testing.T) {
	reg, err := Load("", "", nil)
	require.NoError(t, err)

	html := reg.Render("default", map[string]string{"title": "T", "content": "<p>c</p>"})
	require.Contains(t, html, "<title>T</title>")
	require.Contains(t, html, "<p>c</p>")
}

func TestLoad_ThemeOverlayReplacesSameNamedTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "BASE")
	writeTemplate(t, dir, "post.html", "BASE-POST")
	writeTemplate(t, filepath.Join(dir, "dark"), "default.html", "DARK")

	reg, err := Load(dir, "dark", nil)
	require.NoError(t, err)
	require.Equal(t, "DARK", reg.Render("default", nil))
	// Overlay only replaces same-named templates; others survive.
	require.Equal(t, "BASE-POST", reg.Render("post", nil))
}

func TestLoad_MissingOverlayKeepsBase(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "BASE")

	reg, err := Load(dir, "nonexistent", nil)
	require.NoError(t, err)
	require.Equal(t, "BASE", reg.Render("default", nil))
}

func TestRender_Conditionals(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", `{{#if author}}<p>by {{author}}</p>{{/if author}}done`)

	reg, err := Load(dir, "", nil)
	require.NoError(t, err)

	require.Equal(t, "<p>by Ada</p>done", reg.Render("default", map[string]string{"author": "Ada"}))
	require.Equal(t, "done", reg.Render("default", map[string]string{"author": ""}))
	require.Equal(t, "done", reg.Render("default", map[string]string{}))
}

func TestRender_UnknownTagsRenderEmpty(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "[{{mystery}}]")

	reg, err := Load(dir, "", nil)
	require.NoError(t, err)
	require.Equal(t, "[]", reg.Render("default", nil))
}

func TestRender_ComponentTagInTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "default.html", "<footer>{{copyright}}</footer>")

	comps := components.MapRegistry{
		"copyright": func(map[string]string) (string, error) { return "© 2026", nil },
	}
	reg, err := Load(dir, "", comps)
	require.NoError(t, err)
	require.Equal(t, "<footer>© 2026</footer>", reg.Render("default", nil))
}
