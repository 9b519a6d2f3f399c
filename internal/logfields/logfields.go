package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPage       = "page"
	KeyParent     = "parent"
	KeyLabel      = "label"
	KeySlug       = "slug"
	KeyTemplate   = "template"
	KeyTheme      = "theme"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyName       = "name"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Page(uri string) slog.Attr        { return slog.String(KeyPage, uri) }
func Parent(uri string) slog.Attr      { return slog.String(KeyParent, uri) }
func Label(l string) slog.Attr         { return slog.String(KeyLabel, l) }
func Slug(s string) slog.Attr          { return slog.String(KeySlug, s) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Theme(name string) slog.Attr      { return slog.String(KeyTheme, name) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
