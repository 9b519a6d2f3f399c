package builder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ContentFile is one discovered Markdown source file. Identity is the
// relative path; instances are discarded after the build.
type ContentFile struct {
	Path         string // absolute or content-dir-joined path on disk
	RelativePath string // path relative to the content root, slash-separated
	Name         string // file name without extension
}

// Scan recursively walks contentDir. Markdown files become ContentFiles in
// deterministic walk order; everything else is a static asset to copy
// through. Hidden files and directories are skipped.
func Scan(contentDir string) ([]ContentFile, []string, error) {
	info, err := os.Stat(contentDir)
	if err != nil {
		return nil, nil, fmt.Errorf("content directory %s: %w", contentDir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("content path %s is not a directory", contentDir)
	}

	var files []ContentFile
	var assets []string
	err = filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != contentDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(contentDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, ContentFile{
				Path:         path,
				RelativePath: rel,
				Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			})
			return nil
		}
		assets = append(assets, rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan content directory: %w", err)
	}

	slog.Debug("Content scan complete", logfields.Count(len(files)), logfields.Path(contentDir))
	return files, assets, nil
}

// copyAssets copies non-Markdown content files to the output directory at
// their relative paths.
func (b *Builder) copyAssets(assets []string) error {
	for _, rel := range assets {
		src := filepath.Join(b.cfg.ContentDir, rel)
		data, err := os.ReadFile(src) // #nosec G304 -- paths come from the content scan
		if err != nil {
			return fmt.Errorf("read asset %s: %w", rel, err)
		}
		if err := writeFile(filepath.Join(b.cfg.OutputDir, rel), data); err != nil {
			return err
		}
	}
	return nil
}
