package builder

import (
	"encoding/json"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/gitinfo"
)

type buildManifest struct {
	BuildID     string `json:"buildId"`
	Commit      string `json:"commit,omitempty"`
	GeneratedAt string `json:"generatedAt"`
	PageCount   int    `json:"pageCount"`
}

// writeManifest records build provenance under fragments/ so deployed sites
// can be traced back to a build and source revision.
func (b *Builder) writeManifest(buildID string, start time.Time, pageCount int) error {
	m := buildManifest{
		BuildID:     buildID,
		Commit:      gitinfo.HeadCommit(b.cfg.ContentDir),
		GeneratedAt: start.UTC().Format(time.RFC3339),
		PageCount:   pageCount,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(b.cfg.OutputDir, "fragments", "build-manifest.json"), append(data, '\n'))
}
