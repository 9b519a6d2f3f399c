// Package gitinfo resolves the git commit a build was produced from, for the
// build manifest. Content directories outside any repository are fine; the
// stamp is simply empty.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// HeadCommit returns the short HEAD hash of the repository enclosing dir, or
// "" when dir is not inside a git repository or HEAD cannot be resolved.
func HeadCommit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()[:12]
}
