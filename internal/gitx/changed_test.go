package gitx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitAll(t *testing.T, wt *gogit.Worktree, msg string) plumbing.Hash {
	t.Helper()
	require.NoError(t, wt.AddGlob("."))
	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// newRepo initializes a repository with one commit on main.
func newRepo(t *testing.T) (string, *gogit.Repository, *gogit.Worktree) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	writeFile(t, dir, "README.md", "base\n")
	commitAll(t, wt, "initial")
	return dir, repo, wt
}

func TestChangedFiles_NotARepo(t *testing.T) {
	_, err := ChangedFiles(t.TempDir(), "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open git repo")
}

func TestChangedFiles_CommittedOnBranch(t *testing.T) {
	dir, _, wt := newRepo(t)

	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("iteration"),
		Create: true,
	}))
	writeFile(t, dir, "feature.go", "package feature\n")
	commitAll(t, wt, "add feature")

	files, err := ChangedFiles(dir, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"feature.go"}, files)
}

func TestChangedFiles_IncludesWorktreeChanges(t *testing.T) {
	dir, _, _ := newRepo(t)

	writeFile(t, dir, "untracked.go", "package x\n")
	writeFile(t, dir, "README.md", "edited\n")

	files, err := ChangedFiles(dir, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "untracked.go"}, files, "sorted and deduplicated")
}

func TestChangedFiles_MissingBaseBranchDegrades(t *testing.T) {
	dir, _, _ := newRepo(t)
	writeFile(t, dir, "wip.go", "package wip\n")

	files, err := ChangedFiles(dir, "no-such-branch")
	require.NoError(t, err, "a missing base branch is not fatal")
	assert.Equal(t, []string{"wip.go"}, files)
}
