// Package gitx provides the git queries iterflow needs: the set of files an
// iteration has touched, for the evaluation report and changelog steps.
package gitx

import (
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ChangedFiles returns the files changed between baseBranch and HEAD plus any
// staged or unstaged worktree changes, deduplicated and sorted. A missing
// base branch degrades to worktree changes only; only a completely unreadable
// repository is an error.
func ChangedFiles(workingDir, baseBranch string) ([]string, error) {
	repo, err := gogit.PlainOpenWithOptions(workingDir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open git repo at %s: %w", workingDir, err)
	}

	set := make(map[string]struct{})

	if committed, err := committedDiff(repo, baseBranch); err == nil {
		for _, f := range committed {
			set[f] = struct{}{}
		}
	}

	worktree, err := worktreeChanges(repo)
	if err != nil && len(set) == 0 {
		return nil, err
	}
	for _, f := range worktree {
		set[f] = struct{}{}
	}

	files := make([]string, 0, len(set))
	for f := range set {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// committedDiff returns files changed between baseBranch (merge-base when
// resolvable) and HEAD.
func committedDiff(repo *gogit.Repository, baseBranch string) ([]string, error) {
	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("get HEAD commit: %w", err)
	}

	baseRef, err := repo.Reference(plumbing.NewBranchReferenceName(baseBranch), true)
	if err != nil {
		baseRef, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", baseBranch), true)
		if err != nil {
			return nil, fmt.Errorf("resolve base branch %s: %w", baseBranch, err)
		}
	}
	baseCommit, err := repo.CommitObject(baseRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("get base commit: %w", err)
	}

	from := baseCommit
	if mb, err := headCommit.MergeBase(baseCommit); err == nil && len(mb) > 0 {
		from = mb[0]
	}

	fromTree, err := from.Tree()
	if err != nil {
		return nil, fmt.Errorf("get base tree: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get head tree: %w", err)
	}
	changes, err := fromTree.Diff(headTree)
	if err != nil {
		return nil, fmt.Errorf("compute diff: %w", err)
	}

	var files []string
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		if name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}

// worktreeChanges returns files with staged or unstaged changes.
func worktreeChanges(repo *gogit.Repository) ([]string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("get worktree status: %w", err)
	}

	var files []string
	for path, s := range status {
		if s.Staging != gogit.Unmodified || s.Worktree != gogit.Unmodified {
			files = append(files, path)
		}
	}
	return files, nil
}
