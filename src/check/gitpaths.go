package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// GitSelection narrows a run to the files git reports as changed. Paths
// come back absolute; deleted files are dropped since there is nothing
// left to count.
type GitSelection struct {
	repo *git.Repository
	root string
}

// OpenGitSelection opens the repository enclosing dir, searching upward
// for the .git directory the way the git CLI does.
func OpenGitSelection(dir string) (*GitSelection, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &GitSelection{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Staged returns files with changes in the index.
func (s *GitSelection) Staged() ([]string, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	var files []string
	for path, st := range status {
		if st.Staging == git.Unmodified || st.Staging == git.Untracked {
			continue
		}
		files = append(files, path)
	}
	return s.existing(files), nil
}

// ChangedSince returns files that differ between rev and HEAD, plus any
// uncommitted modifications in the working tree.
func (s *GitSelection) ChangedSince(ctx context.Context, rev string) ([]string, error) {
	headRef, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("getting HEAD: %w", err)
	}
	headCommit, err := s.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting HEAD commit: %w", err)
	}

	hash, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", rev, err)
	}
	baseCommit, err := s.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("getting %q commit: %w", rev, err)
	}

	changed := map[string]bool{}

	if baseCommit.Hash != headCommit.Hash {
		baseTree, err := baseCommit.Tree()
		if err != nil {
			return nil, err
		}
		headTree, err := headCommit.Tree()
		if err != nil {
			return nil, err
		}
		changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, &object.DiffTreeOptions{})
		if err != nil {
			return nil, fmt.Errorf("diffing trees: %w", err)
		}
		for _, change := range changes {
			if name := changeName(change); name != "" {
				changed[name] = true
			}
		}
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}
	for path, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		changed[path] = true
	}

	files := make([]string, 0, len(changed))
	for path := range changed {
		files = append(files, path)
	}
	return s.existing(files), nil
}

// existing maps repo-relative paths to absolute ones, dropping files that
// no longer exist on disk, and sorts the result.
func (s *GitSelection) existing(relPaths []string) []string {
	var files []string
	for _, rel := range relPaths {
		abs := filepath.Join(s.root, filepath.FromSlash(rel))
		if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
			files = append(files, abs)
		}
	}
	sort.Strings(files)
	return files
}

// changeName extracts the surviving path from a tree change.
func changeName(change *object.Change) string {
	action, err := change.Action()
	if err != nil {
		return ""
	}
	switch action {
	case merkletrie.Insert, merkletrie.Modify:
		return change.To.Name
	case merkletrie.Delete:
		return change.From.Name
	}
	return ""
}
