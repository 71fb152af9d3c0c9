package git

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// Author is the commit identity.
type Author struct {
	Name  string
	Email string
}

// Snapshot is a fresh repository holding one commit of a directory tree.
type Snapshot struct {
	repo    *git.Repository
	head    plumbing.ReferenceName
	commit  plumbing.Hash
	remotes int
}

// NewSnapshot initializes a repository in dir and commits every file in it.
func NewSnapshot(dir, message string, author Author, when time.Time) (*Snapshot, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, ClassifyGitError(err, "init", dir)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ClassifyGitError(err, "worktree", dir)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, ClassifyGitError(err, "add", dir)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            &object.Signature{Name: author.Name, Email: author.Email, When: when},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return nil, ClassifyGitError(err, "commit", dir)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, ClassifyGitError(err, "head", dir)
	}
	slog.Debug("Snapshot committed", logfields.Path(dir), slog.String("commit", hash.String()[:8]))
	return &Snapshot{repo: repo, head: head.Name(), commit: hash}, nil
}

// Commit returns the snapshot commit hash.
func (s *Snapshot) Commit() plumbing.Hash { return s.commit }

// Push force-pushes the snapshot to refs/heads/<branch> of url. An up-to-date
// remote is not an error.
func (s *Snapshot) Push(ctx context.Context, url, branch string, auth transport.AuthMethod) error {
	s.remotes++
	name := fmt.Sprintf("target%d", s.remotes)
	if _, err := s.repo.CreateRemote(&ggitcfg.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		return ClassifyGitError(err, "remote", url)
	}
	defer func() { _ = s.repo.DeleteRemote(name) }()

	spec := ggitcfg.RefSpec(fmt.Sprintf("+%s:%s", s.head, plumbing.NewBranchReferenceName(branch)))
	err := s.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: name,
		RefSpecs:   []ggitcfg.RefSpec{spec},
		Auth:       auth,
		Force:      true,
	})
	if err != nil && !stdErrors.Is(err, git.NoErrAlreadyUpToDate) {
		return ClassifyGitError(err, "push", url)
	}
	slog.Info("Pushed snapshot", logfields.Repository(url), logfields.Branch(branch), slog.String("commit", s.commit.String()[:8]))
	return nil
}
