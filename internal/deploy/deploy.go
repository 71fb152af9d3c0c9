// Package deploy publishes the build tree to every configured repository branch.
package deploy

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/auth"
	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/git"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/retry"
	"git.home.luguber.info/inful/pagesmith/internal/workspace"
)

// Push is one completed target branch.
type Push struct {
	Repository string
	Branch     string
}

// Result describes a deploy run.
type Result struct {
	Commit string
	Files  int
	Pushed []Push
}

// Deployer stages files into a scratch repository and pushes it.
type Deployer struct {
	cfg     config.DeployConfig
	auth    *auth.Registry
	policy  retry.Policy
	tempDir string
	now     func() time.Time
}

// New creates a deployer. tempDir "" uses the system temp folder.
func New(cfg config.DeployConfig, tempDir string) *Deployer {
	return &Deployer{
		cfg:     cfg,
		auth:    auth.NewRegistry(),
		policy:  retry.FromConfig(cfg.Retry),
		tempDir: tempDir,
		now:     time.Now,
	}
}

// Run copies files into a fresh workspace, commits them and force-pushes the
// commit to every target branch. Every branch is attempted; failures are joined.
func (d *Deployer) Run(ctx context.Context, files []fileset.Asset) (Result, error) {
	var res Result
	if len(d.cfg.Targets) == 0 {
		return res, errors.ConfigError("no deploy targets configured").Build()
	}

	ws := workspace.NewManager(d.tempDir, "pagesmith-deploy")
	if err := ws.Create(); err != nil {
		return res, errors.FileSystemError("create deploy workspace").WithCause(err).Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Deploy workspace cleanup failed", logfields.Error(err))
		}
	}()

	out := fileset.Writer{Root: ws.GetPath()}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := out.Copy(f.Path, f.Rel); err != nil {
			return res, errors.FileSystemError("stage deploy file").WithCause(err).WithContext("path", f.Path).Build()
		}
		res.Files++
	}

	author := git.Author{Name: d.cfg.Author.Name, Email: d.cfg.Author.Email}
	snap, err := git.NewSnapshot(ws.GetPath(), d.cfg.Message, author, d.now())
	if err != nil {
		return res, errors.DeployError("commit build tree").WithCause(err).Build()
	}
	res.Commit = snap.Commit().String()

	var failures []error
	for _, target := range d.cfg.Targets {
		method, err := d.auth.Create(target.Auth, target.Repository)
		if err != nil {
			failures = append(failures, errors.DeployError("deploy authentication").
				WithCause(err).
				WithContext("repository", target.Repository).
				Build())
			continue
		}
		for _, branch := range target.Branches {
			name := fmt.Sprintf("push %s@%s", target.Repository, branch)
			err := d.policy.Do(ctx, name, func(ctx context.Context) error {
				return snap.Push(ctx, target.Repository, branch, method)
			}, func(err error) bool { return !git.IsPermanent(err) })
			if err != nil {
				slog.Error("Deploy push failed", logfields.Repository(target.Repository), logfields.Branch(branch), logfields.Error(err))
				failures = append(failures, errors.DeployError(fmt.Sprintf("push to %s failed", branch)).
					WithCause(err).
					WithContext("repository", target.Repository).
					WithContext("branch", branch).
					Build())
				continue
			}
			res.Pushed = append(res.Pushed, Push{Repository: target.Repository, Branch: branch})
		}
	}
	return res, stdErrors.Join(failures...)
}
