package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/clean"
	"git.home.luguber.info/inful/pagesmith/internal/critical"
	"git.home.luguber.info/inful/pagesmith/internal/deploy"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/permalink"
	"git.home.luguber.info/inful/pagesmith/internal/sitemap"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func runClean(ctx context.Context, env *Env) error {
	dir := env.Paths.BuildDir()
	removed, err := clean.Dir(ctx, dir)
	if err != nil {
		return env.fail(Clean, errors.FileSystemError("clean build folder").WithCause(err).WithContext("dir", dir).Build())
	}
	if err := env.Ledger.Forget(ctx, Img); err != nil {
		env.log(Clean).Warn("Failed to reset build ledger", logfields.Error(err))
	}
	env.log(Clean).Info("Cleaned build folder", logfields.Path(dir), logfields.Count(len(removed)))
	return nil
}

func runSitemap(ctx context.Context, env *Env) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := env.Config.Sitemap
	if strings.TrimSpace(cfg.SiteURL) == "" {
		return env.fail(Sitemap, errors.ConfigError("sitemap requires site_url").Build())
	}
	pages, err := fileset.Match(env.Paths.Source(structure.Root))
	if err != nil {
		return env.fail(Sitemap, errors.FileSystemError("list built pages").WithCause(err).Build())
	}
	data, n, err := sitemap.Build(cfg, pages)
	if err != nil {
		return env.fail(Sitemap, errors.RenderError("render sitemap").WithCause(err).Build())
	}
	out := fileset.Writer{Root: env.Paths.BuildDir()}
	if _, err := out.Write(sitemap.FileName, data); err != nil {
		return env.fail(Sitemap, errors.FileSystemError("write sitemap").WithCause(err).Build())
	}
	env.log(Sitemap).Info("Wrote sitemap", logfields.Count(n))
	return nil
}

func runPermalinks(ctx context.Context, env *Env) error {
	ex, err := permalink.New(env.Config.Permalinks, env.Now())
	if err != nil {
		return env.fail(Permalinks, err)
	}
	posts, err := fileset.Match(env.Paths.Source(structure.Posts))
	if err != nil {
		return env.fail(Permalinks, errors.FileSystemError("list posts").WithCause(err).Build())
	}

	out := fileset.Writer{Root: env.Paths.Dest(structure.DestPosts)}
	fe := errors.NewFileErrors(Permalinks, errors.CategoryFileSystem)
	claimed := make(map[string]string, len(posts))
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := ex.Expand(p.Rel)
		if err != nil {
			fe.Add(p.Path, err)
			continue
		}
		if prev, ok := claimed[target]; ok {
			fe.Add(p.Path, fmt.Errorf("permalink %s already used by %s", target, prev))
			continue
		}
		claimed[target] = p.Rel
		if _, err := out.Copy(p.Path, target); err != nil {
			fe.Add(p.Path, err)
		}
	}
	env.Recorder.IncFilesProcessed(Permalinks, len(claimed))
	env.log(Permalinks).Info("Copied posts", logfields.Count(len(claimed)))
	return env.fail(Permalinks, fe.Err())
}

func runCritical(ctx context.Context, env *Env) error {
	cfg := env.Config.Critical
	base := env.Paths.BuildDir()
	if cfg.Base != "" {
		base = filepath.Join(env.Paths.ProjectRoot(), cfg.Base)
	}
	ex := env.Extractor
	if ex == nil {
		ex = critical.ChromeExtractor{}
	}
	res, err := critical.Generate(ctx, cfg, base, ex)
	if err != nil {
		return env.fail(Critical, err)
	}
	env.log(Critical).Info("Wrote critical css", logfields.Path(res.Dest), logfields.Count(res.Rules))
	return nil
}

func runDeploy(ctx context.Context, env *Env) error {
	files, err := fileset.Match(env.Paths.Source(structure.Deploy))
	if err != nil {
		return env.fail(Deploy, errors.FileSystemError("list build folder").WithCause(err).Build())
	}
	if len(files) == 0 {
		return env.fail(Deploy, errors.NotFoundError("build folder is empty").
			WithContext("dir", env.Paths.BuildDir()).Build())
	}
	res, err := deploy.New(env.Config.Deploy, "").Run(ctx, files)
	for _, p := range res.Pushed {
		env.log(Deploy).Info("Pushed build", logfields.Repository(p.Repository), logfields.Branch(p.Branch),
			"commit", res.Commit)
	}
	return env.fail(Deploy, err)
}
