package tasks

import (
	"context"
	"os"
	"path"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/images"
	"git.home.luguber.info/inful/pagesmith/internal/lint"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/meta"
	"git.home.luguber.info/inful/pagesmith/internal/scripts"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/styles"
)

func runSCSS(ctx context.Context, env *Env) error {
	src := env.Paths.Source(structure.SCSS)
	return buildStyles(ctx, env, SCSS, src, env.Config.Styles.SCSSChain, func(ctx context.Context, a fileset.Asset) (styles.Source, error) {
		return env.Sass().Compile(ctx, a.Path, env.Config.Styles.Sourcemaps)
	})
}

func runCSS(ctx context.Context, env *Env) error {
	src := env.Paths.Source(structure.CSS)
	return buildStyles(ctx, env, CSS, src, env.Config.Styles.CSSChain, func(_ context.Context, a fileset.Asset) (styles.Source, error) {
		data, err := os.ReadFile(a.Path)
		return styles.Source{Path: a.Path, CSS: data}, err
	})
}

// buildStyles loads every entry of src in lexical order, runs each through
// chain and joins the results. A failing entry is reported and left out.
func buildStyles(ctx context.Context, env *Env, task string, src structure.Pattern, chain []string,
	load func(context.Context, fileset.Asset) (styles.Source, error),
) error {
	assets, err := fileset.Match(src)
	if err != nil {
		return env.fail(task, errors.FileSystemError("list stylesheets").WithCause(err).Build())
	}
	if len(assets) == 0 {
		env.log(task).Debug("No stylesheets matched", "glob", src.Globs())
		return nil
	}

	c, err := styles.NewChain(chain)
	if err != nil {
		return env.fail(task, errors.ConfigError("invalid style chain").WithCause(err).Build())
	}
	senv, err := styles.NewEnv(env.Config.Styles, env.Paths, src.Base)
	if err != nil {
		return env.fail(task, errors.ConfigError("invalid style targets").WithCause(err).Build())
	}
	senv.Warn = env.warn(task)

	fe := errors.NewFileErrors(task, errors.CategoryStyle)
	sources := make([]styles.Source, 0, len(assets))
	for _, a := range assets {
		s, err := load(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fe.Add(a.Path, err)
			continue
		}
		sources = append(sources, s)
	}
	if len(sources) == 0 {
		return env.fail(task, fe.Err())
	}

	res, err := c.Run(ctx, senv, sources)
	if err != nil {
		fe.Add(src.Base, err)
		return env.fail(task, fe.Err())
	}
	name := env.Config.Styles.OutputName()
	out := fileset.Writer{Root: env.Paths.Dest(structure.DestCSS)}
	if _, err := out.Write(name, res.CSS); err != nil {
		fe.Add(name, err)
	}
	if res.Map != nil {
		if _, err := out.Write(name+".map", res.Map); err != nil {
			fe.Add(name+".map", err)
		}
	}
	env.Recorder.IncFilesProcessed(task, len(assets))
	env.log(task).Info("Wrote stylesheet", logfields.File(name), logfields.Count(len(assets)),
		"chain", c.Names())
	return env.fail(task, fe.Err())
}

func runJS(ctx context.Context, env *Env) error {
	all, err := fileset.Match(env.Paths.Source(structure.JS))
	if err != nil {
		return env.fail(JS, errors.FileSystemError("list scripts").WithCause(err).Build())
	}
	var files []fileset.Asset
	for _, a := range all {
		if scripts.IsScript(a.Rel) {
			files = append(files, a)
		}
	}
	if len(files) == 0 {
		return nil
	}

	cfg := env.Config.Scripts
	ordered, warnings, err := scripts.Order(files, cfg.Order)
	if err != nil {
		return env.fail(JS, errors.ConfigError("script order").WithCause(err).Build())
	}
	for _, w := range warnings {
		env.Reporter.Warn(JS, w)
	}

	res, err := scripts.Bundle(ctx, ordered, cfg.Bundle, cfg.Sourcemaps)
	if err != nil {
		return env.fail(JS, errors.ScriptError("bundle scripts").WithCause(err).Build())
	}
	out := fileset.Writer{Root: env.Paths.Dest(structure.DestJS)}
	if _, err := out.Write(cfg.Bundle, res.JS); err != nil {
		return env.fail(JS, errors.FileSystemError("write bundle").WithCause(err).Build())
	}
	if res.Map != nil {
		if _, err := out.Write(cfg.Bundle+".map", res.Map); err != nil {
			return env.fail(JS, errors.FileSystemError("write bundle map").WithCause(err).Build())
		}
	}
	env.Recorder.IncFilesProcessed(JS, len(ordered))
	env.log(JS).Info("Wrote script bundle", logfields.File(cfg.Bundle), logfields.Count(len(ordered)))
	return nil
}

func runLint(ctx context.Context, env *Env) error {
	all, err := fileset.Match(env.Paths.Source(structure.JS))
	if err != nil {
		return env.fail(Lint, errors.FileSystemError("list scripts").WithCause(err).Build())
	}
	var files []fileset.Asset
	for _, a := range all {
		if scripts.IsScript(a.Rel) {
			files = append(files, a)
		}
	}
	linter, err := lint.New(env.Config.Lint.Rules)
	if err != nil {
		return env.fail(Lint, err)
	}
	res, err := linter.Lint(ctx, files)
	if err != nil {
		return env.fail(Lint, err)
	}
	if len(res.Issues) > 0 {
		if ferr := lint.NewStylishFormatter(env.Config.Reporter.Color).Format(env.Out, res); ferr != nil {
			return ferr
		}
	}
	env.Recorder.IncFilesProcessed(Lint, res.FilesTotal)
	env.log(Lint).Info("Linted scripts", logfields.Count(res.FilesTotal),
		"errors", res.ErrorCount(), "warnings", res.WarningCount())
	if err := res.Err(); err != nil {
		env.Reporter.Report(Lint, "", err)
		return err
	}
	return nil
}

func runImg(ctx context.Context, env *Env) error {
	assets, err := fileset.Match(env.Paths.Source(structure.Img))
	if err != nil {
		return env.fail(Img, errors.FileSystemError("list images").WithCause(err).Build())
	}
	p := images.NewProcessor(env.Config.Images, env.Paths.Dest(structure.DestImg), env.Ledger, env.Force)
	fe := errors.NewFileErrors(Img, errors.CategoryImage)
	written, skipped := 0, 0
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(p.Variants(a.Rel)) == 0 {
			env.Reporter.Warn(Img, "no variants configured for "+path.Base(a.Rel))
			continue
		}
		outs, fresh, err := p.Build(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fe.Add(a.Path, errors.ImageError("derive image variants").
				WithCause(err).
				WithContext("file", a.Rel).
				Build())
			continue
		}
		if fresh {
			skipped++
			continue
		}
		written += len(outs)
	}
	env.Recorder.IncFilesProcessed(Img, written)
	env.log(Img).Info("Wrote image variants", logfields.Count(written), "unchanged", skipped)
	return env.fail(Img, fe.Err())
}

func runMisc(ctx context.Context, env *Env) error {
	assets, err := fileset.Match(env.Paths.Source(structure.Misc))
	if err != nil {
		return env.fail(Misc, errors.FileSystemError("list misc files").WithCause(err).Build())
	}
	res, err := meta.Build(ctx, assets, fileset.Writer{Root: env.Paths.Dest(structure.DestMisc)}, env.Config.Misc)
	env.Recorder.IncFilesProcessed(Misc, len(res.Copied)+len(res.Generated))
	env.log(Misc).Info("Wrote misc files", "copied", len(res.Copied), "generated", len(res.Generated))
	return env.fail(Misc, err)
}
