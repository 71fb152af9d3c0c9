package tasks

import (
	"context"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func runIndex(ctx context.Context, env *Env) error {
	// the home page is written to the build root as-is
	return renderPages(ctx, env, Index, structure.Index, func(rel string) string { return rel })
}

func runPages(ctx context.Context, env *Env) error {
	return renderPages(ctx, env, Pages, structure.Pages, fileset.CleanURL)
}

func renderPages(ctx context.Context, env *Env, task string, cat structure.Category, target func(string) string) error {
	src := env.Paths.Source(cat)
	assets, err := fileset.Match(src)
	if err != nil {
		return env.fail(task, errors.FileSystemError("list pages").WithCause(err).Build())
	}
	if len(assets) == 0 {
		env.log(task).Debug("No pages matched", "glob", src.Globs())
		return nil
	}
	engine, err := render.NewEngine(src.Base)
	if err != nil {
		return env.fail(task, errors.RenderError("create template engine").WithCause(err).Build())
	}

	out := fileset.Writer{Root: env.Paths.BuildDir()}
	fe := errors.NewFileErrors(task, errors.CategoryRender)
	written := 0
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := target(a.Rel)
		page, err := render.LoadPage(a, render.PageURL(rel))
		if err != nil {
			fe.Add(a.Path, err)
			continue
		}
		html, err := engine.Render(ctx, env.Render, page)
		if err != nil {
			fe.Add(a.Path, err)
			continue
		}
		if html, err = render.Process(html, env.Config.Pages); err != nil {
			fe.Add(a.Path, err)
			continue
		}
		if _, err := out.Write(rel, html); err != nil {
			fe.Add(a.Path, err)
			continue
		}
		written++
	}
	env.Recorder.IncFilesProcessed(task, written)
	env.log(task).Info("Rendered pages", logfields.Count(written))
	return env.fail(task, fe.Err())
}
