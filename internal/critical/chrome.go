package critical

import (
	"context"

	"github.com/chromedp/chromedp"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

// collectScript returns the cssText of every rule that styles an element
// intersecting the first viewport. Matching media blocks are kept wrapped.
const collectScript = `(() => {
  const h = window.innerHeight;
  const strip = /::?(before|after|hover|focus|focus-within|focus-visible|active|visited|placeholder|selection|first-line|first-letter|marker)\b/g;
  const visible = (selector) => {
    let els;
    try { els = document.querySelectorAll(selector.replace(strip, '') || '*'); } catch (e) { return false; }
    for (const el of els) {
      const r = el.getBoundingClientRect();
      if (r.top < h && r.bottom >= 0) return true;
    }
    return false;
  };
  const walk = (rules) => {
    const out = [];
    for (const rule of rules) {
      if (rule instanceof CSSStyleRule) {
        if (visible(rule.selectorText)) out.push(rule.cssText);
      } else if (rule instanceof CSSMediaRule) {
        if (window.matchMedia(rule.media.mediaText).matches) {
          const inner = walk(rule.cssRules);
          if (inner.length) out.push('@media ' + rule.media.mediaText + '{' + inner.join('') + '}');
        }
      } else if (rule instanceof CSSFontFaceRule) {
        out.push(rule.cssText);
      }
    }
    return out;
  };
  const all = [];
  for (const sheet of document.styleSheets) {
    try { all.push(...walk(sheet.cssRules)); } catch (e) {}
  }
  return all;
})()`

// ChromeExtractor drives a headless Chrome through chromedp.
type ChromeExtractor struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
}

// Extract loads url at the given viewport and evaluates collectScript.
func (c ChromeExtractor) Extract(ctx context.Context, url string, dim config.Dimension) ([]string, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var rules []string
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(dim.Width), int64(dim.Height)),
		chromedp.Navigate(url),
		chromedp.Evaluate(collectScript, &rules),
	)
	return rules, err
}
