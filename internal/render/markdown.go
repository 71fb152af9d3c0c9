package render

import (
	"bytes"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// {% markdown %}...{% endmarkdown %} renders its (already executed) body as Markdown.
type tagMarkdownNode struct {
	wrapper *pongo2.NodeWrapper
}

func tagMarkdownParser(doc *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	wrapper, _, err := doc.WrapUntilTag("endmarkdown")
	if err != nil {
		return nil, err
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("markdown takes no arguments", nil)
	}
	return &tagMarkdownNode{wrapper: wrapper}, nil
}

func (node *tagMarkdownNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	var src bytes.Buffer
	if err := node.wrapper.Execute(ctx, &src); err != nil {
		return err
	}
	var out bytes.Buffer
	if err := md.Convert([]byte(dedent(src.String())), &out); err != nil {
		return ctx.Error(err.Error(), nil)
	}
	if _, err := writer.Write(out.Bytes()); err != nil {
		return ctx.Error(err.Error(), nil)
	}
	return nil
}

// dedent strips the indentation shared by all non-blank lines, so Markdown
// nested inside indented HTML is not turned into code blocks.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	prefix := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if prefix < 0 || n < prefix {
			prefix = n
		}
	}
	if prefix <= 0 {
		return s
	}
	for i, l := range lines {
		if len(l) >= prefix {
			lines[i] = l[prefix:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
