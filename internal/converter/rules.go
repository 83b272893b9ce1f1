package converter

import (
	"regexp"
	"strings"

	mdconv "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
)

var (
	brushRe  = regexp.MustCompile(`brush:\s*([A-Za-z0-9_+#-]+)`)
	imageRe  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)((?:\s+"[^"]*")?)\)`)
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Tags dropped together with their content.
var removedTags = []string{"input", "form", "style", "script", "button", "select", "textarea"}

// newMarkdownConverter builds the renderer with the Confluence rules on top
// of the commonmark and table plugins.
func newMarkdownConverter(defaultLanguage string) *mdconv.Converter {
	conv := mdconv.NewConverter(
		mdconv.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	for _, tag := range removedTags {
		conv.Register.TagType(tag, mdconv.TagTypeRemove, mdconv.PriorityEarly)
	}
	conv.Register.RendererFor("pre", mdconv.TagTypeBlock, renderCodeBlock(defaultLanguage), mdconv.PriorityEarly)
	conv.Register.RendererFor("a", mdconv.TagTypeInline, renderPageLink, mdconv.PriorityEarly)

	return conv
}

// renderCodeBlock turns Confluence code macros into highlight blocks. Other
// <pre> elements fall through to the commonmark renderer.
func renderCodeBlock(defaultLanguage string) mdconv.HandleRenderFunc {
	return func(_ mdconv.Context, w mdconv.Writer, n *html.Node) mdconv.RenderStatus {
		class := attr(n, "class")
		if !strings.Contains(class, "Confluence") && !strings.Contains(class, "syntaxhighlighter-pre") {
			return mdconv.RenderTryNext
		}

		lang := defaultLanguage
		for _, src := range []string{class, attr(n, "data-syntaxhighlighter-params")} {
			if m := brushRe.FindStringSubmatch(src); m != nil {
				lang = strings.ToLower(m[1])
				break
			}
		}

		code := strings.Trim(textContent(n), "\n")
		w.WriteString("\n\n{% highlight " + lang + " %}{% raw %}\n")
		w.WriteString(code)
		w.WriteString("\n{% endraw %}{% endhighlight %}\n\n")
		return mdconv.RenderSuccess
	}
}

// renderPageLink writes links to sibling export pages as a ref macro that
// keeps the raw target, so the link fixup pass can find it later.
func renderPageLink(ctx mdconv.Context, w mdconv.Writer, n *html.Node) mdconv.RenderStatus {
	href := strings.TrimSpace(attr(n, "href"))
	if !IsPageLink(href) {
		return mdconv.RenderTryNext
	}
	w.WriteString("[")
	ctx.RenderChildNodes(ctx, w, n)
	w.WriteString("]({% ref " + href + " %})")
	return mdconv.RenderSuccess
}

// IsPageLink reports whether href points at another page of the same export.
func IsPageLink(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") || schemeRe.MatchString(href) {
		return false
	}
	target := href
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	return strings.HasSuffix(target, ".html") && !strings.Contains(target, "/")
}

// prefixImages points relative image sources at the site base path.
func prefixImages(md, basePath string) string {
	return imageRe.ReplaceAllStringFunc(md, func(m string) string {
		parts := imageRe.FindStringSubmatch(m)
		src := parts[2]
		if strings.HasPrefix(src, "/") || strings.HasPrefix(src, "{{") || schemeRe.MatchString(src) {
			return m
		}
		return "![" + parts[1] + "](" + basePath + "/" + src + parts[3] + ")"
	})
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
