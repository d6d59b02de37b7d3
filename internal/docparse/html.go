package docparse

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements start a new paragraph in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "nav": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "td": true, "th": true,
	"pre": true, "blockquote": true, "figure": true, "figcaption": true,
	"br": true, "hr": true,
}

// HTMLParser extracts visible text from HTML documents with goquery.
type HTMLParser struct{}

func (p *HTMLParser) Parse(ctx context.Context, path, imageDir string) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(normalizeText(string(data))))
	if err != nil {
		return nil, fmt.Errorf("parsing html %s: %w", path, err)
	}
	doc.Find("script, style, noscript, template, head").Remove()

	var (
		blocks []string
		buf    strings.Builder
		refs   []string
	)
	flush := func() {
		blocks = append(blocks, collapseSpaces(buf.String()))
		buf.Reset()
	}

	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				buf.WriteString(c.Text())
			case name == "img":
				if src, ok := c.Attr("src"); ok {
					refs = append(refs, src)
				}
				if alt, ok := c.Attr("alt"); ok {
					buf.WriteString(" " + alt + " ")
				}
			case name == "pre":
				flush()
				buf.WriteString(c.Text())
				blocks = append(blocks, buf.String())
				buf.Reset()
			case blockElements[name]:
				flush()
				walk(c)
				flush()
			default:
				walk(c)
			}
		})
	}
	walk(doc.Selection)
	flush()

	parsed := &Parsed{Text: joinBlocks(blocks), Images: []string{}}
	if imageDir == "" {
		return parsed, nil
	}
	w := newImageWriter(imageDir, path)
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.copyLocal(path, ref); err != nil {
			return nil, err
		}
	}
	if len(w.paths) > 0 {
		parsed.Images = w.paths
	}
	return parsed, nil
}

// collapseSpaces folds runs of whitespace into single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
