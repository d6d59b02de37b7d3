package docparse

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const docxBody = "word/document.xml"

// DocxParser reads Office Open XML word documents. Body paragraphs come
// first, then the text of every table cell. Raster images from word/media
// are written out for OCR.
type DocxParser struct{}

// xmlNode is a generic element tree; docx markup is deep and irregular
// enough that typed structs would only cover a fraction of it.
type xmlNode struct {
	XMLName xml.Name
	Content string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

func (p *DocxParser) Parse(ctx context.Context, filePath, imageDir string) (*Parsed, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening docx %s: %w", filePath, err)
	}
	defer zr.Close()

	var body *zip.File
	var media []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == docxBody:
			body = f
		case strings.HasPrefix(f.Name, "word/media/") && isRaster(f.Name):
			media = append(media, f)
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%s: missing %s", filePath, docxBody)
	}

	text, err := readDocxText(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	parsed := &Parsed{Text: text, Images: []string{}}
	if imageDir == "" || len(media) == 0 {
		return parsed, nil
	}

	sort.Slice(media, func(i, j int) bool { return naturalLess(media[i].Name, media[j].Name) })
	w := newImageWriter(imageDir, filePath)
	for _, f := range media {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := copyZipEntry(w, f); err != nil {
			return nil, err
		}
	}
	parsed.Images = w.paths
	return parsed, nil
}

func copyZipEntry(w *imageWriter, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	return w.write(path.Ext(f.Name), rc)
}

func readDocxText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var root xmlNode
	if err := xml.NewDecoder(rc).Decode(&root); err != nil && err != io.EOF {
		return "", fmt.Errorf("decoding document.xml: %w", err)
	}

	body := root.child("body")
	if body == nil {
		return "", nil
	}

	var paragraphs, cells []string
	for _, n := range body.Nodes {
		switch n.XMLName.Local {
		case "p":
			paragraphs = append(paragraphs, n.paragraphText())
		case "tbl":
			cells = append(cells, n.cellTexts()...)
		}
	}
	return joinBlocks(append(paragraphs, cells...)), nil
}

func (n *xmlNode) child(local string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

// paragraphText concatenates the runs of a w:p element.
func (n *xmlNode) paragraphText() string {
	var sb strings.Builder
	var walk func(x *xmlNode)
	walk = func(x *xmlNode) {
		switch x.XMLName.Local {
		case "t":
			sb.WriteString(x.Content)
			return
		case "tab":
			sb.WriteByte('\t')
			return
		case "br", "cr":
			sb.WriteByte('\n')
			return
		case "instrText", "delText":
			return
		}
		for i := range x.Nodes {
			walk(&x.Nodes[i])
		}
	}
	walk(n)
	return sb.String()
}

// cellTexts returns the text of every cell in a w:tbl, row by row.
func (n *xmlNode) cellTexts() []string {
	var out []string
	for _, tr := range n.Nodes {
		if tr.XMLName.Local != "tr" {
			continue
		}
		for _, tc := range tr.Nodes {
			if tc.XMLName.Local != "tc" {
				continue
			}
			var lines []string
			for i := range tc.Nodes {
				switch tc.Nodes[i].XMLName.Local {
				case "p":
					lines = append(lines, tc.Nodes[i].paragraphText())
				case "tbl":
					lines = append(lines, tc.Nodes[i].cellTexts()...)
				}
			}
			out = append(out, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return out
}

// naturalLess orders image2.png before image10.png.
func naturalLess(a, b string) bool {
	pa, na := splitTrailingNumber(a)
	pb, nb := splitTrailingNumber(b)
	if pa != pb || na < 0 || nb < 0 {
		return a < b
	}
	return na < nb
}

func splitTrailingNumber(name string) (string, int) {
	stem := strings.TrimSuffix(name, path.Ext(name))
	i := len(stem)
	for i > 0 && unicode.IsDigit(rune(stem[i-1])) {
		i--
	}
	if i == len(stem) {
		return stem, -1
	}
	n, err := strconv.Atoi(stem[i:])
	if err != nil {
		return stem, -1
	}
	return stem[:i], n
}
