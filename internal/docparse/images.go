package docparse

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// rasterExts are image formats worth sending to OCR. Vector formats such as
// EMF, WMF and SVG are skipped.
var rasterExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

func isRaster(name string) bool {
	return rasterExts[strings.ToLower(filepath.Ext(name))]
}

func docStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// imageWriter writes a document's images as <imageDir>/<stem>/<stem>_<n><ext>.
type imageWriter struct {
	dir   string
	stem  string
	paths []string
}

func newImageWriter(imageDir, docPath string) *imageWriter {
	stem := docStem(docPath)
	return &imageWriter{dir: filepath.Join(imageDir, stem), stem: stem}
}

func (w *imageWriter) write(ext string, r io.Reader) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating image dir: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%d%s", w.stem, len(w.paths), strings.ToLower(ext)))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("writing image %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	w.paths = append(w.paths, path)
	return nil
}

// copyLocal copies an image referenced from a markdown or HTML document.
// Remote and data URLs, missing files and non-raster images are ignored.
func (w *imageWriter) copyLocal(docPath, ref string) error {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return nil
	}
	if u, err := url.Parse(ref); err == nil {
		if u.Scheme != "" && u.Scheme != "file" {
			return nil
		}
		ref = u.Path
	}
	if !isRaster(ref) {
		return nil
	}

	src := ref
	if !filepath.IsAbs(src) {
		src = filepath.Join(filepath.Dir(docPath), filepath.FromSlash(ref))
	}
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return w.write(filepath.Ext(src), f)
}
