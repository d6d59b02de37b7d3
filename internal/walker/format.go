package walker

import (
	"path/filepath"
	"strings"
)

// Format identifies the container format of a document.
type Format string

const (
	FormatDocx     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// extensionToFormat maps file extensions to document formats.
var extensionToFormat = map[string]Format{
	".docx":     FormatDocx,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".txt":      FormatText,
	".text":     FormatText,
}

// DetectFormat returns the document format for a file name, or "" when the
// extension is not a supported document type.
func DetectFormat(name string) Format {
	return extensionToFormat[strings.ToLower(filepath.Ext(name))]
}

// isEditorArtifact reports whether name is a lock, backup or temp file left
// behind by an editor rather than a document.
func isEditorArtifact(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "~$"): // Word owner file
		return true
	case strings.HasPrefix(name, ".~lock."): // LibreOffice
		return true
	case strings.HasPrefix(name, ".#"): // Emacs
		return true
	case strings.HasSuffix(lower, ".tmp"), strings.HasSuffix(name, "~"):
		return true
	}
	return false
}
