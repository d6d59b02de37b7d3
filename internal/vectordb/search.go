package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders search results as human-readable text.
func FormatResults(results []SearchResult, metric Metric) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d (score: %.4f) ---\n", i+1, metric.Score(r.Distance)))

		md := r.Metadata
		if md.FileName != "" {
			location := md.FileName
			if md.Type == TypeOCR {
				location += " (image content)"
			} else {
				location += fmt.Sprintf(" #%d", md.ChunkIndex)
			}
			sb.WriteString(fmt.Sprintf("File: %s\n", location))
		}
		if md.ImagePath != "" {
			sb.WriteString(fmt.Sprintf("Image: %s\n", md.ImagePath))
		}

		sb.WriteString("\n")
		sb.WriteString(r.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
