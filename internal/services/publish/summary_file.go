package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
)

var unsafeURLChars = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)

// SummaryDocument is a summary file split into its header fields and body
type SummaryDocument struct {
	Title string
	URL   string
	Date  string
	Body  string
}

// ParseSummary splits a document produced by RenderSummary
func ParseSummary(content string) (*SummaryDocument, error) {
	doc := &SummaryDocument{}

	rest := content
	for doc.Date == "" {
		line, remainder, ok := strings.Cut(rest, "\n")
		if !ok {
			return nil, fmt.Errorf("summary file header is truncated")
		}
		rest = remainder

		switch {
		case line == "":
		case strings.HasPrefix(line, "# Summary: "):
			doc.Title = strings.TrimPrefix(line, "# Summary: ")
		case strings.HasPrefix(line, "**URL**: "):
			doc.URL = strings.TrimPrefix(line, "**URL**: ")
		case strings.HasPrefix(line, "**Date**: "):
			doc.Date = strings.TrimPrefix(line, "**Date**: ")
		default:
			return nil, fmt.Errorf("unexpected summary header line %q", line)
		}
	}

	if doc.Title == "" || doc.URL == "" {
		return nil, fmt.Errorf("summary file header is incomplete")
	}
	doc.Body = strings.TrimPrefix(rest, "\n")
	return doc, nil
}

// ReadSummary reads and parses a summary file
func ReadSummary(path string) (*SummaryDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSummary(string(data))
}

// QuickSummaryPath returns <dir>/summary_<unix>_<url suffix>.md, where the
// suffix is the last 30 characters of url with non-word characters replaced
func QuickSummaryPath(outputDir, url string, now time.Time) string {
	suffix := []rune(unsafeURLChars.ReplaceAllString(url, "_"))
	if len(suffix) > 30 {
		suffix = suffix[len(suffix)-30:]
	}
	return filepath.Join(outputDir, fmt.Sprintf("summary_%d_%s.md", now.Unix(), string(suffix)))
}

// WriteQuickSummary writes the stand-alone summary produced by the
// summarize command
func WriteQuickSummary(outputDir, url, summary string, now time.Time) (string, error) {
	path := QuickSummaryPath(outputDir, url, now)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	content := fmt.Sprintf("# Summary for %s\n\n%s", url, summary)
	if err := atomicfile.WriteData(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}
