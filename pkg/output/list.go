package output

import (
	"fmt"
	"strings"
)

// formatList prints one absolute path per line. Warnings and statistics are
// appended as comment lines so the path lines stay machine readable.
func (f *formatter) formatList(result *Result) string {
	f.log.Debug("Formatting list output")

	var builder strings.Builder
	for _, file := range result.Files {
		builder.WriteString(file.Path)
		builder.WriteString("\n")
	}

	for _, w := range result.Warnings {
		builder.WriteString("# warning: ")
		builder.WriteString(w.Message)
		builder.WriteString("\n")
	}

	if f.config.WithStats && result.Stats != nil {
		s := result.Stats
		builder.WriteString(fmt.Sprintf("# files: %d, directories: %d, skipped: %d, warnings: %d\n",
			s.FilesMatched, s.DirsVisited, s.EntriesSkipped, s.Warnings))
	}

	return builder.String()
}
