package diff

import (
	"fmt"
	"strings"
)

// RenderNumbered renders the hunks of one file for prompt consumption. Every
// change line is prefixed with the line number a review comment for it would
// anchor to: added and context lines use the new-file number, deleted lines
// the old-file number. Hunk headers are passed through verbatim.
func RenderNumbered(file FileDiff) string {
	var sb strings.Builder
	for _, chunk := range file.Chunks {
		sb.WriteString(chunk.Header)
		sb.WriteByte('\n')
		for _, line := range chunk.Lines {
			num := line.NewLine
			if line.Kind == Deleted {
				num = line.OldLine
			}
			fmt.Fprintf(&sb, "%d %s\n", num, line.Content)
		}
	}
	return sb.String()
}
