package valuefmt

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Text renders v in Go syntax, one element per line, with map keys
// sorted. The output is stable, so two dumps can be compared with Diff.
func Text(v codec.Value) string {
	return fmt.Sprintf("%# v", pretty.Formatter(Native(v)))
}

// Diff returns a line diff of a and b, each line prefixed by "- ", "+ " or
// two spaces. It returns "" when a and b are equal.
func Diff(a, b string) string {
	if a == b {
		return ""
	}
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

// Changes counts the inserted and deleted lines of a Diff result.
func Changes(diff string) (added, removed int) {
	for line := range strings.Lines(diff) {
		switch {
		case strings.HasPrefix(line, "+ "):
			added++
		case strings.HasPrefix(line, "- "):
			removed++
		}
	}
	return added, removed
}
