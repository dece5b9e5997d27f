package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type LineKind int

const (
	LineEqual LineKind = iota
	LineRemoved
	LineAdded
)

type SegmentKind int

const (
	SegmentEqual SegmentKind = iota
	SegmentDelete
	SegmentInsert
)

// Segment is a run of characters inside a changed line.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Line is one line of a unified diff. Removed and added lines that replace
// each other carry Segments marking the changed characters.
type Line struct {
	Kind     LineKind
	Text     string
	Segments []Segment
}

// Diff is a line-level unified diff of an expected and an observed string.
type Diff struct {
	Expected string
	Observed string
	Lines    []Line
}

// Unified compares expected with observed line by line, then character by
// character inside every replaced line. It has no knowledge of URL structure.
func Unified(expected string, observed string) *Diff {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(expected, observed)
	lineDiffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	d := &Diff{Expected: expected, Observed: observed}

	var removed, added []string
	flush := func() {
		d.Lines = append(d.Lines, pairLines(dmp, removed, added)...)
		removed, added = nil, nil
	}

	for _, chunk := range lineDiffs {
		lines := splitLines(chunk.Text)
		switch chunk.Type {
		case diffmatchpatch.DiffDelete:
			removed = append(removed, lines...)
		case diffmatchpatch.DiffInsert:
			added = append(added, lines...)
		default:
			flush()
			for _, l := range lines {
				d.Lines = append(d.Lines, Line{Kind: LineEqual, Text: l})
			}
		}
	}
	flush()

	return d
}

// HasChanges reports whether any line was removed or added.
func (d *Diff) HasChanges() bool {
	for _, l := range d.Lines {
		if l.Kind != LineEqual {
			return true
		}
	}
	return false
}

// String renders the diff as plain text.
func (d *Diff) String() string {
	var sb strings.Builder
	sb.WriteString("- Expected\n+ Received\n\n")
	for i, l := range d.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch l.Kind {
		case LineRemoved:
			sb.WriteString("- ")
		case LineAdded:
			sb.WriteString("+ ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// pairLines emits removed lines followed by added lines. The i-th removed
// line is paired with the i-th added line for intra-line segments.
func pairLines(dmp *diffmatchpatch.DiffMatchPatch, removed, added []string) []Line {
	out := make([]Line, 0, len(removed)+len(added))
	removedLines := make([]Line, len(removed))
	addedLines := make([]Line, len(added))

	for i, r := range removed {
		removedLines[i] = Line{Kind: LineRemoved, Text: r}
	}
	for i, a := range added {
		addedLines[i] = Line{Kind: LineAdded, Text: a}
	}

	for i := 0; i < len(removed) && i < len(added); i++ {
		chars := dmp.DiffCleanupSemantic(dmp.DiffMain(removed[i], added[i], false))
		for _, c := range chars {
			switch c.Type {
			case diffmatchpatch.DiffDelete:
				removedLines[i].Segments = append(removedLines[i].Segments, Segment{Kind: SegmentDelete, Text: c.Text})
			case diffmatchpatch.DiffInsert:
				addedLines[i].Segments = append(addedLines[i].Segments, Segment{Kind: SegmentInsert, Text: c.Text})
			default:
				removedLines[i].Segments = append(removedLines[i].Segments, Segment{Kind: SegmentEqual, Text: c.Text})
				addedLines[i].Segments = append(addedLines[i].Segments, Segment{Kind: SegmentEqual, Text: c.Text})
			}
		}
	}

	out = append(out, removedLines...)
	return append(out, addedLines...)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
