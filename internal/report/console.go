package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/diff"
	"github.com/rohmanhakim/test-redirection/internal/runner"
)

type Options struct {
	// Verbose shows the observed URL of passing cases.
	Verbose bool
	// OnlyErrors hides passing cases.
	OnlyErrors bool
	NoColor    bool
}

type palette struct {
	red       *color.Color
	green     *color.Color
	yellow    *color.Color
	grey      *color.Color
	bold      *color.Color
	redMark   *color.Color
	greenMark *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		red:       color.New(color.FgRed),
		green:     color.New(color.FgGreen),
		yellow:    color.New(color.FgYellow),
		grey:      color.New(color.FgHiBlack),
		bold:      color.New(color.Bold),
		redMark:   color.New(color.FgRed, color.ReverseVideo),
		greenMark: color.New(color.FgGreen, color.ReverseVideo),
	}
	for _, c := range []*color.Color{p.red, p.green, p.yellow, p.grey, p.bold, p.redMark, p.greenMark} {
		if noColor {
			c.DisableColor()
		}
	}
	return p
}

// Console renders results and the summary as text. It is safe for
// concurrent use; each event is written as one block.
type Console struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
	p    palette
}

func NewConsole(out io.Writer, opts Options) *Console {
	return &Console{
		out:  out,
		opts: opts,
		p:    newPalette(opts.NoColor),
	}
}

// RecordResult prints one classified case.
func (c *Console) RecordResult(result runner.TestResult) {
	if result.Passed() && c.opts.OnlyErrors {
		return
	}

	var sb strings.Builder
	sb.WriteString(c.p.grey.Sprintf("[%d/%d] ", result.Index, result.Total))
	sb.WriteString(c.headline(result))
	sb.WriteByte('\n')

	switch result.Status {
	case runner.StatusSuccess:
		if c.opts.Verbose {
			sb.WriteString(c.p.grey.Sprintf("    observed: %s\n", result.Observed))
		}
	case runner.StatusMismatch:
		sb.WriteByte('\n')
		sb.WriteString(c.renderDiff(result.Diff))
		sb.WriteString("\n\n")
	case runner.StatusLoopError:
		sb.WriteString(c.loopDetail(result))
	}

	c.write(sb.String())
}

// RecordSummary prints the totals followed by a recap of every failure.
func (c *Console) RecordSummary(summary aggregator.Summary) {
	var sb strings.Builder
	sb.WriteByte('\n')

	if summary.Success() {
		sb.WriteString(c.p.green.Sprint("🎉 All redirection tests passed!"))
		sb.WriteByte('\n')
		c.write(sb.String())
		return
	}

	plural := ""
	if summary.Failed > 1 {
		plural = "s"
	}
	sb.WriteString(c.p.red.Sprintf("Redirection tests failed with %d error%s", summary.Failed, plural))
	if !summary.AllFailed() {
		sb.WriteString(c.p.green.Sprintf(", %d passed", summary.Passed))
	}
	sb.WriteString(c.p.grey.Sprintf(" (%d total)", summary.Total))
	sb.WriteString(":\n\n")

	for _, failure := range summary.Failures {
		sb.WriteString(c.headline(failure))
		sb.WriteByte('\n')
		switch failure.Status {
		case runner.StatusMismatch:
			sb.WriteByte('\n')
			sb.WriteString(c.renderDiff(failure.Diff))
			sb.WriteString("\n\n")
		default:
			sb.WriteString(c.loopDetail(failure))
			sb.WriteByte('\n')
		}
	}

	c.write(sb.String())
}

// RecordFatal prints an error that stopped the run before any case ran.
func (c *Console) RecordFatal(err error) {
	c.write(c.p.red.Sprintf("❌ %v", err) + "\n")
}

func (c *Console) headline(result runner.TestResult) string {
	arrow := c.p.grey.Sprint("→")
	switch result.Status {
	case runner.StatusSuccess:
		return fmt.Sprintf("✅ %s %s %s", result.From, arrow, result.To)
	case runner.StatusMismatch:
		return fmt.Sprintf("🚫 %s %s %s", result.From, arrow, result.To)
	default:
		if result.From == "" && result.To == "" {
			return c.p.yellow.Sprint("🔁 case did not complete")
		}
		return fmt.Sprintf("🔁 %s %s %s", result.From, arrow, result.To)
	}
}

func (c *Console) loopDetail(result runner.TestResult) string {
	var sb strings.Builder
	sb.WriteString(c.p.yellow.Sprintf("    possible infinite redirect: %s\n", result.Err))
	if result.Observed != "" {
		sb.WriteString(c.p.grey.Sprintf("    last URL reached: %s\n", result.Observed))
	}
	return sb.String()
}

func (c *Console) renderDiff(d *diff.Diff) string {
	if d == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(c.p.red.Sprint("- Expected"))
	sb.WriteByte('\n')
	sb.WriteString(c.p.green.Sprint("+ Received"))
	sb.WriteString("\n\n")

	for i, line := range d.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch line.Kind {
		case diff.LineRemoved:
			sb.WriteString(c.p.red.Sprint("- "))
			sb.WriteString(c.renderSegments(line, c.p.red, c.p.redMark))
		case diff.LineAdded:
			sb.WriteString(c.p.green.Sprint("+ "))
			sb.WriteString(c.renderSegments(line, c.p.green, c.p.greenMark))
		default:
			sb.WriteString(c.p.grey.Sprint("  " + line.Text))
		}
	}
	return sb.String()
}

func (c *Console) renderSegments(line diff.Line, plain *color.Color, marked *color.Color) string {
	if len(line.Segments) == 0 {
		return plain.Sprint(line.Text)
	}
	var sb strings.Builder
	for _, s := range line.Segments {
		if s.Kind == diff.SegmentEqual {
			sb.WriteString(plain.Sprint(s.Text))
		} else {
			sb.WriteString(marked.Sprint(s.Text))
		}
	}
	return sb.String()
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}
