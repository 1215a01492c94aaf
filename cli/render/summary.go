package render

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/crucible/harness"
	"github.com/pithecene-io/crucible/types"
)

// Status colors.
var (
	colorPassed  = lipgloss.Color("#22C55E")
	colorFailed  = lipgloss.Color("#EF4444")
	colorSkipped = lipgloss.Color("#6B7280")
	colorWarn    = lipgloss.Color("#F59E0B")
)

// RenderRun writes a run result. Table output is a per-sample summary;
// json and yaml dump the whole result.
func (r *Renderer) RenderRun(result *harness.RunResult) error {
	if r.format != FormatTable {
		return r.Render(result)
	}

	styles := newStyles(r.out, r.noColor)

	fmt.Fprintf(r.out, "%s %s  run %s\n",
		styles.bold.Render("crucible"), result.Project, result.RunID)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	// Status goes last: styled cells carry escape codes that would skew
	// tabwriter's column widths.
	fmt.Fprintln(w, "SAMPLE\tEXIT\tDURATION\tLOG\tSTATUS")
	for _, s := range result.Samples {
		exit := ""
		if s.Status != types.SampleSkipped {
			exit = fmt.Sprintf("%d", s.ExitCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Name,
			exit,
			time.Duration(s.DurationMS)*time.Millisecond,
			s.LogPath,
			styles.status(s.Status),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	passed, failed, skipped := result.Counts()
	fmt.Fprintf(r.out, "\n%s  %d passed, %d failed, %d skipped in %s\n",
		styles.outcome(result.Outcome),
		passed, failed, skipped,
		time.Duration(result.DurationMS)*time.Millisecond,
	)
	if result.Error != "" {
		fmt.Fprintf(r.out, "%s %s\n", styles.failed.Render("error:"), result.Error)
	}
	return nil
}

type styles struct {
	bold, passed, failed, skipped, warn lipgloss.Style
}

// newStyles binds styles to out so color detection follows the actual
// destination rather than stdout.
func newStyles(out io.Writer, noColor bool) styles {
	re := lipgloss.NewRenderer(out)
	if noColor {
		return styles{
			bold:    re.NewStyle(),
			passed:  re.NewStyle(),
			failed:  re.NewStyle(),
			skipped: re.NewStyle(),
			warn:    re.NewStyle(),
		}
	}
	return styles{
		bold:    re.NewStyle().Bold(true),
		passed:  re.NewStyle().Foreground(colorPassed).Bold(true),
		failed:  re.NewStyle().Foreground(colorFailed).Bold(true),
		skipped: re.NewStyle().Foreground(colorSkipped),
		warn:    re.NewStyle().Foreground(colorWarn).Bold(true),
	}
}

func (s styles) status(st types.SampleStatus) string {
	switch st {
	case types.SamplePassed:
		return s.passed.Render(string(st))
	case types.SampleFailed:
		return s.failed.Render(string(st))
	default:
		return s.skipped.Render(string(st))
	}
}

func (s styles) outcome(o types.OutcomeStatus) string {
	switch o {
	case types.OutcomeSuccess:
		return s.passed.Render(string(o))
	case types.OutcomeInterrupted:
		return s.warn.Render(string(o))
	default:
		return s.failed.Render(string(o))
	}
}
