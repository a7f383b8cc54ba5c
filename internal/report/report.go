// Package report renders audit results as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mtb04313/mtb-scripts/internal/audit"
	"github.com/mtb04313/mtb-scripts/internal/config"
)

// bannerWidth is the width of the "=" rule around the summary.
const bannerWidth = 37

// TextWriter prints the console report. It implements audit.Observer so
// lines appear as each dependency is checked.
type TextWriter struct {
	w      io.Writer
	styles Styles
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(w io.Writer, color bool) *TextWriter {
	return &TextWriter{
		w:      w,
		styles: NewStyles(w, color),
	}
}

// GroupStarted prints the "--- <label> ---" header.
func (t *TextWriter) GroupStarted(g *audit.Group) {
	fmt.Fprintln(t.w, t.styles.Paint(t.styles.Header, "--- "+g.Label+" ---"))
}

// ResultReady prints one dependency line.
func (t *TextWriter) ResultReady(g *audit.Group, r *audit.Result) {
	switch r.State {
	case audit.StateClean:
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.OK, "[OK]")+" "+r.RepoPath)
	case audit.StateDirty:
		fmt.Fprintln(t.w)
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Dirty, r.RepoPath))
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Status, r.Status))
		fmt.Fprintln(t.w)
	case audit.StateMissing:
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Missing, "[MISSING]")+" "+r.RepoPath+": "+r.Error)
	}
}

// Summary prints the dirty-count banner. Nothing is printed when every
// dependency is clean.
func (t *TextWriter) Summary(rep *audit.Report) {
	if rep.Dirty > 0 {
		rule := strings.Repeat("=", bannerWidth)
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Banner, rule))
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Banner, fmt.Sprintf("%d deps have uncommitted changes!", rep.Dirty)))
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Banner, rule))
	}
	if rep.Missing > 0 {
		fmt.Fprintln(t.w, t.styles.Paint(t.styles.Missing, fmt.Sprintf("%d deps could not be found in %s", rep.Missing, rep.AssetFolder)))
	}
}

// WriteText prints a complete report at once.
func (t *TextWriter) WriteText(rep *audit.Report) {
	for i := range rep.Groups {
		g := &rep.Groups[i]
		t.GroupStarted(g)
		for j := range g.Results {
			t.ResultReady(g, &g.Results[j])
		}
	}
	t.Summary(rep)
}

// Write renders rep in the given format. Text output is non-streaming here;
// use TextWriter as an audit.Observer for incremental output.
func Write(w io.Writer, rep *audit.Report, format config.Format, color bool) error {
	switch format {
	case config.FormatText, "":
		NewTextWriter(w, color).WriteText(rep)
		return nil
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}
