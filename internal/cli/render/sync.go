package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/timertimertimer/kfudao/internal/usecase"
)

// SyncRenderer handles rendering of discovery results
type SyncRenderer struct {
	out io.Writer
}

// NewSyncRenderer creates a new sync renderer
func NewSyncRenderer(out io.Writer) *SyncRenderer {
	return &SyncRenderer{out: out}
}

// RenderSyncReport renders warnings from a discovery cycle; a clean cycle prints nothing
func (r *SyncRenderer) RenderSyncReport(report *usecase.SyncReport) error {
	if report == nil || len(report.Errors) == 0 {
		return nil
	}

	color.New(color.FgYellow).Fprintf(r.out, "Skipped %d of %d proposals:\n", report.Failed, report.Events)
	for _, err := range report.Errors {
		fmt.Fprintf(r.out, "  • %s\n", err)
	}
	fmt.Fprintln(r.out)
	return nil
}
