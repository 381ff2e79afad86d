package progress

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/timertimertimer/kfudao/internal/usecase"
)

func TestSpinnerProgressReporter(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	r := newSpinnerProgressReporter(&buf)
	ctx := context.Background()

	// the spinner only animates on a terminal, so a buffer sees the plain lines
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: "discovery", Message: "Fetching proposals...", Spinner: true})
	assert.Equal(t, " Fetching proposals...", r.spinner.Suffix)

	r.Info("connected")

	r.OnProgress(ctx, usecase.ProgressEvent{Stage: "complete", Message: "Synced 3 proposals"})
	assert.False(t, r.spinner.Active())

	out := buf.String()
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "✓ Synced 3 proposals")

	r.Stop()
	assert.False(t, r.spinner.Active())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewLogSink(log)

	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "discovery", Message: "Resolving proposal 1/2", Current: 1, Total: 2})
	sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "complete", Message: "Synced 2 proposals"})
	sink.Error("boom")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "stage=discovery")
	assert.Contains(t, out, `msg="Synced 2 proposals"`)
	assert.Contains(t, out, "level=ERROR msg=boom")
	assert.Contains(t, out, "component=progress")
}
