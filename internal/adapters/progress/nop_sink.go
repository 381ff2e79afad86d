package progress

import (
	"context"
	"log/slog"

	"github.com/timertimertimer/kfudao/internal/usecase"
)

// NopSink is a no-op implementation of ProgressSink
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() usecase.ProgressSink {
	return &NopSink{}
}

func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

func (n *NopSink) Info(message string) {}

func (n *NopSink) Error(message string) {}

// LogSink writes progress to the logger, for watch and serve where a spinner
// would interleave with other output
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink that logs progress events
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "progress")}
}

func (s *LogSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Stage == "complete" {
		s.log.Info(event.Message)
		return
	}
	s.log.Debug(event.Message, "stage", event.Stage, "current", event.Current, "total", event.Total)
}

func (s *LogSink) Info(message string) { s.log.Info(message) }

func (s *LogSink) Error(message string) { s.log.Error(message) }

var (
	_ usecase.ProgressSink = (*NopSink)(nil)
	_ usecase.ProgressSink = (*LogSink)(nil)
)
