package recorder

import (
	"context"

	"ZoneBacktester/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *RunRecord, _ *model.Result) error { return nil }
func (n *NoopRecorder) ListRuns(_ context.Context, _ int) ([]RunRecord, error)           { return nil, nil }
func (n *NoopRecorder) GetRun(_ context.Context, _ string) (*RunRecord, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) Trades(_ context.Context, _ string) ([]model.Trade, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) Equity(_ context.Context, _ string) ([]float64, error) {
	return nil, ErrNotFound
}
func (n *NoopRecorder) Close() error { return nil }
