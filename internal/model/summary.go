package model

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary captures metrics from a single analysis run.
type RunSummary struct {
	CatalogPath   string
	CatalogSHA256 string
	NADACPath     string
	RunID         uuid.UUID
	CaptureRate   string
	Mode          ResolutionMode

	RowsRead        int64
	RowsRejected    int64
	DrugsAnalyzed   int64
	IRAFlagged      int64
	PennyFlagged    int64
	Opportunities   int64
	RowsExported    int64
	RegistryVersion uint64

	DurationRead    time.Duration
	DurationAnalyze time.Duration
	DurationExport  time.Duration
	DurationTotal   time.Duration
}
