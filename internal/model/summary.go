package model

import "time"

// ImportSummary captures metrics from a single file import.
type ImportSummary struct {
	FilePath         string
	FileSHA256       string
	UploadID         *int64
	BatchID          string
	RowsRead         int64
	RowsImported     int64
	RowsRejected     int64
	Procedures       int
	ProceduresNew    int
	ProceduresUpdate int
	Patients         int
	DurationParse    time.Duration
	DurationStage    time.Duration
	DurationFinalize time.Duration
	DurationTotal    time.Duration
}
