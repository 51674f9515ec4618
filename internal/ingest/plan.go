package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/normalize"
)

// PlanResult describes what an import of a file would do, without writing.
type PlanResult struct {
	FilePath     string
	FileSHA256   string
	Header       []string
	RowsRead     int64
	RowsRejected int64
	Rejections   map[string]int64
	Procedures   int
	Patients     int
	MinService   *time.Time
	MaxService   *time.Time
	SurgeryTypes map[string]int // type code -> procedures
	Carriers     map[string]int // primary carrier -> procedures
	Statuses     map[model.Status]int
}

// Plan parses and aggregates a file in memory and reports its contents.
func Plan(ctx context.Context, log zerolog.Logger, path string) (*PlanResult, error) {
	sha, err := normalize.FileHash(path)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseParse, Err: err}
	}
	src, err := OpenSource(path, log)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseParse, Err: err}
	}
	defer src.Close()

	res := &PlanResult{
		FilePath:     path,
		FileSHA256:   sha,
		Header:       src.Header(),
		Rejections:   make(map[string]int64),
		SurgeryTypes: make(map[string]int),
		Carriers:     make(map[string]int),
		Statuses:     make(map[model.Status]int),
	}

	var txns []*model.Transaction
	read, rejected, err := readTransactions(ctx, src, zerolog.Nop(), func(t *model.Transaction) error {
		txns = append(txns, t)
		return nil
	}, func(err error) {
		res.Rejections[err.Error()]++
	})
	if err != nil {
		return nil, &PipelineError{Phase: PhaseParse, Err: err}
	}
	res.RowsRead = read
	res.RowsRejected = rejected

	summaries := Aggregate(txns)
	res.Procedures = len(summaries)
	res.Patients = CountPatients(txns)
	for _, s := range summaries {
		res.MinService = minDate(res.MinService, &s.DateOfService)
		res.MaxService = maxDate(res.MaxService, &s.DateOfService)
		res.SurgeryTypes[deref(s.TypeCode, "(none)")]++
		res.Carriers[deref(s.PrimaryCarrier, "(none)")]++
		res.Statuses[s.Status]++
	}
	return res, nil
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
