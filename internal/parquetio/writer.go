package parquetio

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/billingdash/internal/model"
)

// ProcedureWriter streams procedure summaries into a Parquet file.
type ProcedureWriter struct {
	w     *parquet.GenericWriter[ProcedureRecord]
	count int64
}

// NewProcedureWriter writes snappy-compressed procedure records to out.
func NewProcedureWriter(out io.Writer) *ProcedureWriter {
	return &ProcedureWriter{
		w: parquet.NewGenericWriter[ProcedureRecord](out, parquet.Compression(&parquet.Snappy)),
	}
}

// Write appends summaries to the file.
func (pw *ProcedureWriter) Write(summaries []*model.ProcedureSummary) error {
	recs := make([]ProcedureRecord, len(summaries))
	for i, s := range summaries {
		recs[i] = NewProcedureRecord(s)
	}
	n, err := pw.w.Write(recs)
	pw.count += int64(n)
	if err != nil {
		return fmt.Errorf("write procedure records: %w", err)
	}
	return nil
}

// Count returns the number of records written so far.
func (pw *ProcedureWriter) Count() int64 {
	return pw.count
}

// Close flushes buffered rows and writes the footer.
func (pw *ProcedureWriter) Close() error {
	if err := pw.w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteTransactions writes raw billing lines as TransactionRecords.
func WriteTransactions(out io.Writer, rows []model.RawRow) error {
	recs := make([]TransactionRecord, len(rows))
	for i, raw := range rows {
		recs[i] = NewTransactionRecord(raw)
	}
	w := parquet.NewGenericWriter[TransactionRecord](out, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(recs); err != nil {
		w.Close()
		return fmt.Errorf("write transaction records: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
