package db

import (
	"github.com/jackc/pgx/v5"
)

// CopyRow is a record that can be written with COPY.
type CopyRow interface {
	CopyValues() []any
}

// ChannelSource implements pgx.CopyFromSource by reading rows from a channel.
// This provides natural backpressure between the file reader and COPY writer.
//
// With a positive limit, Next reports false after limit rows so the caller
// can commit one COPY per batch and call NextBatch to continue on the same
// channel.
type ChannelSource[T CopyRow] struct {
	ch      <-chan T
	current T
	limit   int
	taken   int
	drained bool
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel. A limit of
// zero streams until the channel is closed.
func NewChannelSource[T CopyRow](ch <-chan T, limit int) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, limit: limit}
}

// Next advances to the next row. Returns false when the channel is closed or
// the batch limit is reached.
func (s *ChannelSource[T]) Next() bool {
	if s.drained || (s.limit > 0 && s.taken >= s.limit) {
		return false
	}
	row, ok := <-s.ch
	if !ok {
		s.drained = true
		return false
	}
	s.current = row
	s.taken++
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource[T]) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *ChannelSource[T]) Err() error {
	return s.err
}

// NextBatch resets the batch counter. It returns false once the channel has
// been drained.
func (s *ChannelSource[T]) NextBatch() bool {
	if s.drained {
		return false
	}
	s.taken = 0
	return true
}

// Taken returns the number of rows handed out in the current batch.
func (s *ChannelSource[T]) Taken() int {
	return s.taken
}

// Compile-time check that ChannelSource satisfies the interface.
var _ pgx.CopyFromSource = (*ChannelSource[CopyRow])(nil)
