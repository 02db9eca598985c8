/*
PURPOSE:
  Fans estimate records out to the configured journal sinks (JSONL, CSV,
  Redis).

ERROR HANDLING:
  - A failing sink does not stop the others. Errors are joined.

RELATED FILES:
  - internal/output/json.go
  - internal/output/csv.go
  - internal/output/redis.go
*/

package output

import (
	"errors"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/model"
)

// Writer is a destination for estimate records.
type Writer interface {
	Write(r model.Record) error
	Close() error
}

// MultiWriter fans a record out to every writer. A failing writer does not
// stop the others; the errors are joined.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter combines writers. Nil entries are skipped.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	m := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Len reports how many writers are attached.
func (m *MultiWriter) Len() int {
	return len(m.writers)
}

func (m *MultiWriter) Write(r model.Record) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenJournal opens every sink enabled in cfg. The returned writer may have
// no sinks attached, in which case writes are no-ops.
func OpenJournal(cfg config.JournalConfig) (*MultiWriter, error) {
	var writers []Writer

	if cfg.JSONL != "" {
		w, err := NewJSONWriter(cfg.JSONL)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	if cfg.CSV != "" {
		w, err := NewCSVWriter(cfg.CSV)
		if err != nil {
			NewMultiWriter(writers...).Close()
			return nil, err
		}
		writers = append(writers, w)
	}

	if cfg.Redis.Addr != "" {
		writers = append(writers, NewRedisWriter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Key, cfg.Redis.MaxLen))
	}

	return NewMultiWriter(writers...), nil
}
