package library

import (
	"fmt"
	"log/slog"
)

// Ledger is the append-only log of circulation events. Entries are never
// updated or removed.
type Ledger interface {
	Append(t Transaction) error
	LoadAll() ([]Transaction, error)
	Close() error
}

// FileLedger keeps the ledger in a whitespace-delimited text file.
type FileLedger struct {
	repo *fileRepository[Transaction]
}

func NewFileLedger(path string, log *slog.Logger) *FileLedger {
	return &FileLedger{repo: newFileRepository[Transaction](path, transactionCodec{}, nil, log)}
}

func (l *FileLedger) Append(t Transaction) error {
	if err := l.repo.AppendOne(t); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (l *FileLedger) LoadAll() ([]Transaction, error) {
	return l.repo.LoadAll()
}

func (l *FileLedger) Close() error { return nil }
