package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/legal"
)

// TransactionSource supplies the transaction history consulted by the
// legal-basis evaluator. The history is externally supplied; nothing here
// confirms the transactions belong to the requesting subject.
type TransactionSource interface {
	Transactions(ctx context.Context) ([]legal.Transaction, error)
}

// TransactionFile reads a JSON array of {date, product} records.
type TransactionFile struct {
	fs  afs.Service
	url string
}

// NewTransactionFile creates a source reading the history at the given URL.
func NewTransactionFile(fs afs.Service, url string) *TransactionFile {
	return &TransactionFile{fs: fs, url: url}
}

// Transactions implements TransactionSource. A missing file yields an empty
// history.
func (t *TransactionFile) Transactions(ctx context.Context) ([]legal.Transaction, error) {
	exists, err := t.fs.Exists(ctx, t.url)
	if err != nil {
		return nil, fmt.Errorf("transaction history %s: %w", t.url, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := t.fs.DownloadWithURL(ctx, t.url)
	if err != nil {
		return nil, fmt.Errorf("transaction history %s: %w", t.url, err)
	}
	var txns []legal.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		return nil, fmt.Errorf("transaction history %s: %w", t.url, err)
	}
	return txns, nil
}

// StaticTransactions is a TransactionSource over a fixed history, used by
// tests and the scenario harness.
type StaticTransactions []legal.Transaction

// Transactions implements TransactionSource.
func (s StaticTransactions) Transactions(context.Context) ([]legal.Transaction, error) {
	return s, nil
}
