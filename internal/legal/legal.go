// Package legal computes whether erasure is legally permitted from the
// subject's transaction history and the policy retention thresholds.
package legal

import (
	"strings"
	"time"

	"github.com/privhq/dsarkit/internal/dsar"
)

// Reason codes enumerated for the audit trail.
const (
	ReasonLegalHold       = "legal_hold"
	ReasonRetainFinancial = "retain_financial_records"
	ReasonRetainService   = "retain_active_service"
)

// Transaction is one entry of externally supplied transaction history.
// Date is ISO-8601; unparseable dates are skipped, not fatal.
type Transaction struct {
	Date    string `json:"date" yaml:"date"`
	Product string `json:"product" yaml:"product"`
}

// Basis is the evaluation result.
type Basis struct {
	Hold                   bool
	RetainFinancialRecords bool
	RetainActiveService    bool
	AllowErasure           bool
	Reasons                []string
}

// Evaluator computes the legal basis for erasure. Now is injected so that
// retention ages are deterministic under test; a nil Now means time.Now.
type Evaluator struct {
	Now func() time.Time
}

// Evaluate applies the retention rules:
//
//   - financial retention: any transaction younger (in whole UTC days) than
//     Retention.FinancialTransactionDays, when that threshold is positive
//   - active service: any transaction whose product contains "subscription"
//     (case-insensitive) younger than Retention.ActiveServiceDays
//
// AllowErasure is true only when neither rule triggers and no hold is set.
func (e Evaluator) Evaluate(hold bool, retention dsar.RetentionPolicy, txns []Transaction) Basis {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	nowUTC := now().UTC()

	b := Basis{Hold: hold}
	for _, t := range txns {
		ts, ok := parseDate(t.Date)
		if !ok {
			continue
		}
		age := int(nowUTC.Sub(ts).Hours() / 24)
		if retention.FinancialTransactionDays > 0 && age < retention.FinancialTransactionDays {
			b.RetainFinancialRecords = true
		}
		if retention.ActiveServiceDays > 0 &&
			strings.Contains(strings.ToLower(t.Product), "subscription") &&
			age < retention.ActiveServiceDays {
			b.RetainActiveService = true
		}
	}

	if b.Hold {
		b.Reasons = append(b.Reasons, ReasonLegalHold)
	}
	if b.RetainFinancialRecords {
		b.Reasons = append(b.Reasons, ReasonRetainFinancial)
	}
	if b.RetainActiveService {
		b.Reasons = append(b.Reasons, ReasonRetainService)
	}
	b.AllowErasure = len(b.Reasons) == 0
	return b
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
