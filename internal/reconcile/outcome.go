// Package reconcile matches catalog products against accounting items by SKU.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"ledgersync/internal/catalog"
)

type Status string

const (
	StatusSkipped  Status = "skipped"
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
	StatusFatal    Status = "fatal"
)

// MissingSKUReason is the reason attached to products without a SKU.
const MissingSKUReason = "missing SKU"

// Outcome is the classified result for one product, or the single fatal
// result of a run that failed before processing.
type Outcome struct {
	ProductID string `json:"product_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
}

func Skipped(p catalog.ProductRecord, reason string) Outcome {
	return Outcome{ProductID: p.ID, Status: StatusSkipped, Message: reason}
}

func Found(p catalog.ProductRecord) Outcome {
	return Outcome{ProductID: p.ID, SKU: p.SKU, Status: StatusFound}
}

func NotFound(p catalog.ProductRecord) Outcome {
	return Outcome{ProductID: p.ID, SKU: p.SKU, Status: StatusNotFound}
}

func Failed(p catalog.ProductRecord, message string) Outcome {
	return Outcome{ProductID: p.ID, SKU: p.SKU, Status: StatusError, Message: message}
}

func Fatal(err error) Outcome {
	return Outcome{Status: StatusFatal, Message: err.Error()}
}

// String renders "<STATUS> <sku> - <message>", leaving out empty parts.
func (o Outcome) String() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(string(o.Status)))
	if o.SKU != "" {
		b.WriteString(" ")
		b.WriteString(o.SKU)
	}
	if o.Message != "" {
		b.WriteString(" - ")
		b.WriteString(o.Message)
	}
	return b.String()
}

// ItemError is a failed lookup for a single product.
type ItemError struct {
	SKU string
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("lookup of %q failed: %v", e.SKU, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Report is the result of one run.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcomes   []Outcome      `json:"outcomes"`
	Counts     map[Status]int `json:"counts"`
}

// Fatal reports whether the run stopped before processing any product.
func (r *Report) Fatal() bool {
	return len(r.Outcomes) == 1 && r.Outcomes[0].Status == StatusFatal
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
	r.Counts = make(map[Status]int)
	for _, o := range r.Outcomes {
		r.Counts[o.Status]++
	}
}

// Summary is a one-line tally of the run.
func (r *Report) Summary() string {
	if r.Fatal() {
		return "sync failed: " + r.Outcomes[0].Message
	}
	return fmt.Sprintf("%d processed: %d found, %d not found, %d skipped, %d errors",
		len(r.Outcomes), r.Counts[StatusFound], r.Counts[StatusNotFound], r.Counts[StatusSkipped], r.Counts[StatusError])
}
