// Package analytics builds read-only reports over the persisted usage and
// payment history. It adds no invariants of its own: everything here is
// aggregation over records fetched from the store.
package analytics

import (
	"context"
	"fmt"
	"math"

	"parkease/internal/storage"
)

const timestampLayout = "2006-01-02 15:04:05"

type Reporter struct {
	store *storage.Store
}

func NewReporter(store *storage.Store) *Reporter {
	return &Reporter{store: store}
}

// UsageReport renders one line per usage episode, oldest first. Open
// episodes show a dash in place of the exit timestamp.
func (r *Reporter) UsageReport(ctx context.Context) ([]string, error) {
	usages, err := r.store.ListUsages(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(usages))
	for _, u := range usages {
		exit := "-"
		if u.ExitTime.Valid {
			exit = u.ExitTime.Time.Format(timestampLayout)
		}
		lines = append(lines, fmt.Sprintf("#%d : Spot %d - %s in @ %s / out @ %s",
			u.ID, u.SpotID, u.Plate, u.EntryTime.Format(timestampLayout), exit))
	}
	return lines, nil
}

// Payments returns the raw payment records for listing.
func (r *Reporter) Payments(ctx context.Context) ([]storage.PaymentRecord, error) {
	return r.store.ListPayments(ctx)
}

// TotalRevenue sums all collected payments, rounded to cents.
func (r *Reporter) TotalRevenue(ctx context.Context) (float64, error) {
	payments, err := r.store.ListPayments(ctx)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return math.Round(total*100) / 100, nil
}
