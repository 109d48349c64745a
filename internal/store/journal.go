package store

import (
	"context"
	"fmt"
	"time"
)

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Outcome of one intake attempt.
type Outcome string

const (
	OutcomeAdded      Outcome = "added"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeFailed     Outcome = "failed"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAdded, OutcomeUnresolved, OutcomeFailed:
		return true
	}
	return false
}

// Entry is one row of the intake journal.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
	Outcome   Outcome   `json:"outcome"`
	Title     string    `json:"title,omitempty"`
	Company   string    `json:"company,omitempty"`
	Source    string    `json:"source,omitempty"`
	BatchID   string    `json:"batchId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

type ListOpts struct {
	Outcome Outcome // empty means all
	BatchID string
	Limit   int
}

// Record appends e to the journal. A zero CreatedAt is set to now.
func (d *DB) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO intake_log(created_at, url, outcome, title, company, source, batch_id, detail)
VALUES(?,?,?,?,?,?,?,?);`,
		e.CreatedAt.UTC().Format(timeLayout), e.URL, string(e.Outcome),
		e.Title, e.Company, e.Source, e.BatchID, e.Detail)
	if err != nil {
		return fmt.Errorf("record intake: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (d *DB) List(ctx context.Context, opts ListOpts) ([]Entry, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 50
	}

	query := `
SELECT id, created_at, url, outcome, title, company, source, batch_id, detail
FROM intake_log
WHERE (? = '' OR outcome = ?)
  AND (? = '' OR batch_id = ?)
ORDER BY id DESC
LIMIT ?;`

	rows, err := d.Pool.QueryContext(ctx, query,
		string(opts.Outcome), string(opts.Outcome),
		opts.BatchID, opts.BatchID,
		opts.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created, outcome string
		if err := rows.Scan(&e.ID, &created, &e.URL, &outcome, &e.Title, &e.Company, &e.Source, &e.BatchID, &e.Detail); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes entries older than before.
func (d *DB) Prune(ctx context.Context, before time.Time) (deleted int64, err error) {
	res, err := d.Pool.ExecContext(ctx, `
DELETE FROM intake_log
WHERE created_at < ?;
`, before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune intake log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
