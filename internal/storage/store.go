package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("record already exists")
	ErrNoOpenUsage    = errors.New("no open usage record for this spot")
)

// Store is the durable record store behind the facility controller: spot
// definitions, usage history, payments and premium subscriptions, all in one
// sqlite file.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, err
		}
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ListSpots returns every persisted spot definition.
func (s *Store) ListSpots(ctx context.Context) ([]SpotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spot_number, row_number, floor_number
		FROM parking_spots
		ORDER BY floor_number ASC, row_number ASC, spot_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	var spots []SpotRecord
	for rows.Next() {
		var rec SpotRecord
		if err := rows.Scan(&rec.ID, &rec.SpotNumber, &rec.RowNumber, &rec.FloorNumber); err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, rec)
	}
	return spots, rows.Err()
}

// InsertSpot persists a new spot definition and returns the assigned id.
func (s *Store) InsertSpot(ctx context.Context, floorNumber, rowNumber, spotNumber int) (int64, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM parking_spots
			WHERE floor_number = ? AND row_number = ? AND spot_number = ?
		)
	`, floorNumber, rowNumber, spotNumber).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check spot: %w", err)
	}
	if exists {
		return 0, fmt.Errorf("%w: spot at floor %d row %d number %d", ErrDuplicateEntry, floorNumber, rowNumber, spotNumber)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO parking_spots (floor_number, row_number, spot_number)
		VALUES (?, ?, ?)
	`, floorNumber, rowNumber, spotNumber)
	if err != nil {
		return 0, fmt.Errorf("insert spot: %w", err)
	}
	return res.LastInsertId()
}

// DeleteSpot removes a spot definition by its persisted id, together with its
// usage history and payments. The children must go in the same transaction or
// the foreign key on parking_usage rejects the row delete for any spot that
// was ever used.
func (s *Store) DeleteSpot(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM payments
		WHERE usage_id IN (SELECT id FROM parking_usage WHERE spot_id = ?)
	`, id); err != nil {
		return fmt.Errorf("delete spot payments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM parking_usage WHERE spot_id = ?`, id); err != nil {
		return fmt.Errorf("delete spot usage: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: spot %d", ErrNotFound, id)
	}
	return tx.Commit()
}

// LastUsage returns the most recent usage record for a spot, with an open
// record (exit still null) sorting ahead of any closed one. Returns
// ErrNotFound when the spot has no history at all.
func (s *Store) LastUsage(ctx context.Context, spotID int64) (*UsageRecord, error) {
	rec := &UsageRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, spot_id, registration_plate, entry_time, exit_time
		FROM parking_usage
		WHERE spot_id = ?
		ORDER BY (exit_time IS NULL) DESC, entry_time DESC
		LIMIT 1
	`, spotID).Scan(&rec.ID, &rec.SpotID, &rec.Plate, &rec.EntryTime, &rec.ExitTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: usage for spot %d", ErrNotFound, spotID)
	}
	if err != nil {
		return nil, fmt.Errorf("last usage: %w", err)
	}
	return rec, nil
}

// OpenUsage returns the currently running usage record for a spot. The
// record carries the entry timestamp from which the elapsed duration and the
// fee are derived on exit.
func (s *Store) OpenUsage(ctx context.Context, spotID int64) (*UsageRecord, error) {
	rec := &UsageRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, spot_id, registration_plate, entry_time, exit_time
		FROM parking_usage
		WHERE spot_id = ? AND exit_time IS NULL
		ORDER BY entry_time DESC
		LIMIT 1
	`, spotID).Scan(&rec.ID, &rec.SpotID, &rec.Plate, &rec.EntryTime, &rec.ExitTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: spot %d", ErrNoOpenUsage, spotID)
	}
	if err != nil {
		return nil, fmt.Errorf("open usage: %w", err)
	}
	return rec, nil
}

// InsertUsage opens a new usage episode with entry time set to now.
func (s *Store) InsertUsage(ctx context.Context, spotID int64, plate string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO parking_usage (spot_id, registration_plate, entry_time)
		VALUES (?, ?, ?)
	`, spotID, plate, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert usage: %w", err)
	}
	return res.LastInsertId()
}

// CloseUsage stamps the exit time on the open episode for spot + plate.
func (s *Store) CloseUsage(ctx context.Context, spotID int64, plate string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parking_usage
		SET exit_time = ?
		WHERE spot_id = ? AND registration_plate = ? AND exit_time IS NULL
	`, time.Now().UTC(), spotID, plate)
	if err != nil {
		return fmt.Errorf("close usage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: spot %d plate %s", ErrNoOpenUsage, spotID, plate)
	}
	return nil
}

// SettleUsage records the payment and stamps the exit time in one
// transaction, so a failed settlement leaves neither half behind and the exit
// can simply be retried.
func (s *Store) SettleUsage(ctx context.Context, usageID int64, plate string, amount float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settle usage: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payments (usage_id, registration_plate, amount)
		VALUES (?, ?, ?)
	`, usageID, plate, amount); err != nil {
		return fmt.Errorf("settle usage payment: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE parking_usage
		SET exit_time = ?
		WHERE id = ? AND exit_time IS NULL
	`, time.Now().UTC(), usageID)
	if err != nil {
		return fmt.Errorf("settle usage close: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: usage %d", ErrNoOpenUsage, usageID)
	}
	return tx.Commit()
}

// ListUsages returns the full usage history, oldest first.
func (s *Store) ListUsages(ctx context.Context) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, spot_id, registration_plate, entry_time, exit_time
		FROM parking_usage
		ORDER BY entry_time ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list usages: %w", err)
	}
	defer rows.Close()

	var usages []UsageRecord
	for rows.Next() {
		var rec UsageRecord
		if err := rows.Scan(&rec.ID, &rec.SpotID, &rec.Plate, &rec.EntryTime, &rec.ExitTime); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		usages = append(usages, rec)
	}
	return usages, rows.Err()
}

// InsertPayment records the amount collected for a completed usage episode.
func (s *Store) InsertPayment(ctx context.Context, usageID int64, plate string, amount float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (usage_id, registration_plate, amount)
		VALUES (?, ?, ?)
	`, usageID, plate, amount)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListPayments returns every payment on record.
func (s *Store) ListPayments(ctx context.Context) ([]PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT usage_id, registration_plate, amount
		FROM payments
		ORDER BY usage_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []PaymentRecord
	for rows.Next() {
		var rec PaymentRecord
		if err := rows.Scan(&rec.UsageID, &rec.Plate, &rec.Amount); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, rec)
	}
	return payments, rows.Err()
}

// IsPremium reports whether a plate holds a premium subscription.
func (s *Store) IsPremium(ctx context.Context, plate string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM premium_cars WHERE registration_plate = ?)
	`, plate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is premium: %w", err)
	}
	return exists, nil
}

// AddPremium registers a plate as a premium subscriber.
func (s *Store) AddPremium(ctx context.Context, plate string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO premium_cars (registration_plate) VALUES (?)
	`, plate)
	if err != nil {
		return fmt.Errorf("add premium: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: premium plate %s", ErrDuplicateEntry, plate)
	}
	return nil
}

// RemovePremium drops a plate's premium subscription.
func (s *Store) RemovePremium(ctx context.Context, plate string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM premium_cars WHERE registration_plate = ?
	`, plate)
	if err != nil {
		return fmt.Errorf("remove premium: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: premium plate %s", ErrNotFound, plate)
	}
	return nil
}

// ListPremium returns all premium plates, for the subscription listing.
func (s *Store) ListPremium(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT registration_plate FROM premium_cars ORDER BY registration_plate ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list premium: %w", err)
	}
	defer rows.Close()

	var plates []string
	for rows.Next() {
		var plate string
		if err := rows.Scan(&plate); err != nil {
			return nil, fmt.Errorf("scan premium plate: %w", err)
		}
		plates = append(plates, plate)
	}
	return plates, rows.Err()
}
