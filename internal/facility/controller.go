package facility

import (
	"context"
	"errors"
	"fmt"

	"parkease/internal/logging"
	"parkease/internal/parking"
	"parkease/internal/storage"
)

// Outcome messages shown verbatim by the presentation layer. Errors are
// tagged with [Error] so callers can tell success from failure without
// inspecting error types.
const (
	msgSpotMissing     = "[Error] This spot does not exist"
	msgSpotOccupied    = "[Error] This spot is already occupied"
	msgSpotExists      = "[Error] This spot already exists"
	msgExitMismatch    = "[Error] This spot is unoccupied or the registration plates don't match"
	msgBookingMismatch = "[Error] This spot is booked for another customer"
	msgPremiumRequired = "[Error] Booking requires a premium subscription"
	msgNotBookable     = "[Error] Only a free spot can be booked"
	msgStorageFailure  = "[Error] Internal storage failure"
)

// Controller binds the in-memory lot to the persisted usage and payment
// history. It owns the tree exclusively: one controller instance per running
// session, no concurrent callers.
type Controller struct {
	lotNumber int
	lot       *parking.Lot
	store     *storage.Store

	// onPayment is invoked after a fee has been recorded. Set by the
	// instrumented wrapper to observe collected amounts.
	onPayment func(ctx context.Context, amount float64)
}

func NewController(lotNumber int, store *storage.Store) (*Controller, error) {
	lot, err := parking.NewLot(lotNumber)
	if err != nil {
		return nil, err
	}
	return &Controller{
		lotNumber: lotNumber,
		lot:       lot,
		store:     store,
	}, nil
}

// Lot exposes the in-memory tree for read-only rendering.
func (c *Controller) Lot() *parking.Lot {
	return c.lot
}

// Snapshot returns the presentation view of the tree.
func (c *Controller) Snapshot() parking.LotSnapshot {
	return c.lot.Snapshot()
}

// Render returns the deterministic textual rendering of the tree.
func (c *Controller) Render() string {
	return c.lot.String()
}

// Load rebuilds the tree from persisted spot definitions and derives each
// spot's occupancy from its most recent usage record: an open record (no
// exit timestamp) means occupied, anything else means free. The rebuilt tree
// replaces the current one only once the whole load succeeds, so a re-run
// acts as an atomic resync.
func (c *Controller) Load(ctx context.Context) error {
	lot, err := parking.NewLot(c.lotNumber)
	if err != nil {
		return err
	}

	records, err := c.store.ListSpots(ctx)
	if err != nil {
		return fmt.Errorf("load spots: %w", err)
	}

	for _, rec := range records {
		spot, err := lot.AddSpot(rec.ID, rec.SpotNumber, rec.RowNumber, rec.FloorNumber)
		if err != nil {
			return fmt.Errorf("load spot %d: %w", rec.ID, err)
		}

		last, err := c.store.LastUsage(ctx, rec.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue // never used, stays free
		}
		if err != nil {
			return fmt.Errorf("load usage for spot %d: %w", rec.ID, err)
		}
		if !last.Open() {
			continue
		}

		premium, err := c.store.IsPremium(ctx, last.Plate)
		if err != nil {
			return fmt.Errorf("load subscription for %s: %w", last.Plate, err)
		}
		if err := spot.Restore(parking.StatusOccupied, parking.NewCar(last.Plate, premium)); err != nil {
			return fmt.Errorf("restore spot %d: %w", rec.ID, err)
		}
	}

	c.lot = lot
	logging.Info(ctx).Int("spots", len(records)).Msg("parking tree loaded")
	return nil
}

// NewEntry parks a car at a coordinate and opens a usage record. The usage
// row is only written once the in-memory transition has succeeded; if the
// write fails, the transition is rolled back so tree and history stay in
// step.
func (c *Controller) NewEntry(ctx context.Context, floor, row, spotNumber int, plate string) string {
	spot, ok := c.lot.Spot(floor, row, spotNumber)
	if !ok {
		return msgSpotMissing
	}

	premium, err := c.store.IsPremium(ctx, plate)
	if err != nil {
		logging.Error(ctx).Err(err).Str("plate", plate).Msg("premium lookup failed")
		return msgStorageFailure
	}

	if err := spot.Enter(plate, premium); err != nil {
		return entryErrorMessage(err)
	}

	if _, err := c.store.InsertUsage(ctx, spot.ID(), plate); err != nil {
		// Undo the transition we just applied; the exit cannot fail here.
		_ = spot.Exit(plate)
		logging.Error(ctx).Err(err).Int64("spot_id", spot.ID()).Msg("usage insert failed")
		return msgStorageFailure
	}

	return fmt.Sprintf("[NEW ENTRY] Car %s was successfully parked at floor %d - row %d - spot %d",
		plate, floor, row, spotNumber)
}

// NewExit settles and frees a spot. The fee must be computed while the car
// is still attached, so the order is fixed: fetch the open usage record,
// price it, then record the payment and stamp the exit timestamp in one
// settlement write before the tree is touched. A failed settlement leaves
// nothing behind and the exit can be retried as-is.
func (c *Controller) NewExit(ctx context.Context, floor, row, spotNumber int, plate string) string {
	spot, ok := c.lot.Spot(floor, row, spotNumber)
	if !ok {
		return msgSpotMissing
	}

	car := spot.Car()
	if spot.Status() != parking.StatusOccupied || car == nil || car.Plate != plate {
		return msgExitMismatch
	}

	usage, err := c.store.OpenUsage(ctx, spot.ID())
	if err != nil {
		logging.Error(ctx).Err(err).Int64("spot_id", spot.ID()).Msg("open usage lookup failed")
		return msgStorageFailure
	}

	fee, err := spot.Pay(plate, usage.ElapsedHours())
	if err != nil {
		return msgExitMismatch
	}

	if err := c.store.SettleUsage(ctx, usage.ID, plate, fee); err != nil {
		logging.Error(ctx).Err(err).Int64("usage_id", usage.ID).Msg("settlement failed")
		return msgStorageFailure
	}
	if c.onPayment != nil {
		c.onPayment(ctx, fee)
	}

	// The occupant was verified above, so the transition cannot fail.
	_ = spot.Exit(plate)

	logging.Info(ctx).
		Str("plate", plate).
		Float64("fee", fee).
		Int64("usage_id", usage.ID).
		Msg("exit settled")

	return fmt.Sprintf("[NEW EXIT] Car %s was successfully parked out of floor %d - row %d - spot %d",
		plate, floor, row, spotNumber)
}

// NewBooking reserves a free spot for a premium subscriber. Bookings are
// held in the tree only; they do not open a usage record until the car
// actually enters.
func (c *Controller) NewBooking(ctx context.Context, floor, row, spotNumber int, plate string) string {
	spot, ok := c.lot.Spot(floor, row, spotNumber)
	if !ok {
		return msgSpotMissing
	}

	premium, err := c.store.IsPremium(ctx, plate)
	if err != nil {
		logging.Error(ctx).Err(err).Str("plate", plate).Msg("premium lookup failed")
		return msgStorageFailure
	}

	if err := spot.Book(plate, premium); err != nil {
		switch {
		case errors.Is(err, parking.ErrPremiumRequired):
			return msgPremiumRequired
		case errors.Is(err, parking.ErrNotBookable):
			return msgNotBookable
		default:
			return "[Error] " + err.Error()
		}
	}

	return fmt.Sprintf("[NEW BOOKING] Spot at floor %d - row %d - spot %d is booked for car %s",
		floor, row, spotNumber, plate)
}

// CreateSpot persists a new spot definition and mirrors it into the tree.
// The tree is checked first so a duplicate never reaches storage.
func (c *Controller) CreateSpot(ctx context.Context, floor, row, spotNumber int) string {
	if _, exists := c.lot.Spot(floor, row, spotNumber); exists {
		return msgSpotExists
	}
	if spotNumber <= 0 || row <= 0 {
		return fmt.Sprintf("[Error] Spot and row numbers must be positive, got spot %d row %d", spotNumber, row)
	}

	id, err := c.store.InsertSpot(ctx, floor, row, spotNumber)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEntry) {
			return msgSpotExists
		}
		logging.Error(ctx).Err(err).Msg("spot insert failed")
		return msgStorageFailure
	}

	if _, err := c.lot.AddSpot(id, spotNumber, row, floor); err != nil {
		logging.Error(ctx).Err(err).Int64("spot_id", id).Msg("spot mirror failed")
		return "[Error] " + err.Error()
	}

	return fmt.Sprintf("[NEW SPOT] Spot was successfully created at floor %d - row %d - spot %d",
		floor, row, spotNumber)
}

// DeleteSpot removes a spot from the tree first (failing fast when the
// coordinate is unknown), then drops the persisted definition with its usage
// history. A failed storage delete puts the spot back into the tree in its
// previous state so the two sides never diverge.
func (c *Controller) DeleteSpot(ctx context.Context, floor, row, spotNumber int) string {
	spot, ok := c.lot.Spot(floor, row, spotNumber)
	if !ok {
		return msgSpotMissing
	}

	if err := c.lot.RemoveSpot(spotNumber, row, floor); err != nil {
		return msgSpotMissing
	}

	if err := c.store.DeleteSpot(ctx, spot.ID()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		if restored, addErr := c.lot.AddSpot(spot.ID(), spotNumber, row, floor); addErr == nil {
			_ = restored.Restore(spot.Status(), spot.Car())
		}
		logging.Error(ctx).Err(err).Int64("spot_id", spot.ID()).Msg("spot delete failed")
		return msgStorageFailure
	}

	return fmt.Sprintf("[DELETE SPOT] Spot at floor %d - row %d - spot %d was successfully removed",
		floor, row, spotNumber)
}

// CheckSpotStatus derives a spot's occupancy purely from its latest
// persisted usage record: occupied exactly when that record has no exit
// timestamp. Returns the occupying plate (empty when free).
func (c *Controller) CheckSpotStatus(ctx context.Context, spotID int64) (string, parking.Status, error) {
	last, err := c.store.LastUsage(ctx, spotID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", parking.StatusFree, nil
	}
	if err != nil {
		return "", "", err
	}
	if last.Open() {
		return last.Plate, parking.StatusOccupied, nil
	}
	return "", parking.StatusFree, nil
}

// RegisterPremium adds a plate to the premium subscriber list.
func (c *Controller) RegisterPremium(ctx context.Context, plate string) string {
	if err := c.store.AddPremium(ctx, plate); err != nil {
		if errors.Is(err, storage.ErrDuplicateEntry) {
			return fmt.Sprintf("[Error] %s is already registered with premium status", plate)
		}
		logging.Error(ctx).Err(err).Str("plate", plate).Msg("premium add failed")
		return msgStorageFailure
	}
	return fmt.Sprintf("[NEW PREMIUM] %s is successfully registered with premium status", plate)
}

// UnregisterPremium removes a plate from the premium subscriber list.
func (c *Controller) UnregisterPremium(ctx context.Context, plate string) string {
	if err := c.store.RemovePremium(ctx, plate); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("[Error] %s is not registered as premium", plate)
		}
		logging.Error(ctx).Err(err).Str("plate", plate).Msg("premium remove failed")
		return msgStorageFailure
	}
	return fmt.Sprintf("[DELETE PREMIUM] %s is successfully removed from the premium list", plate)
}

// PremiumPlates lists all premium subscribers.
func (c *Controller) PremiumPlates(ctx context.Context) ([]string, error) {
	return c.store.ListPremium(ctx)
}

func entryErrorMessage(err error) string {
	switch {
	case errors.Is(err, parking.ErrSpotOccupied):
		return msgSpotOccupied
	case errors.Is(err, parking.ErrBookingMismatch):
		return msgBookingMismatch
	default:
		return "[Error] " + err.Error()
	}
}

// IsError reports whether a controller outcome message is a failure.
func IsError(message string) bool {
	return len(message) >= 7 && message[:7] == "[Error]"
}
