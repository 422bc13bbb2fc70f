package parking

import (
	"errors"
	"testing"
)

func TestNewSpot(t *testing.T) {
	spot := NewSpot(12, 3)

	if spot.ID() != 12 {
		t.Errorf("Expected id 12, got %d", spot.ID())
	}
	if spot.Number() != 3 {
		t.Errorf("Expected spot number 3, got %d", spot.Number())
	}
	if spot.Status() != StatusFree {
		t.Errorf("Expected new spot to be free, got %s", spot.Status())
	}
	if spot.Car() != nil {
		t.Error("Expected new spot to have no linked car")
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"free", "occupied", "booked"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("Unexpected error for status %q: %s", valid, err)
		}
	}

	_, err := ParseStatus("vacant")
	if err == nil {
		t.Error("Expected error for invalid status")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestSpotEnterFree(t *testing.T) {
	spot := NewSpot(1, 1)

	if err := spot.Enter("ABC-123", false); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if spot.Status() != StatusOccupied {
		t.Errorf("Expected occupied, got %s", spot.Status())
	}
	if spot.Car() == nil || spot.Car().Plate != "ABC-123" {
		t.Error("Expected linked car with plate ABC-123")
	}
	if spot.Car().Tier != TierStandard {
		t.Errorf("Expected standard tier, got %s", spot.Car().Tier)
	}
}

func TestSpotEnterOccupied(t *testing.T) {
	spot := NewSpot(1, 1)
	spot.Enter("ABC-123", false)

	err := spot.Enter("DEF-456", true)
	if !errors.Is(err, ErrSpotOccupied) {
		t.Errorf("Expected ErrSpotOccupied, got %v", err)
	}
	if spot.Status() != StatusOccupied {
		t.Errorf("Expected state unchanged, got %s", spot.Status())
	}
	if spot.Car().Plate != "ABC-123" {
		t.Errorf("Expected original occupant, got %s", spot.Car().Plate)
	}
}

func TestSpotEnterBooked(t *testing.T) {
	spot := NewSpot(1, 1)
	if err := spot.Book("JAX-726", true); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	if err := spot.Enter("PIP-126", true); !errors.Is(err, ErrBookingMismatch) {
		t.Errorf("Expected ErrBookingMismatch for wrong plate, got %v", err)
	}
	if err := spot.Enter("JAX-726", false); !errors.Is(err, ErrBookingMismatch) {
		t.Errorf("Expected ErrBookingMismatch for non-premium entry, got %v", err)
	}
	if spot.Status() != StatusBooked {
		t.Errorf("Expected state unchanged, got %s", spot.Status())
	}

	if err := spot.Enter("JAX-726", true); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if spot.Status() != StatusOccupied {
		t.Errorf("Expected occupied, got %s", spot.Status())
	}
	if spot.Car().Tier != TierPremium {
		t.Errorf("Expected premium tier, got %s", spot.Car().Tier)
	}
}

func TestSpotExit(t *testing.T) {
	spot := NewSpot(1, 1)
	spot.Enter("ABC-123", false)

	if err := spot.Exit("XYZ-999"); !errors.Is(err, ErrPlateMismatch) {
		t.Errorf("Expected ErrPlateMismatch, got %v", err)
	}
	if spot.Status() != StatusOccupied || spot.Car() == nil {
		t.Error("Expected failed exit to leave the spot unchanged")
	}

	if err := spot.Exit("ABC-123"); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if spot.Status() != StatusFree {
		t.Errorf("Expected free, got %s", spot.Status())
	}
	if spot.Car() != nil {
		t.Error("Expected car to be detached after exit")
	}
}

func TestSpotExitFree(t *testing.T) {
	spot := NewSpot(1, 1)

	if err := spot.Exit("ABC-123"); !errors.Is(err, ErrPlateMismatch) {
		t.Errorf("Expected ErrPlateMismatch on free spot, got %v", err)
	}
}

func TestSpotPay(t *testing.T) {
	standard := NewSpot(1, 1)
	standard.Enter("ABC-123", false)

	fee, err := standard.Pay("ABC-123", 5.0)
	if err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if fee != 15.0 {
		t.Errorf("Expected standard fee 15.0 for 5 hours, got %v", fee)
	}
	if standard.Status() != StatusOccupied {
		t.Error("Expected Pay to leave the spot occupied")
	}

	premium := NewSpot(2, 2)
	premium.Enter("JAX-726", true)

	fee, err = premium.Pay("JAX-726", 5.0)
	if err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if fee != 10.0 {
		t.Errorf("Expected premium fee 10.0 for 5 hours, got %v", fee)
	}
}

func TestSpotPayRounding(t *testing.T) {
	spot := NewSpot(1, 1)
	spot.Enter("ABC-123", false)

	// 1.333... hours at 3.00/h is 3.999..., rounded to 4.00.
	fee, err := spot.Pay("ABC-123", 4.0/3.0)
	if err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if fee != 4.0 {
		t.Errorf("Expected rounded fee 4.0, got %v", fee)
	}
}

func TestSpotPayPreconditions(t *testing.T) {
	spot := NewSpot(1, 1)

	if _, err := spot.Pay("ABC-123", 1.0); !errors.Is(err, ErrPlateMismatch) {
		t.Errorf("Expected ErrPlateMismatch on free spot, got %v", err)
	}

	spot.Enter("ABC-123", false)
	if _, err := spot.Pay("DEF-456", 1.0); !errors.Is(err, ErrPlateMismatch) {
		t.Errorf("Expected ErrPlateMismatch for wrong plate, got %v", err)
	}
}

func TestSpotBook(t *testing.T) {
	spot := NewSpot(1, 1)

	if err := spot.Book("ABC-123", false); !errors.Is(err, ErrPremiumRequired) {
		t.Errorf("Expected ErrPremiumRequired, got %v", err)
	}
	if spot.Status() != StatusFree {
		t.Errorf("Expected state unchanged, got %s", spot.Status())
	}

	if err := spot.Book("JAX-726", true); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if spot.Status() != StatusBooked {
		t.Errorf("Expected booked, got %s", spot.Status())
	}
	if spot.Car() == nil || spot.Car().Plate != "JAX-726" {
		t.Error("Expected booking placeholder car")
	}

	if err := spot.Book("OTH-111", true); !errors.Is(err, ErrNotBookable) {
		t.Errorf("Expected ErrNotBookable on booked spot, got %v", err)
	}

	occupied := NewSpot(2, 2)
	occupied.Enter("ABC-123", false)
	if err := occupied.Book("JAX-726", true); !errors.Is(err, ErrNotBookable) {
		t.Errorf("Expected ErrNotBookable on occupied spot, got %v", err)
	}
}

func TestSpotRestore(t *testing.T) {
	spot := NewSpot(1, 1)

	if err := spot.Restore(StatusOccupied, NewCar("ABC-123", false)); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if spot.Status() != StatusOccupied || spot.Car().Plate != "ABC-123" {
		t.Error("Expected restored occupied state")
	}

	if err := spot.Restore(StatusOccupied, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for occupied without car, got %v", err)
	}
	if err := spot.Restore(StatusFree, NewCar("ABC-123", false)); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for free with car, got %v", err)
	}
	if err := spot.Restore(Status("vacant"), nil); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}
}
