package parking

import (
	"fmt"
	"math"
)

// Status is the occupancy state of a spot.
type Status string

const (
	StatusFree     Status = "free"
	StatusOccupied Status = "occupied"
	StatusBooked   Status = "booked"
)

// ParseStatus validates a raw status value, e.g. one read back from storage.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusFree, StatusOccupied, StatusBooked:
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: invalid status %q", ErrValidation, raw)
}

// Spot is a single parking space. The persistent id is assigned by storage
// and never changes; the spot number is unique within its row.
//
// Invariant: car is nil exactly when status is free.
type Spot struct {
	id     int64
	number int
	status Status
	car    *Car
}

func NewSpot(id int64, number int) *Spot {
	return &Spot{
		id:     id,
		number: number,
		status: StatusFree,
	}
}

func (s *Spot) ID() int64      { return s.id }
func (s *Spot) Number() int    { return s.number }
func (s *Spot) Status() Status { return s.status }
func (s *Spot) Car() *Car      { return s.car }

func (s *Spot) String() string {
	return fmt.Sprintf("Spot %d : %s", s.number, s.status)
}

// Enter transitions the spot to occupied. A free spot accepts any car; a
// booked spot only accepts the booking's plate, and only with a premium
// subscription since bookings are premium-only.
func (s *Spot) Enter(plate string, premium bool) error {
	switch s.status {
	case StatusFree:
		s.car = NewCar(plate, premium)
		s.status = StatusOccupied
		return nil
	case StatusBooked:
		if !premium || s.car == nil || s.car.Plate != plate {
			return ErrBookingMismatch
		}
		s.car = NewCar(plate, true)
		s.status = StatusOccupied
		return nil
	default:
		return ErrSpotOccupied
	}
}

// Exit frees the spot if the plate matches the current occupant.
func (s *Spot) Exit(plate string) error {
	if s.status != StatusOccupied || s.car == nil || s.car.Plate != plate {
		return ErrPlateMismatch
	}
	s.car = nil
	s.status = StatusFree
	return nil
}

// Pay computes the fee for the given duration without mutating the spot.
// It must run before Exit detaches the car, since the rate lives on the car.
func (s *Spot) Pay(plate string, hours float64) (float64, error) {
	if s.status != StatusOccupied || s.car == nil || s.car.Plate != plate {
		return 0, ErrPlateMismatch
	}
	return math.Round(hours*s.car.HourlyRate()*100) / 100, nil
}

// Book reserves a free spot for a premium subscriber. The booking is held by
// a premium placeholder car so a later Enter can match on the plate.
func (s *Spot) Book(plate string, premium bool) error {
	if s.status != StatusFree {
		return ErrNotBookable
	}
	if !premium {
		return ErrPremiumRequired
	}
	s.car = NewCar(plate, true)
	s.status = StatusBooked
	return nil
}

// Restore forces the spot into a known state, used when rebuilding the tree
// from persisted usage history. The status/car pairing is still validated.
func (s *Spot) Restore(status Status, car *Car) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if (car == nil) != (status == StatusFree) {
		return fmt.Errorf("%w: status %q is inconsistent with linked car", ErrValidation, status)
	}
	s.status = status
	s.car = car
	return nil
}
