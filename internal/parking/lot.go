package parking

import (
	"fmt"
	"sort"
	"strings"
)

// Row holds the spots of one row, keyed by spot number.
type Row struct {
	number int
	spots  map[int]*Spot
}

func (r *Row) Number() int { return r.number }

// Spot returns the spot with the given number, if present.
func (r *Row) Spot(number int) (*Spot, bool) {
	s, ok := r.spots[number]
	return s, ok
}

func (r *Row) SpotNumbers() []int {
	return sortedKeys(r.spots)
}

// Floor holds the rows of one floor, keyed by row number.
type Floor struct {
	number int
	rows   map[int]*Row
}

func (f *Floor) Number() int { return f.number }

func (f *Floor) Row(number int) (*Row, bool) {
	r, ok := f.rows[number]
	return r, ok
}

func (f *Floor) RowNumbers() []int {
	return sortedKeys(f.rows)
}

// Lot is the root of the in-memory hierarchy: floors keyed by floor number,
// rows keyed by row number, spots keyed by spot number. Floors and rows are
// created lazily when the first spot underneath them is added, and removed
// when their last spot goes away.
type Lot struct {
	number int
	floors map[int]*Floor
}

// NewLot requires a strictly positive lot number.
func NewLot(number int) (*Lot, error) {
	if number <= 0 {
		return nil, fmt.Errorf("%w: lot number must be positive, got %d", ErrValidation, number)
	}
	return &Lot{number: number, floors: make(map[int]*Floor)}, nil
}

func (l *Lot) Number() int { return l.number }

func (l *Lot) Floor(number int) (*Floor, bool) {
	f, ok := l.floors[number]
	return f, ok
}

func (l *Lot) FloorNumbers() []int {
	return sortedKeys(l.floors)
}

// Spot resolves a (floor, row, spot) coordinate.
func (l *Lot) Spot(floorNumber, rowNumber, spotNumber int) (*Spot, bool) {
	floor, ok := l.floors[floorNumber]
	if !ok {
		return nil, false
	}
	row, ok := floor.rows[rowNumber]
	if !ok {
		return nil, false
	}
	return row.Spot(spotNumber)
}

// AddSpot inserts a free spot at the given coordinate. The id, spot number
// and row number must be strictly positive; the floor number may be negative
// since basements number downwards.
func (l *Lot) AddSpot(id int64, spotNumber, rowNumber, floorNumber int) (*Spot, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: spot id must be positive, got %d", ErrValidation, id)
	}
	if spotNumber <= 0 {
		return nil, fmt.Errorf("%w: spot number must be positive, got %d", ErrValidation, spotNumber)
	}
	if rowNumber <= 0 {
		return nil, fmt.Errorf("%w: row number must be positive, got %d", ErrValidation, rowNumber)
	}
	if _, exists := l.Spot(floorNumber, rowNumber, spotNumber); exists {
		return nil, ErrSpotExists
	}

	floor, ok := l.floors[floorNumber]
	if !ok {
		floor = &Floor{number: floorNumber, rows: make(map[int]*Row)}
		l.floors[floorNumber] = floor
	}
	row, ok := floor.rows[rowNumber]
	if !ok {
		row = &Row{number: rowNumber, spots: make(map[int]*Spot)}
		floor.rows[rowNumber] = row
	}

	spot := NewSpot(id, spotNumber)
	row.spots[spotNumber] = spot
	return spot, nil
}

// RemoveSpot deletes the spot at the given coordinate. Emptied rows and
// floors are removed with it so no hollow containers linger in the tree.
func (l *Lot) RemoveSpot(spotNumber, rowNumber, floorNumber int) error {
	floor, ok := l.floors[floorNumber]
	if !ok {
		return ErrSpotMissing
	}
	row, ok := floor.rows[rowNumber]
	if !ok {
		return ErrSpotMissing
	}
	if _, ok := row.spots[spotNumber]; !ok {
		return ErrSpotMissing
	}

	delete(row.spots, spotNumber)
	if len(row.spots) == 0 {
		delete(floor.rows, rowNumber)
	}
	if len(floor.rows) == 0 {
		delete(l.floors, floorNumber)
	}
	return nil
}

// String renders the whole hierarchy, floors then rows then spots, each in
// ascending numeric order. The ordering is a contract: the rendering is used
// for display and compared verbatim in tests.
func (l *Lot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Parking %d", l.number)
	for _, fn := range l.FloorNumbers() {
		floor := l.floors[fn]
		fmt.Fprintf(&b, "\n    Floor %d", floor.number)
		for _, rn := range floor.RowNumbers() {
			row := floor.rows[rn]
			fmt.Fprintf(&b, "\n        Row %d", row.number)
			for _, sn := range row.SpotNumbers() {
				fmt.Fprintf(&b, "\n            %s", row.spots[sn])
			}
		}
	}
	return b.String()
}

// SpotView is the serializable projection of one spot.
type SpotView struct {
	ID         int64  `json:"id"`
	SpotNumber int    `json:"spot_number"`
	Status     Status `json:"status"`
	Plate      string `json:"plate,omitempty"`
	Tier       string `json:"tier,omitempty"`
}

type RowView struct {
	RowNumber int        `json:"row_number"`
	Spots     []SpotView `json:"spots"`
}

type FloorView struct {
	FloorNumber int       `json:"floor_number"`
	Rows        []RowView `json:"rows"`
}

// LotSnapshot is a point-in-time copy of the tree with the same deterministic
// ordering as String, safe to hand to the presentation layer.
type LotSnapshot struct {
	LotNumber int         `json:"lot_number"`
	Floors    []FloorView `json:"floors"`
}

func (l *Lot) Snapshot() LotSnapshot {
	snap := LotSnapshot{LotNumber: l.number, Floors: []FloorView{}}
	for _, fn := range l.FloorNumbers() {
		floor := l.floors[fn]
		fv := FloorView{FloorNumber: floor.number}
		for _, rn := range floor.RowNumbers() {
			row := floor.rows[rn]
			rv := RowView{RowNumber: row.number}
			for _, sn := range row.SpotNumbers() {
				spot := row.spots[sn]
				sv := SpotView{
					ID:         spot.ID(),
					SpotNumber: spot.Number(),
					Status:     spot.Status(),
				}
				if car := spot.Car(); car != nil {
					sv.Plate = car.Plate
					sv.Tier = car.Tier.String()
				}
				rv.Spots = append(rv.Spots, sv)
			}
			fv.Rows = append(fv.Rows, rv)
		}
		snap.Floors = append(snap.Floors, fv)
	}
	return snap
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
