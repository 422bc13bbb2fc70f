package parking

// RateTier selects the hourly billing rate for a car. Premium is the
// subscriber tier and is priced below standard.
type RateTier int

const (
	TierStandard RateTier = iota
	TierPremium
)

const (
	standardHourlyRate = 3.00
	premiumHourlyRate  = 2.00
)

func (t RateTier) String() string {
	if t == TierPremium {
		return "premium"
	}
	return "standard"
}

// Car is the value object attached to an occupied or booked spot. The
// registration plate is the business key used to match entries, exits and
// payments.
type Car struct {
	Plate string
	Tier  RateTier
}

func NewCar(plate string, premium bool) *Car {
	tier := TierStandard
	if premium {
		tier = TierPremium
	}
	return &Car{Plate: plate, Tier: tier}
}

func (c *Car) HourlyRate() float64 {
	if c.Tier == TierPremium {
		return premiumHourlyRate
	}
	return standardHourlyRate
}
