package pricing

import (
	"time"

	"partyroom/internal/pkg/hktime"
)

// Base (Rookie) prices in minor currency units. These are the venue's
// flat-rate prices; every other tier discounts from them.
const (
	PeakPrice    int64 = 50000
	OffPeakPrice int64 = 38000
)

type Tier struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SpendingThreshold int64  `json:"spending_threshold"`
	PeakPrice         int64  `json:"peak_price"`
	OffPeakPrice      int64  `json:"off_peak_price"`
}

const (
	TierRookie = "rookie"
	TierPlayer = "player"
	TierPro    = "pro"
	TierMaster = "master"
	TierLegend = "legend"
)

// Tiers is ordered by ascending spending threshold.
var Tiers = []Tier{
	{ID: TierRookie, Name: "Rookie", SpendingThreshold: 0, PeakPrice: PeakPrice, OffPeakPrice: OffPeakPrice},
	{ID: TierPlayer, Name: "Player", SpendingThreshold: 100000, PeakPrice: 38000, OffPeakPrice: 29000},
	{ID: TierPro, Name: "Pro", SpendingThreshold: 380000, PeakPrice: 38000, OffPeakPrice: 29000},
	{ID: TierMaster, Name: "Master", SpendingThreshold: 800000, PeakPrice: 36000, OffPeakPrice: 27500},
	{ID: TierLegend, Name: "Legend", SpendingThreshold: 1500000, PeakPrice: 34000, OffPeakPrice: 25000},
}

// TierFor returns the highest tier whose threshold is <= totalSpent.
func TierFor(totalSpent int64) Tier {
	tier := Tiers[0]
	for _, t := range Tiers {
		if totalSpent >= t.SpendingThreshold {
			tier = t
		}
	}
	return tier
}

// TierByID resolves a stored tier id; unknown ids fall back to Rookie.
func TierByID(id string) Tier {
	for _, t := range Tiers {
		if t.ID == id {
			return t
		}
	}
	return Tiers[0]
}

// Rank returns the position of a tier id in the ascending tier order.
// Used for the upward-only upgrade rule.
func Rank(id string) int {
	for i, t := range Tiers {
		if t.ID == id {
			return i
		}
	}
	return 0
}

// IsPeak classifies a slot. Friday, Saturday and Sunday are peak all day;
// Monday through Thursday are peak from 18:00. Day of week is taken from
// the Hong Kong civil date, never the server zone.
func IsPeak(date string, hour int) (bool, error) {
	wd, err := hktime.Weekday(date)
	if err != nil {
		return false, err
	}
	switch wd {
	case time.Friday, time.Saturday, time.Sunday:
		return true, nil
	default:
		return hour >= 18, nil
	}
}

// Quote prices a slot for a tier. Pure and deterministic: the same inputs
// always produce the same classification and amount.
func Quote(tier Tier, date string, hour int) (isPeak bool, amount int64, err error) {
	isPeak, err = IsPeak(date, hour)
	if err != nil {
		return false, 0, err
	}
	if isPeak {
		return true, tier.PeakPrice, nil
	}
	return false, tier.OffPeakPrice, nil
}

// NextTier returns the next tier above totalSpent and the remaining spend
// needed to reach it, or nil when already at the top.
func NextTier(totalSpent int64) (*Tier, int64) {
	for _, t := range Tiers {
		if totalSpent < t.SpendingThreshold {
			next := t
			return &next, t.SpendingThreshold - totalSpent
		}
	}
	return nil, 0
}
