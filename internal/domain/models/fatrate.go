package models

import "sort"

// FatRate maps one fat percentage reading to a price per liter.
type FatRate struct {
	FatPercentage float64 `json:"fatPercentage" bson:"fat_percentage"`
	Rate          float64 `json:"rate" bson:"rate"`
}

// RateTable is the admin-configured set of fat rates, unique by fat percentage.
type RateTable []FatRate

// Find returns the entry whose fat percentage equals fat exactly.
func (t RateTable) Find(fat float64) (FatRate, bool) {
	for _, r := range t {
		if r.FatPercentage == fat {
			return r, true
		}
	}
	return FatRate{}, false
}

// Sorted returns a copy ordered ascending by fat percentage.
func (t RateTable) Sorted() RateTable {
	out := make(RateTable, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FatPercentage < out[j].FatPercentage })
	return out
}

// Normalize sorts the table and drops duplicate fat percentages. The last
// occurrence of a duplicate wins.
func (t RateTable) Normalize() RateTable {
	seen := make(map[float64]int, len(t))
	out := make(RateTable, 0, len(t))
	for _, r := range t {
		if idx, ok := seen[r.FatPercentage]; ok {
			out[idx] = r
			continue
		}
		seen[r.FatPercentage] = len(out)
		out = append(out, r)
	}
	return out.Sorted()
}

// Upsert replaces the entry with the same fat percentage or appends a new one.
func (t RateTable) Upsert(rate FatRate) RateTable {
	out := make(RateTable, 0, len(t)+1)
	replaced := false
	for _, r := range t {
		if r.FatPercentage == rate.FatPercentage {
			out = append(out, rate)
			replaced = true
			continue
		}
		out = append(out, r)
	}
	if !replaced {
		out = append(out, rate)
	}
	return out.Sorted()
}

// Replace swaps the entry keyed by previous for rate. Used when an admin edits
// the fat percentage of an existing row.
func (t RateTable) Replace(previous float64, rate FatRate) RateTable {
	out := make(RateTable, 0, len(t))
	for _, r := range t {
		if r.FatPercentage == previous {
			continue
		}
		out = append(out, r)
	}
	return out.Upsert(rate)
}

// Remove drops the entry for fat, if present.
func (t RateTable) Remove(fat float64) RateTable {
	out := make(RateTable, 0, len(t))
	for _, r := range t {
		if r.FatPercentage != fat {
			out = append(out, r)
		}
	}
	return out.Sorted()
}
