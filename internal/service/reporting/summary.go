package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
)

// SummaryInput is everything a summary is computed from. Collections may
// include entries outside Range; the previous period is taken from them.
// Advances are expected to be already limited to Range.
type SummaryInput struct {
	Range       DateRange
	Collections []models.CollectionEntry
	Farmers     []models.Farmer
	Advances    []models.AdvanceEntry
	GeneratedAt time.Time
}

// Summarize builds the operational report for a period.
func Summarize(in SummaryInput) models.ReportSummary {
	current := filterRange(in.Collections, in.Range)
	previous := filterRange(in.Collections, in.Range.Previous())

	metrics := computeMetrics(current)
	prev := computeMetrics(previous)

	names := make(map[string]string, len(in.Farmers))
	for _, f := range in.Farmers {
		names[f.ID] = f.Name
	}

	return models.ReportSummary{
		Preset:    string(in.Range.Preset),
		StartDate: in.Range.StartDate(),
		EndDate:   in.Range.EndDate(),
		Metrics:   metrics,
		Growth: models.PeriodGrowth{
			Amount:      growth(metrics.TotalAmount, prev.TotalAmount),
			Liters:      growth(metrics.TotalLiters, prev.TotalLiters),
			Collections: growth(float64(metrics.TotalCollections), float64(prev.TotalCollections)),
		},
		Farmers:     farmerStats(current, in.Advances, names),
		Daily:       dailyTotals(current),
		Monthly:     monthlyTotals(current),
		GeneratedAt: in.GeneratedAt,
	}
}

// FarmerStatement totals one farmer's collections and advances for a period.
// Payable is the collection amount minus net advances.
func FarmerStatement(farmer models.Farmer, collections []models.CollectionEntry, advances []models.AdvanceEntry, r DateRange) models.FarmerStats {
	var own []models.CollectionEntry
	for _, c := range filterRange(collections, r) {
		if c.UserID == farmer.ID {
			own = append(own, c)
		}
	}
	var ownAdvances []models.AdvanceEntry
	for _, a := range advances {
		if a.UserID == farmer.ID {
			ownAdvances = append(ownAdvances, a)
		}
	}

	stats := buildStats(farmer.ID, farmer.Name, own)
	applyAdvances(&stats, ownAdvances)
	return stats
}

func filterRange(entries []models.CollectionEntry, r DateRange) []models.CollectionEntry {
	out := make([]models.CollectionEntry, 0, len(entries))
	for _, e := range entries {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func computeMetrics(entries []models.CollectionEntry) models.CollectionMetrics {
	var m models.CollectionMetrics
	var fatSum float64
	for _, e := range entries {
		m.TotalLiters += e.Liters
		m.TotalAmount += e.Amount
		fatSum += e.FatPercentage
		if e.IsManuallyEdited {
			m.ManualCollections++
		} else {
			m.AutoCollections++
		}
	}
	m.TotalCollections = len(entries)
	if n := float64(len(entries)); n > 0 {
		m.AverageFat = round2(fatSum / n)
		m.AverageAmount = rates.RoundMoney(m.TotalAmount / n)
		m.AverageLiters = round2(m.TotalLiters / n)
	}
	m.TotalLiters = round2(m.TotalLiters)
	m.TotalAmount = rates.RoundMoney(m.TotalAmount)
	return m
}

// growth is the percent change from previous to current, or 0 when there
// is nothing to compare against.
func growth(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return math.Round((current-previous)/previous*1000) / 10
}

func farmerStats(entries []models.CollectionEntry, advances []models.AdvanceEntry, names map[string]string) []models.FarmerStats {
	grouped := make(map[string][]models.CollectionEntry)
	order := make([]string, 0)
	for _, e := range entries {
		if _, ok := grouped[e.UserID]; !ok {
			order = append(order, e.UserID)
		}
		grouped[e.UserID] = append(grouped[e.UserID], e)
	}
	advanceByFarmer := make(map[string][]models.AdvanceEntry)
	for _, a := range advances {
		advanceByFarmer[a.UserID] = append(advanceByFarmer[a.UserID], a)
	}

	out := make([]models.FarmerStats, 0, len(order))
	for _, id := range order {
		own := grouped[id]
		name := names[id]
		if name == "" {
			name = own[0].UserName
		}
		stats := buildStats(id, name, own)
		applyAdvances(&stats, advanceByFarmer[id])
		out = append(out, stats)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func buildStats(id, name string, entries []models.CollectionEntry) models.FarmerStats {
	stats := models.FarmerStats{UserID: id, Name: name, Collections: len(entries)}
	if len(entries) == 0 {
		return stats
	}

	var fatSum float64
	for _, e := range entries {
		stats.TotalLiters += e.Liters
		stats.TotalAmount += e.Amount
		fatSum += e.FatPercentage
		if e.IsManuallyEdited {
			stats.ManualEdits++
		}
	}
	n := float64(len(entries))
	avgFat := fatSum / n

	if len(entries) > 1 {
		var variance float64
		for _, e := range entries {
			variance += (e.FatPercentage - avgFat) * (e.FatPercentage - avgFat)
		}
		stats.FatDeviation = round2(math.Sqrt(variance / n))
	}

	stats.AverageFat = round2(avgFat)
	stats.AverageLiters = round2(stats.TotalLiters / n)
	stats.AverageAmount = rates.RoundMoney(stats.TotalAmount / n)
	stats.TotalLiters = round2(stats.TotalLiters)
	stats.TotalAmount = rates.RoundMoney(stats.TotalAmount)
	stats.Payable = stats.TotalAmount
	return stats
}

func applyAdvances(stats *models.FarmerStats, advances []models.AdvanceEntry) {
	var net float64
	for _, a := range advances {
		net += a.Amount
	}
	stats.NetAdvances = rates.RoundMoney(net)
	stats.Payable = rates.RoundMoney(stats.TotalAmount - net)
}

func dailyTotals(entries []models.CollectionEntry) []models.DailyTotal {
	byDay := make(map[string]*models.DailyTotal)
	for _, e := range entries {
		day := e.Date
		if len(day) > len(dateLayout) {
			day = day[:len(dateLayout)]
		}
		d, ok := byDay[day]
		if !ok {
			d = &models.DailyTotal{Date: day}
			byDay[day] = d
		}
		d.Liters += e.Liters
		d.Amount += e.Amount
		d.Collections++
	}

	out := make([]models.DailyTotal, 0, len(byDay))
	for _, d := range byDay {
		d.Liters = round2(d.Liters)
		d.Amount = rates.RoundMoney(d.Amount)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func monthlyTotals(entries []models.CollectionEntry) []models.MonthlyTotal {
	type acc struct {
		total  models.MonthlyTotal
		fatSum float64
	}
	byMonth := make(map[string]*acc)
	for _, e := range entries {
		if len(e.Date) < 7 {
			continue
		}
		key := e.Date[:7]
		m, ok := byMonth[key]
		if !ok {
			m = &acc{total: models.MonthlyTotal{Month: key}}
			byMonth[key] = m
		}
		m.total.Liters += e.Liters
		m.total.Amount += e.Amount
		m.total.Collections++
		m.fatSum += e.FatPercentage
	}

	out := make([]models.MonthlyTotal, 0, len(byMonth))
	for _, m := range byMonth {
		t := m.total
		t.Liters = round2(t.Liters)
		t.Amount = rates.RoundMoney(t.Amount)
		t.AverageFat = round2(m.fatSum / float64(t.Collections))
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
