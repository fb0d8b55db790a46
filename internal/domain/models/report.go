package models

import "time"

// CollectionMetrics aggregates collections over a period.
type CollectionMetrics struct {
	TotalLiters       float64 `json:"totalLiters" bson:"total_liters"`
	TotalAmount       float64 `json:"totalAmount" bson:"total_amount"`
	TotalCollections  int     `json:"totalCollections" bson:"total_collections"`
	AverageFat        float64 `json:"averageFat" bson:"average_fat"`
	AverageAmount     float64 `json:"averageAmount" bson:"average_amount"`
	AverageLiters     float64 `json:"averageLiters" bson:"average_liters"`
	ManualCollections int     `json:"manualCollections" bson:"manual_collections"`
	AutoCollections   int     `json:"autoCollections" bson:"auto_collections"`
}

// PeriodGrowth compares a period against the one preceding it, in percent.
type PeriodGrowth struct {
	Amount      float64 `json:"amount" bson:"amount"`
	Liters      float64 `json:"liters" bson:"liters"`
	Collections float64 `json:"collections" bson:"collections"`
}

// FarmerStats summarizes one farmer's collections for a period.
type FarmerStats struct {
	UserID        string  `json:"userId" bson:"user_id"`
	Name          string  `json:"name" bson:"name"`
	Collections   int     `json:"collections" bson:"collections"`
	TotalLiters   float64 `json:"totalLiters" bson:"total_liters"`
	TotalAmount   float64 `json:"totalAmount" bson:"total_amount"`
	AverageFat    float64 `json:"averageFat" bson:"average_fat"`
	FatDeviation  float64 `json:"fatDeviation" bson:"fat_deviation"`
	AverageLiters float64 `json:"averageLiters" bson:"average_liters"`
	AverageAmount float64 `json:"averageAmount" bson:"average_amount"`
	ManualEdits   int     `json:"manualEdits" bson:"manual_edits"`
	NetAdvances   float64 `json:"netAdvances" bson:"net_advances"`
	Payable       float64 `json:"payable" bson:"payable"`
}

// DailyTotal is one day's collection total.
type DailyTotal struct {
	Date        string  `json:"date" bson:"date"`
	Liters      float64 `json:"liters" bson:"liters"`
	Amount      float64 `json:"amount" bson:"amount"`
	Collections int     `json:"collections" bson:"collections"`
}

// MonthlyTotal is one month's collection total.
type MonthlyTotal struct {
	Month       string  `json:"month" bson:"month"`
	Liters      float64 `json:"liters" bson:"liters"`
	Amount      float64 `json:"amount" bson:"amount"`
	Collections int     `json:"collections" bson:"collections"`
	AverageFat  float64 `json:"averageFat" bson:"average_fat"`
}

// ReportSummary is the full operational report for a date range.
type ReportSummary struct {
	Preset      string            `json:"preset" bson:"preset"`
	StartDate   string            `json:"startDate" bson:"start_date"`
	EndDate     string            `json:"endDate" bson:"end_date"`
	Metrics     CollectionMetrics `json:"metrics" bson:"metrics"`
	Growth      PeriodGrowth      `json:"growth" bson:"growth"`
	Farmers     []FarmerStats     `json:"farmers" bson:"farmers"`
	Daily       []DailyTotal      `json:"daily" bson:"daily"`
	Monthly     []MonthlyTotal    `json:"monthly" bson:"monthly"`
	GeneratedAt time.Time         `json:"generatedAt" bson:"generated_at"`
}

// AdvanceSummary totals advances and repayments.
type AdvanceSummary struct {
	NetBalance    float64            `json:"netBalance"`
	TotalAdvanced float64            `json:"totalAdvanced"`
	TotalRepaid   float64            `json:"totalRepaid"`
	ByFarmer      map[string]float64 `json:"byFarmer"`
}
