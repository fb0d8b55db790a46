package reporting

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
	"github.com/mamadbah2/milkcenter/internal/service/rates"
)

const topFarmers = 5

// RenderSummary formats a summary as a chat message.
func RenderSummary(s models.ReportSummary) string {
	if s.Metrics.TotalCollections == 0 {
		return fmt.Sprintf("Milk summary (%s to %s): no collections recorded.", s.StartDate, s.EndDate)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Milk summary (%s to %s)\n", s.StartDate, s.EndDate)
	fmt.Fprintf(&b, "Collections: %d | Liters: %.2f | Amount: %s\n",
		s.Metrics.TotalCollections, s.Metrics.TotalLiters, rates.FormatAmount(s.Metrics.TotalAmount))
	fmt.Fprintf(&b, "Average fat: %.2f%% | Manual amounts: %d\n", s.Metrics.AverageFat, s.Metrics.ManualCollections)
	fmt.Fprintf(&b, "Vs previous period: amount %s, liters %s, collections %s\n",
		signed(s.Growth.Amount), signed(s.Growth.Liters), signed(s.Growth.Collections))

	b.WriteString("Top farmers:")
	for i, f := range s.Farmers {
		if i == topFarmers {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s - %.2f L, %s", i+1, f.Name, f.TotalLiters, rates.FormatAmount(f.TotalAmount))
		if f.NetAdvances != 0 {
			fmt.Fprintf(&b, " (payable %s)", rates.FormatAmount(f.Payable))
		}
	}
	return b.String()
}

// RenderStatement formats one farmer's statement.
func RenderStatement(stats models.FarmerStats, r DateRange) string {
	if stats.Collections == 0 && stats.NetAdvances == 0 {
		return fmt.Sprintf("Statement for %s (%s to %s): no activity.", stats.Name, r.StartDate(), r.EndDate())
	}
	return fmt.Sprintf("Statement for %s (%s to %s): %d collections, %.2f L, amount %s, advances %s, payable %s.",
		stats.Name, r.StartDate(), r.EndDate(), stats.Collections, stats.TotalLiters,
		rates.FormatAmount(stats.TotalAmount), rates.FormatAmount(stats.NetAdvances), rates.FormatAmount(stats.Payable))
}

func signed(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}
