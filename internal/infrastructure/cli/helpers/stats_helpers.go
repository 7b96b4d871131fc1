package helpers

import (
	"sort"

	"github.com/doeshing/medetech-go/internal/domain"
)

// MedicineStatistic represents how often a medicine was identified
type MedicineStatistic struct {
	Name  string
	Count int
}

// HistoryStatistics summarises the scan history.
type HistoryStatistics struct {
	Total        int
	Unknown      int
	ByConfidence map[domain.Confidence]int
	Top          []MedicineStatistic
}

// AnalyzeHistory counts confidence labels and the most frequent medicines.
// Unknown results are counted separately and never ranked.
func AnalyzeHistory(entries []domain.HistoryEntry, limit int) HistoryStatistics {
	stats := HistoryStatistics{
		Total:        len(entries),
		ByConfidence: make(map[domain.Confidence]int),
	}
	frequency := make(map[string]int)
	for _, entry := range entries {
		stats.ByConfidence[entry.Confidence]++
		if entry.IsUnknown() {
			stats.Unknown++
			continue
		}
		frequency[entry.Name]++
	}
	stats.Top = CalculateTopMedicines(frequency, limit)
	return stats
}

// CalculateTopMedicines returns the top N most frequently identified medicines
// If limit is 0 or negative, returns all medicines
func CalculateTopMedicines(frequency map[string]int, limit int) []MedicineStatistic {
	stats := make([]MedicineStatistic, 0, len(frequency))
	for name, count := range frequency {
		stats = append(stats, MedicineStatistic{Name: name, Count: count})
	}
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

// sortStatisticsByFrequency sorts by count (descending) then by name (ascending)
func sortStatisticsByFrequency(stats []MedicineStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Name < stats[j].Name
		}
		return stats[i].Count > stats[j].Count
	})
}

func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}
