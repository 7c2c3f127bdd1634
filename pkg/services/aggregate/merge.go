package aggregate

import (
	"fmt"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

// DuplicatePolicy decides what happens when several records in one set share a file name.
type DuplicatePolicy string

const (
	// DuplicatesSum folds records with the same file name into one row, summing their counts.
	DuplicatesSum DuplicatePolicy = "sum"
	// DuplicatesSeparate keeps one row per primary record; each row takes the first matching
	// comparison record and later duplicates are ignored.
	DuplicatesSeparate DuplicatePolicy = "separate"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", DuplicatesSum:
		return DuplicatesSum, nil
	case DuplicatesSeparate:
		return DuplicatesSeparate, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q (expected sum or separate)", s)
}

// Merge builds chart rows keyed by file name. Primary rows come first in input order;
// comparison records fill in the comparison fields of matching rows, and files only present
// in the comparison set are appended with zero primary counts. When compare is false the
// comparison set is ignored and comparison fields stay nil.
func Merge(
	primary, comparison []domain.DetectionRequest,
	compare bool,
	policy DuplicatePolicy,
) []domain.ChartRow {
	rows := make([]domain.ChartRow, 0, len(primary))
	index := map[string][]int{}

	for _, req := range primary {
		if policy != DuplicatesSeparate {
			if idx, ok := index[req.FileName]; ok {
				rows[idx[0]].Apples += req.AppleCount()
				rows[idx[0]].Trees += req.TreeCount()
				continue
			}
		}
		row := domain.ChartRow{
			FileName: req.FileName,
			Apples:   req.AppleCount(),
			Trees:    req.TreeCount(),
		}
		if compare {
			row.ApplesComparison = intPtr(0)
			row.TreesComparison = intPtr(0)
		}
		index[req.FileName] = append(index[req.FileName], len(rows))
		rows = append(rows, row)
	}

	if !compare {
		return rows
	}

	// rows whose comparison fields were already written by a comparison record
	seen := map[int]bool{}
	for _, req := range comparison {
		idx, ok := index[req.FileName]
		if !ok {
			index[req.FileName] = []int{len(rows)}
			seen[len(rows)] = true
			rows = append(rows, domain.ChartRow{
				FileName:         req.FileName,
				ApplesComparison: intPtr(req.AppleCount()),
				TreesComparison:  intPtr(req.TreeCount()),
			})
			continue
		}
		for _, i := range idx {
			switch {
			case !seen[i]:
				*rows[i].ApplesComparison = req.AppleCount()
				*rows[i].TreesComparison = req.TreeCount()
			case policy == DuplicatesSeparate:
				// the first matching comparison record wins
			default:
				*rows[i].ApplesComparison += req.AppleCount()
				*rows[i].TreesComparison += req.TreeCount()
			}
			seen[i] = true
		}
	}
	return rows
}

// ChartTotalsOf sums the given rows. Comparison sums are only produced in comparison mode.
func ChartTotalsOf(rows []domain.ChartRow, compare bool) domain.ChartTotals {
	var totals domain.ChartTotals
	if compare {
		totals.ApplesComparison = intPtr(0)
		totals.TreesComparison = intPtr(0)
	}
	for _, row := range rows {
		totals.Apples += row.Apples
		totals.Trees += row.Trees
		if compare {
			*totals.ApplesComparison += deref(row.ApplesComparison)
			*totals.TreesComparison += deref(row.TreesComparison)
		}
	}
	return totals
}

// AvgApplesPerTree is apples divided by trees, 0 when no trees were detected.
func AvgApplesPerTree(t domain.Totals) float64 {
	if t.Trees == 0 {
		return 0
	}
	return float64(t.Apples) / float64(t.Trees)
}

func intPtr(v int) *int {
	return &v
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
