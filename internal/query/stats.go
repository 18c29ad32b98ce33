package query

import (
	"fmt"
	"sort"

	"github.com/Aman-CERP/asrsmcp/internal/hfacs"
	"github.com/Aman-CERP/asrsmcp/internal/incident"
)

type tally struct {
	label string
	count int
}

// StatisticsSummary tallies one classification attribute across the
// records passing the optional date and aircraft filters.
func (e *Engine) StatisticsSummary(p StatisticsParams) (StatisticsResult, error) {
	level := p.StatisticLevel
	if level == "" {
		level = DefaultStatisticLevel
	}
	attr, err := validateAttribute("statistic_level", level)
	if err != nil {
		return StatisticsResult{}, err
	}
	if err := requirePositive("top_n", p.TopN); err != nil {
		return StatisticsResult{}, err
	}

	filters := make(map[string]string)
	if p.StartDate != "" {
		if err := validateYYYYMM("start_date_yyyymm", p.StartDate); err != nil {
			return StatisticsResult{}, err
		}
		filters["start_date_yyyymm"] = p.StartDate
	}
	if p.EndDate != "" {
		if err := validateYYYYMM("end_date_yyyymm", p.EndDate); err != nil {
			return StatisticsResult{}, err
		}
		filters["end_date_yyyymm"] = p.EndDate
	}
	if p.StartDate != "" && p.EndDate != "" {
		if err := validateOrder(p.StartDate, p.EndDate); err != nil {
			return StatisticsResult{}, err
		}
	}
	if p.AircraftTypeContains != "" {
		filters["aircraft_type_contains"] = p.AircraftTypeContains
	}

	var (
		total      int
		classified int
		order      []string
		tallies    = make(map[string]*tally)
	)

	e.scan(func(r incident.Record) bool {
		if !statisticsFilter(r, p) {
			return true
		}
		total++

		entries, _ := hfacs.Entries(r)
		if len(entries) > 0 {
			classified++
		}
		for _, entry := range entries {
			v := entry.Value(attr)
			if v == "" {
				continue
			}
			k := incident.Fold(v)
			t, ok := tallies[k]
			if !ok {
				t = &tally{label: v}
				tallies[k] = t
				order = append(order, k)
			}
			t.count++
		}
		return true
	})

	ranked := make([]*tally, 0, len(order))
	for _, k := range order {
		ranked = append(ranked, tallies[k])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
	if len(ranked) > p.TopN {
		ranked = ranked[:p.TopN]
	}

	items := make([]StatItem, 0, len(ranked))
	for _, t := range ranked {
		items = append(items, StatItem{Item: t.label, Count: t.count, Percentage: percentage(t.count, classified)})
	}

	return StatisticsResult{
		StatisticLevel:                string(attr),
		FiltersApplied:                filters,
		TotalIncidentsMatchingFilters: total,
		IncidentsWithHFACSData:        classified,
		TopItems:                      items,
	}, nil
}

func statisticsFilter(r incident.Record, p StatisticsParams) bool {
	if p.StartDate != "" || p.EndDate != "" {
		d, ok := incident.Date(r)
		if !ok {
			return false
		}
		if p.StartDate != "" && d < p.StartDate {
			return false
		}
		if p.EndDate != "" && d > p.EndDate {
			return false
		}
	}
	if p.AircraftTypeContains != "" && !containsResolved(r, incident.AircraftType, p.AircraftTypeContains) {
		return false
	}
	return true
}

func percentage(count, denominator int) string {
	if denominator == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(denominator)*100)
}
