package service

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Bhati90/workw-sub001/model"
)

// SearchState is the state of one contractor lookup interaction
type SearchState string

const (
	SearchIdle       SearchState = "idle"
	SearchNotFound   SearchState = "not_found"
	SearchResolved   SearchState = "resolved"
	SearchByVillage  SearchState = "by_village"
	SearchByCrewSize SearchState = "by_crew_size"
	SearchByMobile   SearchState = "by_mobile"
)

// VillageOption is one choice in the village narrowing step
type VillageOption struct {
	Village string `json:"village"`
	Count   int    `json:"count"`
}

// CrewSizeOption is one choice in the crew-size narrowing step
type CrewSizeOption struct {
	CrewSize string `json:"crew_size"`
	Count    int    `json:"count"`
}

// isNumericQuery reports whether the trimmed query consists entirely of
// digits, which switches matching from names to mobile numbers
func isNumericQuery(q string) bool {
	for _, r := range q {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(q) > 0
}

// MatchContractors returns the candidates matching a free-text query.
// Digit-only queries match by substring against the mobile field; anything
// else matches case-insensitively against the name. An empty or
// whitespace-only query returns nil without matching.
func MatchContractors(query string, roster []model.Contractor) []model.Contractor {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	var matched []model.Contractor
	if isNumericQuery(q) {
		for _, c := range roster {
			if strings.Contains(c.Mobile, q) {
				matched = append(matched, c)
			}
		}
		return matched
	}

	q = strings.ToLower(q)
	for _, c := range roster {
		if strings.Contains(strings.ToLower(c.Name), q) {
			matched = append(matched, c)
		}
	}
	return matched
}

// PartitionVillages groups candidates by exact village value. Villages are
// compared verbatim, so "Pune" and "pune " count as two villages; the
// source behaves the same way.
func PartitionVillages(candidates []model.Contractor) []VillageOption {
	counts := make(map[string]int)
	for _, c := range candidates {
		counts[c.Village]++
	}

	options := make([]VillageOption, 0, len(counts))
	for village, count := range counts {
		options = append(options, VillageOption{Village: village, Count: count})
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Village < options[j].Village
	})
	return options
}

// PartitionCrewSizes groups candidates by exact crew-size value, ordered
// ascending. Numeric values sort numerically and come before any
// non-numeric entries.
func PartitionCrewSizes(candidates []model.Contractor) []CrewSizeOption {
	counts := make(map[string]int)
	for _, c := range candidates {
		counts[c.CrewSize]++
	}

	options := make([]CrewSizeOption, 0, len(counts))
	for size, count := range counts {
		options = append(options, CrewSizeOption{CrewSize: size, Count: count})
	}
	sort.Slice(options, func(i, j int) bool {
		return crewSizeLess(options[i].CrewSize, options[j].CrewSize)
	})
	return options
}

func crewSizeLess(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// FilterByVillage keeps only candidates with the exact village value
func FilterByVillage(candidates []model.Contractor, village string) []model.Contractor {
	var out []model.Contractor
	for _, c := range candidates {
		if c.Village == village {
			out = append(out, c)
		}
	}
	return out
}

// FilterByCrewSize keeps only candidates with the exact crew-size value
func FilterByCrewSize(candidates []model.Contractor, crewSize string) []model.Contractor {
	var out []model.Contractor
	for _, c := range candidates {
		if c.CrewSize == crewSize {
			out = append(out, c)
		}
	}
	return out
}
