// Package pagerange converts user-facing page selections into page indices.
//
// User-facing page numbers are 1-based; everything returned as an "index" is
// 0-based.
package pagerange

import (
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive range of 1-based page numbers
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the range is ascending and lies inside [1, total]
func (r Range) Valid(total int) bool {
	return r.Start >= 1 && r.Start <= r.End && r.End <= total
}

// Indices returns the 0-based indices covered by the range
func (r Range) Indices() []int {
	if r.End < r.Start {
		return []int{}
	}
	indices := make([]int, 0, r.End-r.Start+1)
	for n := r.Start; n <= r.End; n++ {
		indices = append(indices, n-1)
	}
	return indices
}

// Resolve converts a comma separated selection such as "1-3, 5, 8-10" into
// the ascending, deduplicated list of 0-based page indices it selects in a
// document of total pages.
//
// Malformed tokens are skipped, page numbers outside [1, total] are dropped
// and ranges are clamped to the document. Resolve never fails; an
// expression that selects nothing yields an empty slice.
func Resolve(expr string, total int) []int {
	if total <= 0 {
		return []int{}
	}

	selected := make(map[int]struct{})
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if startStr, endStr, isRange := strings.Cut(token, "-"); isRange {
			start, errStart := strconv.Atoi(strings.TrimSpace(startStr))
			end, errEnd := strconv.Atoi(strings.TrimSpace(endStr))
			if errStart != nil || errEnd != nil {
				continue
			}
			for n := max(1, start); n <= min(total, end); n++ {
				selected[n-1] = struct{}{}
			}
			continue
		}

		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > total {
			continue
		}
		selected[n-1] = struct{}{}
	}

	indices := make([]int, 0, len(selected))
	for idx := range selected {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// Clamp filters an explicit index list down to the valid, ascending,
// deduplicated indices of a document of total pages.
func Clamp(indices []int, total int) []int {
	selected := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < total {
			selected[idx] = struct{}{}
		}
	}

	result := make([]int, 0, len(selected))
	for idx := range selected {
		result = append(result, idx)
	}
	sort.Ints(result)
	return result
}

// All returns the indices of every page of a document of total pages
func All(total int) []int {
	if total <= 0 {
		return []int{}
	}
	return Range{Start: 1, End: total}.Indices()
}

// ParseRanges parses "1-3, 5, 7-9" into ranges, keeping the caller's order.
// A single number n becomes {n, n}. Malformed tokens are skipped; bounds are
// not checked here.
func ParseRanges(expr string) []Range {
	ranges := make([]Range, 0)
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if startStr, endStr, isRange := strings.Cut(token, "-"); isRange {
			start, errStart := strconv.Atoi(strings.TrimSpace(startStr))
			end, errEnd := strconv.Atoi(strings.TrimSpace(endStr))
			if errStart != nil || errEnd != nil {
				continue
			}
			ranges = append(ranges, Range{Start: start, End: end})
			continue
		}

		if n, err := strconv.Atoi(token); err == nil {
			ranges = append(ranges, Range{Start: n, End: n})
		}
	}
	return ranges
}

// Selection turns 0-based indices into compact 1-based selection terms such
// as ["1-3", "5"]. Indices are expected ascending; consecutive runs collapse.
func Selection(indices []int) []string {
	terms := make([]string, 0)
	for i := 0; i < len(indices); {
		j := i
		for j+1 < len(indices) && indices[j+1] == indices[j]+1 {
			j++
		}
		if i == j {
			terms = append(terms, strconv.Itoa(indices[i]+1))
		} else {
			terms = append(terms, strconv.Itoa(indices[i]+1)+"-"+strconv.Itoa(indices[j]+1))
		}
		i = j + 1
	}
	return terms
}

// Format is Selection joined with commas
func Format(indices []int) string {
	return strings.Join(Selection(indices), ",")
}

// Ascending splits indices into maximal runs that are strictly ascending,
// preserving order. [0 1 2 0 1] becomes [[0 1 2] [0 1]].
func Ascending(indices []int) [][]int {
	chunks := make([][]int, 0)
	start := 0
	for i := 1; i <= len(indices); i++ {
		if i == len(indices) || indices[i] <= indices[i-1] {
			if i > start {
				chunks = append(chunks, indices[start:i])
			}
			start = i
		}
	}
	return chunks
}
