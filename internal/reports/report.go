package reports

import (
	"fmt"
	"math"
	"sort"

	"github.com/planbench/planbench/internal/props"
)

// Filter transforms one run record before aggregation. It may mutate the
// record and may drop it by returning false. Filters run in declaration
// order.
type Filter func(record map[string]any) bool

// AggregateFunc folds the values of one attribute over a group of runs.
// ok is false when the input leaves nothing to aggregate.
type AggregateFunc func(values []float64) (value float64, ok bool)

// Attribute declares one reported attribute and how to summarize it.
type Attribute struct {
	Name      string
	Aggregate AggregateFunc
}

// Attr declares an attribute summarized by Sum, the default.
func Attr(name string) Attribute {
	return Attribute{Name: name, Aggregate: Sum}
}

func Sum(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var s float64
	for _, v := range values {
		s += v
	}
	return s, true
}

// GeometricMean aggregates multiplicatively. The geometric mean is
// undefined over non-positive values, so they are excluded up front; a
// group with nothing left reports no value instead of panicking.
func GeometricMean(values []float64) (float64, bool) {
	var logSum float64
	n := 0
	for _, v := range values {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		logSum += math.Log(v)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return math.Exp(logSum / float64(n)), true
}

// selectRecords deep-copies the table's records, applies the transform
// filters, and restricts to the given algorithms (all when empty).
// The copy keeps report filters from leaking mutations into the table.
func selectRecords(t props.Table, filters []Filter, algorithms []string) []map[string]any {
	algoSet := map[string]bool{}
	for _, a := range algorithms {
		algoSet[a] = true
	}

	var selected []map[string]any
	for _, id := range t.RunIDs() {
		record := map[string]any{}
		for k, v := range t[id] {
			record[k] = v
		}
		if len(algoSet) > 0 && !algoSet[stringProp(record, "algorithm")] {
			continue
		}
		keep := true
		for _, f := range filters {
			if !f(record) {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, record)
		}
	}
	return selected
}

func stringProp(record map[string]any, key string) string {
	s, _ := record[key].(string)
	return s
}

func numericProp(record map[string]any, key string) (float64, bool) {
	switch v := record[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func algorithmsOf(records []map[string]any, preferred []string) []string {
	if len(preferred) > 0 {
		return preferred
	}
	seen := map[string]bool{}
	var algos []string
	for _, r := range records {
		a := stringProp(r, "algorithm")
		if a != "" && !seen[a] {
			seen[a] = true
			algos = append(algos, a)
		}
	}
	sort.Strings(algos)
	return algos
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
