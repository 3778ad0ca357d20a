package reports

import (
	"math"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// DomainAsCategory groups scatter points by domain, honoring a category
// override left by an earlier filter.
func DomainAsCategory(record map[string]any) string {
	if c := stringProp(record, "category"); c != "" {
		return c
	}
	return stringProp(record, "domain")
}

// NonCyclicDefault normalizes time_cyclic before aggregation: a missing
// or NaN value becomes 0.0. Acyclic domains never report the attribute,
// so absent here genuinely means "no time spent", unlike other attributes
// where absent stays absent.
func NonCyclicDefault(record map[string]any) bool {
	v, ok := numericProp(record, "time_cyclic")
	if !ok || math.IsNaN(v) {
		record["time_cyclic"] = 0.0
	}
	return true
}

// IsCyclic retains only runs from cyclic-schema domains that were solved
// with a non-trivial search effort.
func IsCyclic(cyclicDomains mapset.Set[string]) Filter {
	return func(record map[string]any) bool {
		if !cyclicDomains.Contains(stringProp(record, "domain")) {
			return false
		}
		coverage, _ := numericProp(record, "coverage")
		searchTime, ok := numericProp(record, "search_time")
		return coverage == 1 && ok && searchTime >= 1.0
	}
}

// DiscriminateOrgSynt pulls the organic synthesis domains out into their
// own scatter category; their ground instances dwarf everything else and
// would otherwise drown the per-domain clouds.
func DiscriminateOrgSynt(record map[string]any) bool {
	if strings.HasPrefix(stringProp(record, "domain"), "organic-synthesis") {
		record["category"] = "organic-synthesis"
	}
	return true
}
