package reports

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/planbench/planbench/internal/props"
)

// ScatterReport compares two algorithms on one attribute, one point per
// task both algorithms ran, grouped into per-category point clouds. The
// output is pgfplots TeX, matching the downstream paper toolchain. Tasks
// missing the attribute on either side are skipped and counted.
type ScatterReport struct {
	Attribute  string
	AlgorithmX string
	AlgorithmY string

	// GetCategory assigns each point to a cloud; DomainAsCategory when nil.
	GetCategory func(record map[string]any) string

	Filters []Filter
	Log     *slog.Logger
}

type point struct {
	x, y float64
}

func (r *ScatterReport) Render(t props.Table) (string, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	getCategory := r.GetCategory
	if getCategory == nil {
		getCategory = DomainAsCategory
	}

	records := selectRecords(t, r.Filters, []string{r.AlgorithmX, r.AlgorithmY})
	if len(records) == 0 {
		return "", fmt.Errorf("no runs left after filtering")
	}

	type side struct {
		x, y     float64
		hasX     bool
		hasY     bool
		category string
	}
	tasks := map[string]*side{}
	for _, rec := range records {
		key := stringProp(rec, "domain") + ":" + stringProp(rec, "problem")
		s := tasks[key]
		if s == nil {
			s = &side{category: getCategory(rec)}
			tasks[key] = s
		}
		v, ok := numericProp(rec, r.Attribute)
		if !ok {
			continue
		}
		switch stringProp(rec, "algorithm") {
		case r.AlgorithmX:
			s.x, s.hasX = v, true
		case r.AlgorithmY:
			s.y, s.hasY = v, true
		}
	}

	clouds := map[string][]point{}
	skipped := 0
	for _, s := range tasks {
		if !s.hasX || !s.hasY {
			skipped++
			continue
		}
		clouds[s.category] = append(clouds[s.category], point{x: s.x, y: s.y})
	}
	if len(clouds) == 0 {
		return "", fmt.Errorf("no complete point pairs for %s", r.Attribute)
	}
	if skipped > 0 {
		log.Warn("scatter points skipped for missing values",
			"attribute", r.Attribute, "skipped", skipped)
	}

	categories := make([]string, 0, len(clouds))
	for c := range clouds {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	fmt.Fprintf(&b, "%% %s: %s vs %s\n", r.Attribute, r.AlgorithmX, r.AlgorithmY)
	b.WriteString("\\begin{tikzpicture}\n")
	fmt.Fprintf(&b, "\\begin{axis}[xlabel={%s}, ylabel={%s}, xmode=log, ymode=log]\n",
		texEscape(r.AlgorithmX), texEscape(r.AlgorithmY))
	for _, category := range categories {
		points := clouds[category]
		sort.Slice(points, func(i, j int) bool {
			if points[i].x != points[j].x {
				return points[i].x < points[j].x
			}
			return points[i].y < points[j].y
		})
		b.WriteString("\\addplot+[only marks] coordinates {\n")
		for _, p := range points {
			fmt.Fprintf(&b, "  (%g, %g)\n", p.x, p.y)
		}
		b.WriteString("};\n")
		fmt.Fprintf(&b, "\\addlegendentry{%s}\n", texEscape(category))
	}
	b.WriteString("\\end{axis}\n\\end{tikzpicture}\n")
	return b.String(), nil
}

func texEscape(s string) string {
	replacer := strings.NewReplacer("_", "\\_", "%", "\\%", "&", "\\&", "#", "\\#")
	return replacer.Replace(s)
}
