package reports

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/planbench/planbench/internal/props"
)

// DefaultErrorAttributes are the columns of the error table.
var DefaultErrorAttributes = []string{
	"domain", "problem", "algorithm", "unexplained_errors", "error", "node",
}

// AbsoluteReport renders one HTML summary table per attribute, rows
// grouped by domain and aggregated per algorithm, plus an error table
// listing every run that did not finish cleanly.
type AbsoluteReport struct {
	Attributes      []Attribute
	FilterAlgorithm []string
	Filters         []Filter
	ErrorAttributes []string
	Log             *slog.Logger
}

func (r *AbsoluteReport) Render(t props.Table) (string, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	records := selectRecords(t, r.Filters, r.FilterAlgorithm)
	if len(records) == 0 {
		return "", fmt.Errorf("no runs left after filtering")
	}
	algorithms := algorithmsOf(records, r.FilterAlgorithm)

	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, attr := range r.Attributes {
		section, ok := r.renderAttribute(records, algorithms, attr)
		if !ok {
			log.Warn("skipping attribute with no usable values", "attribute", attr.Name)
			continue
		}
		fmt.Fprintf(&b, "<h2>%s</h2>\n%s\n", attr.Name, section)
	}
	b.WriteString("<h2>errors</h2>\n")
	b.WriteString(r.renderErrors(records))
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

func (r *AbsoluteReport) renderAttribute(records []map[string]any,
	algorithms []string, attr Attribute) (string, bool) {

	agg := attr.Aggregate
	if agg == nil {
		agg = Sum
	}

	// domain -> algorithm -> values over problems
	byDomain := map[string]map[string][]float64{}
	for _, rec := range records {
		v, ok := numericProp(rec, attr.Name)
		if !ok {
			continue
		}
		domain := stringProp(rec, "domain")
		algo := stringProp(rec, "algorithm")
		if byDomain[domain] == nil {
			byDomain[domain] = map[string][]float64{}
		}
		byDomain[domain][algo] = append(byDomain[domain][algo], v)
	}
	if len(byDomain) == 0 {
		return "", false
	}

	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	w := table.NewWriter()
	header := table.Row{"domain"}
	for _, a := range algorithms {
		header = append(header, a)
	}
	w.AppendHeader(header)

	totals := map[string][]float64{}
	for _, domain := range domains {
		row := table.Row{domain}
		for _, algo := range algorithms {
			values := byDomain[domain][algo]
			if v, ok := agg(values); ok {
				row = append(row, formatValue(v))
				totals[algo] = append(totals[algo], v)
			} else {
				row = append(row, "-")
			}
		}
		w.AppendRow(row)
	}

	summary := table.Row{"summary"}
	for _, algo := range algorithms {
		if v, ok := agg(totals[algo]); ok {
			summary = append(summary, formatValue(v))
		} else {
			summary = append(summary, "-")
		}
	}
	w.AppendFooter(summary)

	return w.RenderHTML(), true
}

func (r *AbsoluteReport) renderErrors(records []map[string]any) string {
	columns := r.ErrorAttributes
	if len(columns) == 0 {
		columns = DefaultErrorAttributes
	}

	w := table.NewWriter()
	header := table.Row{}
	for _, c := range columns {
		header = append(header, c)
	}
	w.AppendHeader(header)

	for _, rec := range records {
		errVal := stringProp(rec, "error")
		_, unexplained := rec["unexplained_errors"]
		if (errVal == "" || errVal == "none") && !unexplained {
			continue
		}
		row := table.Row{}
		for _, c := range columns {
			if v, ok := rec[c]; ok {
				row = append(row, fmt.Sprintf("%v", v))
			} else {
				row = append(row, "")
			}
		}
		w.AppendRow(row)
	}
	return w.RenderHTML()
}
