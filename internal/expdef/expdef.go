// Package expdef loads experiment definition files: the configuration
// grid, the benchmark suite, attribute declarations, and report
// declarations, all in one TOML document.
package expdef

import (
	"fmt"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/planbench/planbench/internal/reports"
)

type ConfigDef struct {
	Name      string   `toml:"name"`
	Arguments []string `toml:"arguments"`
}

type AttrDef struct {
	Name string `toml:"name"`
	// Aggregate is "sum" (default) or "geometric_mean".
	Aggregate string `toml:"aggregate"`
}

type ReportDef struct {
	// Kind is "absolute" or "scatter".
	Kind    string `toml:"kind"`
	Outfile string `toml:"outfile"`

	// Attributes restricts an absolute report; empty means all declared.
	Attributes []string `toml:"attributes"`

	// Attribute is the single compared attribute of a scatter report.
	Attribute string `toml:"attribute"`

	// Algorithms is the filter list of an absolute report, or the
	// (x, y) pair of a scatter report.
	Algorithms []string `toml:"algorithms"`

	// Filters are named record filters applied in order.
	Filters []string `toml:"filters"`
}

type EnvDef struct {
	// Kind is "local", "slurm", or "auto" (slurm when the hostname has
	// one of RemoteSuffixes).
	Kind           string   `toml:"kind"`
	Workers        int      `toml:"workers"`
	RemoteSuffixes []string `toml:"remote_suffixes"`

	Partition    string   `toml:"partition"`
	MemoryPerCPU string   `toml:"memory_per_cpu"`
	ExtraOptions string   `toml:"extra_options"`
	Export       []string `toml:"export"`
}

type Definition struct {
	Name          string `toml:"name"`
	TimeLimitSec  int    `toml:"time_limit_sec"`
	MemoryLimitMB int64  `toml:"memory_limit_mb"`

	Environment EnvDef `toml:"environment"`

	// Suite is used locally, RemoteSuite on the cluster. RemoteSuite
	// falls back to Suite when empty.
	Suite       []string `toml:"suite"`
	RemoteSuite []string `toml:"remote_suite"`

	ExcludedDomains []string `toml:"excluded_domains"`
	CyclicDomains   []string `toml:"cyclic_domains"`

	Configurations []ConfigDef `toml:"configurations"`
	Attributes     []AttrDef   `toml:"attributes"`
	Reports        []ReportDef `toml:"reports"`
}

func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment definition: %w", err)
	}
	var def Definition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse experiment definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	def.applyDefaults()
	return &def, nil
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("experiment definition needs a name")
	}
	if len(d.Configurations) == 0 {
		return fmt.Errorf("experiment definition declares no configurations")
	}
	if len(d.Suite) == 0 {
		return fmt.Errorf("experiment definition declares no suite entries")
	}
	for _, a := range d.Attributes {
		switch a.Aggregate {
		case "", "sum", "geometric_mean":
		default:
			return fmt.Errorf("attribute %s: unknown aggregate %q", a.Name, a.Aggregate)
		}
	}
	for i, r := range d.Reports {
		switch r.Kind {
		case "absolute":
		case "scatter":
			if r.Attribute == "" {
				return fmt.Errorf("report %d: scatter needs an attribute", i+1)
			}
			if len(r.Algorithms) != 2 {
				return fmt.Errorf("report %d: scatter needs exactly two algorithms", i+1)
			}
		default:
			return fmt.Errorf("report %d: unknown kind %q", i+1, r.Kind)
		}
		if r.Outfile == "" {
			return fmt.Errorf("report %d: missing outfile", i+1)
		}
		for _, f := range r.Filters {
			if _, err := d.ResolveFilter(f); err != nil {
				return fmt.Errorf("report %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func (d *Definition) applyDefaults() {
	if d.TimeLimitSec == 0 {
		d.TimeLimitSec = 1800
	}
	if d.MemoryLimitMB == 0 {
		d.MemoryLimitMB = 16384
	}
	if d.Environment.Kind == "" {
		d.Environment.Kind = "auto"
	}
	if d.Environment.Workers == 0 {
		d.Environment.Workers = 4
	}
	if len(d.RemoteSuite) == 0 {
		d.RemoteSuite = d.Suite
	}
}

// Remote reports whether the definition selects the cluster environment
// on the given hostname.
func (d *Definition) Remote(hostname string) bool {
	switch d.Environment.Kind {
	case "slurm":
		return true
	case "local":
		return false
	}
	for _, suffix := range d.Environment.RemoteSuffixes {
		if strings.HasSuffix(hostname, suffix) {
			return true
		}
	}
	return false
}

// ReportAttributes resolves an absolute report's attribute list against
// the experiment-wide declarations.
func (d *Definition) ReportAttributes(r ReportDef) []reports.Attribute {
	wanted := mapset.NewSet[string](r.Attributes...)
	var attrs []reports.Attribute
	for _, a := range d.Attributes {
		if wanted.Cardinality() > 0 && !wanted.Contains(a.Name) {
			continue
		}
		attr := reports.Attr(a.Name)
		if a.Aggregate == "geometric_mean" {
			attr.Aggregate = reports.GeometricMean
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// ResolveFilter maps a filter name from the definition file to its
// implementation.
func (d *Definition) ResolveFilter(name string) (reports.Filter, error) {
	switch name {
	case "is_cyclic":
		return reports.IsCyclic(mapset.NewSet[string](d.CyclicDomains...)), nil
	case "non_cyclic_default":
		return reports.NonCyclicDefault, nil
	case "discriminate_org_synt":
		return reports.DiscriminateOrgSynt, nil
	}
	return nil, fmt.Errorf("unknown filter %q", name)
}

// ResolveFilters maps every named filter of a report, preserving order.
func (d *Definition) ResolveFilters(names []string) ([]reports.Filter, error) {
	filters := make([]reports.Filter, 0, len(names))
	for _, name := range names {
		f, err := d.ResolveFilter(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}
