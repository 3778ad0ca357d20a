package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// ValueKind selects how a captured group is converted.
type ValueKind int

const (
	Int ValueKind = iota
	Float
	String
)

// Pattern extracts one attribute from a log file. The regexp must have
// exactly one capture group.
type Pattern struct {
	Attribute string
	Regex     *regexp.Regexp
	Kind      ValueKind
}

// Parser scans one log file of a run directory for declared patterns. A
// pattern that does not match leaves its attribute absent; a captured
// value that fails to convert is dropped the same way. Parse never fails a
// run, it only yields fewer attributes.
type Parser struct {
	File     string
	Patterns []Pattern
}

func (p *Parser) Parse(runDir string) (map[string]any, []string) {
	props := map[string]any{}
	var warnings []string

	data, err := os.ReadFile(filepath.Join(runDir, p.File))
	if err != nil {
		if !os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("cannot read %s: %v", p.File, err))
		}
		return props, warnings
	}

	for _, pat := range p.Patterns {
		m := pat.Regex.FindSubmatch(data)
		if m == nil {
			continue
		}
		raw := string(m[1])
		switch pat.Kind {
		case Int:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: bad int %q", pat.Attribute, raw))
				continue
			}
			props[pat.Attribute] = v
		case Float:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: bad float %q", pat.Attribute, raw))
				continue
			}
			props[pat.Attribute] = v
		case String:
			props[pat.Attribute] = raw
		}
	}
	return props, warnings
}

// PowerLifted returns the parser for the lifted planner's search log.
func PowerLifted() *Parser {
	return &Parser{
		File: "run-search.log",
		Patterns: []Pattern{
			{Attribute: "search_time", Regex: regexp.MustCompile(`Search time: ([0-9.]+)s`), Kind: Float},
			{Attribute: "total_time", Regex: regexp.MustCompile(`Total time: ([0-9.]+)s`), Kind: Float},
			{Attribute: "expansions", Regex: regexp.MustCompile(`Expanded ([0-9]+) state`), Kind: Int},
			{Attribute: "generated", Regex: regexp.MustCompile(`Generated ([0-9]+) state`), Kind: Int},
			{Attribute: "visited", Regex: regexp.MustCompile(`Visited ([0-9]+) state`), Kind: Int},
			{Attribute: "closed_list_size", Regex: regexp.MustCompile(`Closed list size: ([0-9]+)`), Kind: Int},
			{Attribute: "initial_state_size", Regex: regexp.MustCompile(`Initial state size: ([0-9]+)`), Kind: Int},
			{Attribute: "peak_memory", Regex: regexp.MustCompile(`Peak memory usage: ([0-9]+) kB`), Kind: Int},
			{Attribute: "cost", Regex: regexp.MustCompile(`Plan cost: ([0-9]+)`), Kind: Int},
			{Attribute: "time_cyclic", Regex: regexp.MustCompile(`Cyclic time: ([0-9.]+)s`), Kind: Float},
			{Attribute: "solved", Regex: regexp.MustCompile(`(Solution found)`), Kind: String},
		},
	}
}
