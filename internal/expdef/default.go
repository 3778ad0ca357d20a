package expdef

// Default returns the built-in instantiation experiment: the full
// successor-generator grid over blind and goalcount search, with the
// standard comparison reports.
func Default() *Definition {
	def := &Definition{
		Name:          "instantiation",
		TimeLimitSec:  1800,
		MemoryLimitMB: 16384,
		Environment: EnvDef{
			Kind:           "auto",
			Workers:        4,
			RemoteSuffixes: []string{".scicore.unibas.ch", ".cluster.bc2.ch"},
			Partition:      "infai_2",
			MemoryPerCPU:   "6G",
			ExtraOptions:   "#SBATCH --cpus-per-task=3",
			Export:         []string{"PATH", "DOWNWARD_BENCHMARKS", "POWER_LIFTED_SRC"},
		},
		Suite: []string{"gripper:prob01.pddl", "miconic:s1-0.pddl"},
		CyclicDomains: []string{
			"agricola-opt18-strips",
			"barman-opt11-strips",
			"barman-opt14-strips",
			"caldera-split-opt18-adl",
			"data-network-opt18-strips",
			"elevators-opt08-strips",
			"elevators-opt11-strips",
			"freecell",
			"hiking-opt14-strips",
			"nomystery-opt11-strips",
			"organic-synthesis-opt18-strips",
			"parcprinter-08-strips",
			"parcprinter-opt11-strips",
			"pipesworld-notankage",
			"pipesworld-tankage",
			"rovers",
			"satellite",
			"settlers-opt18-adl",
			"spider-opt18-strips",
			"termes-opt18-strips",
			"tetris-opt14-strips",
			"tidybot-opt11-strips",
			"tidybot-opt14-strips",
			"tpp",
		},
		Attributes: []AttrDef{
			{Name: "closed_list_size", Aggregate: "geometric_mean"},
			{Name: "cost"},
			{Name: "coverage"},
			{Name: "generated"},
			{Name: "initial_state_size"},
			{Name: "peak_memory", Aggregate: "geometric_mean"},
			{Name: "search_time"},
			{Name: "expansions"},
			{Name: "time_cyclic"},
			{Name: "visited"},
		},
	}

	searches := []struct{ name, search, heuristic string }{
		{"blind", "naive", "blind"},
		{"goalcount", "gbfs", "goalcount"},
	}
	generators := []struct{ name, generator string }{
		{"full-reducer", "full_reducer"},
		{"ordered_join", "ordered_join"},
		{"join", "join"},
		{"yannakakis", "yannakakis"},
		{"random-1", "random_join"},
	}
	for _, s := range searches {
		for _, g := range generators {
			def.Configurations = append(def.Configurations, ConfigDef{
				Name:      s.name + "-" + g.name,
				Arguments: []string{s.search, s.heuristic, g.generator},
			})
		}
	}

	def.Reports = []ReportDef{
		{Kind: "absolute", Outfile: "report.html"},
		{
			Kind:       "absolute",
			Outfile:    "compare-bfs.html",
			Algorithms: []string{"blind-full-reducer", "blind-join", "blind-ordered_join"},
			Filters:    []string{"is_cyclic", "non_cyclic_default"},
		},
	}
	for _, attr := range []string{"peak_memory", "search_time"} {
		for _, alg := range []string{"blind-join", "blind-ordered_join"} {
			def.Reports = append(def.Reports, ReportDef{
				Kind:       "scatter",
				Attribute:  attr,
				Algorithms: []string{alg, "blind-full-reducer"},
				Filters:    []string{"discriminate_org_synt"},
				Outfile:    attr + "-" + alg + "-vs-blind-full-reducer.tex",
			})
		}
	}
	for _, attr := range []string{"visited", "search_time"} {
		def.Reports = append(def.Reports, ReportDef{
			Kind:       "scatter",
			Attribute:  attr,
			Algorithms: []string{"blind-yannakakis", "blind-full-reducer"},
			Filters:    []string{"discriminate_org_synt"},
			Outfile:    attr + "-blind-yannakakis-vs-blind-full-reducer.tex",
		})
	}

	def.applyDefaults()
	return def
}
