package expdef_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/expdef"
)

const sampleDefinition = `
name = "instantiation-v4"
time_limit_sec = 60
memory_limit_mb = 2048

suite = ["gripper:prob01.pddl", "miconic:s1-0.pddl"]
excluded_domains = ["freecell"]
cyclic_domains = ["rovers", "tpp"]

[environment]
kind = "local"
workers = 2

[[configurations]]
name = "blind-join"
arguments = ["naive", "blind", "join"]

[[configurations]]
name = "blind-full-reducer"
arguments = ["naive", "blind", "full_reducer"]

[[attributes]]
name = "coverage"

[[attributes]]
name = "peak_memory"
aggregate = "geometric_mean"

[[reports]]
kind = "absolute"
outfile = "report.html"

[[reports]]
kind = "scatter"
attribute = "peak_memory"
algorithms = ["blind-join", "blind-full-reducer"]
filters = ["discriminate_org_synt"]
outfile = "peak_memory.tex"
`

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exp.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefinition(t *testing.T) {
	def, err := expdef.Load(writeDefinition(t, sampleDefinition))
	require.NoError(t, err)

	require.Equal(t, "instantiation-v4", def.Name)
	require.Equal(t, 60, def.TimeLimitSec)
	require.Equal(t, int64(2048), def.MemoryLimitMB)
	require.Len(t, def.Configurations, 2)
	require.Equal(t, []string{"naive", "blind", "join"}, def.Configurations[0].Arguments)
	require.Equal(t, []string{"freecell"}, def.ExcludedDomains)
	require.Len(t, def.Reports, 2)

	// remote_suite falls back to suite
	require.Equal(t, def.Suite, def.RemoteSuite)
	require.False(t, def.Remote("login1.scicore.unibas.ch"))
}

func TestLoadRejectsBadReports(t *testing.T) {
	bad := `
name = "x"
suite = ["gripper"]
[[configurations]]
name = "a"
arguments = ["naive"]
[[reports]]
kind = "scatter"
attribute = "coverage"
algorithms = ["a"]
outfile = "x.tex"
`
	_, err := expdef.Load(writeDefinition(t, bad))
	require.Error(t, err)
	require.Contains(t, err.Error(), "exactly two algorithms")
}

func TestLoadRejectsUnknownFilter(t *testing.T) {
	bad := `
name = "x"
suite = ["gripper"]
[[configurations]]
name = "a"
arguments = ["naive"]
[[reports]]
kind = "absolute"
outfile = "x.html"
filters = ["bogus"]
`
	_, err := expdef.Load(writeDefinition(t, bad))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown filter")
}

func TestDefaultDefinition(t *testing.T) {
	def := expdef.Default()

	require.Len(t, def.Configurations, 10)
	names := map[string]bool{}
	for _, c := range def.Configurations {
		require.False(t, names[c.Name], "duplicate configuration %s", c.Name)
		names[c.Name] = true
		require.Len(t, c.Arguments, 3)
	}
	require.True(t, names["blind-yannakakis"])
	require.True(t, names["goalcount-full-reducer"])

	require.True(t, def.Remote("node07.scicore.unibas.ch"))
	require.True(t, def.Remote("c12.cluster.bc2.ch"))
	require.False(t, def.Remote("laptop"))

	for _, r := range def.Reports {
		require.NotEmpty(t, r.Outfile)
		for _, f := range r.Filters {
			_, err := def.ResolveFilter(f)
			require.NoError(t, err)
		}
	}
}

func TestShippedDefinitionMatchesDefault(t *testing.T) {
	def, err := expdef.Load(filepath.Join("..", "..", "experiments", "instantiation.toml"))
	require.NoError(t, err)
	builtin := expdef.Default()

	var shipped, wanted []string
	for _, c := range def.Configurations {
		shipped = append(shipped, c.Name)
	}
	for _, c := range builtin.Configurations {
		wanted = append(wanted, c.Name)
	}
	require.ElementsMatch(t, wanted, shipped)

	shipped, wanted = nil, nil
	for _, r := range def.Reports {
		shipped = append(shipped, r.Kind+" "+r.Outfile)
	}
	for _, r := range builtin.Reports {
		wanted = append(wanted, r.Kind+" "+r.Outfile)
	}
	require.ElementsMatch(t, wanted, shipped)
}

func TestReportAttributesSelection(t *testing.T) {
	def, err := expdef.Load(writeDefinition(t, sampleDefinition))
	require.NoError(t, err)

	all := def.ReportAttributes(expdef.ReportDef{Kind: "absolute"})
	require.Len(t, all, 2)

	one := def.ReportAttributes(expdef.ReportDef{Kind: "absolute", Attributes: []string{"coverage"}})
	require.Len(t, one, 1)
	require.Equal(t, "coverage", one[0].Name)
}
