package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntflow-lang/huntflow/ast"
	"github.com/huntflow-lang/huntflow/parser"
	"github.com/huntflow-lang/huntflow/symtable"
	"github.com/huntflow-lang/huntflow/timefmt"
)

// compileWhere parses a full GET statement and compiles its WHERE clause,
// so tests exercise the same trees the executor sees.
func compileWhere(t *testing.T, where string, store *symtable.Store) *Predicate {
	t.Helper()
	stmts, err := parser.Parse("x = get network-traffic from file:///b.json where " + where)
	require.NoError(t, err)
	pred, err := Compile(stmts[0].(*ast.Get).Where, store)
	require.NoError(t, err)
	return pred
}

func trafficRows() []symtable.Row {
	return []symtable.Row{
		{"type": "network-traffic", "dst_port": float64(22), "dst_ref.value": "10.0.0.91"},
		{"type": "network-traffic", "dst_port": float64(22), "dst_ref.value": "10.0.0.7"},
		{"type": "network-traffic", "dst_port": float64(443), "dst_ref.value": "10.0.0.91"},
		{"type": "network-traffic", "dst_port": float64(3128), "dst_ref.value": "10.0.0.134"},
	}
}

func matchCount(pred *Predicate, rows []symtable.Row) int {
	n := 0
	for _, row := range rows {
		if pred.Match(row) {
			n++
		}
	}
	return n
}

func TestCompileOperators(t *testing.T) {
	store := symtable.NewStore()
	rows := trafficRows()

	tests := []struct {
		where string
		count int
	}{
		{"[network-traffic:dst_port = 22]", 2},
		{"[network-traffic:dst_port < 100]", 2},
		{"[network-traffic:dst_port > 100]", 2},
		{"[network-traffic:dst_port <= 443]", 3},
		{"[network-traffic:dst_port >= 443]", 2},
		{"[network-traffic:dst_ref.value = '10.0.0.91']", 2},
		{"[network-traffic:dst_ref.value LIKE '10.0.0.%']", 4},
		{"[network-traffic:dst_ref.value LIKE '%.91']", 2},
		{"[network-traffic:dst_ref.value LIKE '10.0.0.9']", 0},
		{"[network-traffic:dst_port = 8080]", 0},
		{"[network-traffic:no_such_field = 1]", 0},
	}
	for _, tt := range tests {
		pred := compileWhere(t, tt.where, store)
		assert.Equal(t, tt.count, matchCount(pred, rows), tt.where)
	}
}

func TestCompileLikeIsCaseSensitive(t *testing.T) {
	store := symtable.NewStore()
	rows := []symtable.Row{
		{"type": "user-account", "account_login": "Henry"},
		{"type": "user-account", "account_login": "henry"},
	}
	stmts, err := parser.Parse("x = get user-account from file:///b.json where [user-account:account_login LIKE 'hen%']")
	require.NoError(t, err)
	pred, err := Compile(stmts[0].(*ast.Get).Where, store)
	require.NoError(t, err)
	assert.Equal(t, 1, matchCount(pred, rows))
}

func TestCompileBooleanComposition(t *testing.T) {
	store := symtable.NewStore()
	rows := trafficRows()

	and := compileWhere(t, "[network-traffic:dst_ref.value = '10.0.0.91' AND network-traffic:dst_port = 22]", store)
	or := compileWhere(t, "[network-traffic:dst_ref.value = '10.0.0.91' OR network-traffic:dst_port = 22]", store)

	assert.Equal(t, 1, matchCount(and, rows))
	assert.Equal(t, 3, matchCount(or, rows))
}

func TestCompileMismatchedTypeNeverMatches(t *testing.T) {
	store := symtable.NewStore()
	pred := compileWhere(t, "[ipv4-addr:value = '10.0.0.91']", store)
	assert.Equal(t, 0, matchCount(pred, trafficRows()))
}

func TestGeneratedPattern(t *testing.T) {
	store := symtable.NewStore()
	store.Create("conns_a", "network-traffic", []symtable.Row{
		{"type": "network-traffic", "dst_port": float64(3128)},
		{"type": "network-traffic", "dst_port": float64(443)},
		{"type": "network-traffic", "dst_port": float64(3128)},
	})

	pred := compileWhere(t, "[network-traffic:dst_port = conns_a.dst_port]", store)
	rows := trafficRows()
	assert.Equal(t, 2, matchCount(pred, rows), "443 and 3128 rows")
	assert.Nil(t, pred.Window(nil), "no observation timestamps, no derived window")
}

func TestGeneratedPatternEmptyDistinctSet(t *testing.T) {
	store := symtable.NewStore()
	store.Create("conns_a", "network-traffic", nil)

	pred := compileWhere(t, "[network-traffic:dst_port = conns_a.dst_port]", store)
	assert.Equal(t, 0, matchCount(pred, trafficRows()))
}

func TestGeneratedPatternDerivedWindow(t *testing.T) {
	store := symtable.NewStore()
	store.Create("conns_a", "network-traffic", []symtable.Row{
		{
			"type": "network-traffic", "dst_port": float64(3128),
			symtable.FirstObserved: "2020-06-30T19:40:00Z",
			symtable.LastObserved:  "2020-06-30T19:41:00Z",
		},
		{
			"type": "network-traffic", "dst_port": float64(443),
			symtable.FirstObserved: "2020-06-30T19:44:00Z",
			symtable.LastObserved:  "2020-06-30T19:45:00Z",
		},
	})

	pred := compileWhere(t, "[network-traffic:dst_port = conns_a.dst_port]", store)
	window := pred.Window(nil)
	require.NotNil(t, window)
	assert.True(t, window.Start.Equal(time.Date(2020, 6, 30, 19, 40, 0, 0, time.UTC)))
	assert.True(t, window.Stop.Equal(time.Date(2020, 6, 30, 19, 45, 0, 0, time.UTC)))
}

func TestExplicitWindowOverridesDerived(t *testing.T) {
	store := symtable.NewStore()
	store.Create("conns_a", "network-traffic", []symtable.Row{
		{
			"type": "network-traffic", "dst_port": float64(3128),
			symtable.FirstObserved: "2020-06-30T19:40:00Z",
			symtable.LastObserved:  "2020-06-30T19:45:00Z",
		},
	})

	pred := compileWhere(t, "[network-traffic:dst_port = conns_a.dst_port]", store)
	explicit := &timefmt.Range{
		Start: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Stop:  time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, explicit, pred.Window(explicit))
}

func TestGeneratedPatternUnknownVariable(t *testing.T) {
	store := symtable.NewStore()
	stmts, err := parser.Parse("x = get network-traffic from file:///b.json where [network-traffic:dst_port = ghost.dst_port]")
	require.NoError(t, err)
	_, err = Compile(stmts[0].(*ast.Get).Where, store)
	var uerr *symtable.UnknownVariableError
	require.ErrorAs(t, err, &uerr)
}

func TestGeneratedPatternRejectsOrdering(t *testing.T) {
	store := symtable.NewStore()
	store.Create("conns_a", "network-traffic", nil)
	stmts, err := parser.Parse("x = get network-traffic from file:///b.json where [network-traffic:dst_port < conns_a.dst_port]")
	require.NoError(t, err)
	_, err = Compile(stmts[0].(*ast.Get).Where, store)
	var perr *PatternError
	require.ErrorAs(t, err, &perr)
}

func TestNilPredicateWindow(t *testing.T) {
	var pred *Predicate
	assert.Nil(t, pred.Window(nil))
}
