package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntflow-lang/huntflow/symtable"
)

func TestDisplayStringColumnOrder(t *testing.T) {
	d := &Display{
		Variable: "conns",
		Columns:  []string{"src_port", "dst_port"},
		Rows: []symtable.Row{
			{"dst_port": float64(22), "src_port": float64(52394), "extra": "hidden"},
			{"dst_port": float64(443), "src_port": float64(40112)},
		},
	}

	out := d.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	header := lines[0]
	assert.Less(t, strings.Index(header, "src_port"), strings.Index(header, "dst_port"))
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, lines[1], "52394")
	assert.Contains(t, lines[1], "22")
}

func TestDisplayStringMissingValues(t *testing.T) {
	d := &Display{
		Columns: []string{"value", "belongs_to"},
		Rows:    []symtable.Row{{"value": "10.0.0.91"}},
	}
	out := d.String()
	assert.Contains(t, out, "10.0.0.91")
}

func TestFormatValueWholeNumbers(t *testing.T) {
	assert.Equal(t, "3128", formatValue(float64(3128)))
	assert.Equal(t, "0.5", formatValue(0.5))
	assert.Equal(t, "henry", formatValue("henry"))
}

func TestErrorMessage(t *testing.T) {
	e := Errorf("data source %s not found", "file:///nope.json")
	assert.True(t, strings.HasPrefix(e.String(), "[ERROR] "))
	assert.Contains(t, e.String(), "nope.json")

	var r Result = e
	_, isError := r.(ErrorMessage)
	assert.True(t, isError)
}
