package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableRender(t *testing.T) {
	t.Parallel()

	table := NewTable("NAME", "NETWORK", "ADDRESS")
	table.AddRow("main", "stokenet", "account_tdx_2_abc")
	table.AddRow("cold", "mainnet", "account_rdx_def")

	got := table.String()
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	assert.Len(t, lines, 4)

	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "NETWORK")
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "main")
	assert.Contains(t, lines[3], "cold")

	// Columns align: NETWORK starts at the same offset in every row.
	offset := strings.Index(lines[0], "NETWORK")
	assert.Equal(t, offset, strings.Index(lines[2], "stokenet"))
	assert.Equal(t, offset, strings.Index(lines[3], "mainnet"))
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewTable().String())
}

func TestTableShortRow(t *testing.T) {
	t.Parallel()

	table := NewTable("A", "B")
	table.AddRow("only")

	got := table.String()
	assert.Contains(t, got, "only")
	// No trailing padding after the missing cell.
	for _, line := range strings.Split(got, "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}
