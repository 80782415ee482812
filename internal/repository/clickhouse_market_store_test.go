package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The history tables are created by Init and written by column-name inserts.
// If the DDL ever defines a column the statements do not use (or vice versa),
// every write fails at runtime with an unknown-column error, so the column
// sets must match exactly.

func ddlColumns(t *testing.T, ddl string) []string {
	t.Helper()
	open := strings.Index(ddl, "(")
	end := strings.LastIndex(ddl, ") ENGINE")
	require.Greater(t, end, open, "DDL must carry a column definition list: %s", ddl)

	var cols []string
	for _, def := range strings.Split(ddl[open+1:end], ",") {
		fields := strings.Fields(def)
		require.Len(t, fields, 2, "column definition %q", def)
		cols = append(cols, fields[0])
	}
	return cols
}

func splitColumns(list string) []string {
	cols := strings.Split(list, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}

func TestMarketSchemaMatchesStatementColumns(t *testing.T) {
	store := &ClickHouseMarketStore{barsTable: "db.bars", eventTable: "db.news_events"}
	schema := store.schema()
	require.Len(t, schema, 2)

	require.Equal(t, splitColumns(barColumns), ddlColumns(t, schema[0]))
	require.Equal(t, splitColumns(eventColumns), ddlColumns(t, schema[1]))
}

func TestTriggerSchemaMatchesStatementColumns(t *testing.T) {
	hist := &ClickHouseTriggerHistory{table: "db.alert_triggers"}
	require.Equal(t, splitColumns(triggerColumns), ddlColumns(t, hist.schema()))
}
