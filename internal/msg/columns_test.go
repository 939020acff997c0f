package msg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColumns(t *testing.T) {
	require.Equal(t, []string{"id", "message"}, ParseColumns(" id , message "))
	require.Equal(t, []string{"id"}, ParseColumns("id,,"))
	require.Empty(t, ParseColumns("  "))
}

func TestFieldRoundTrip(t *testing.T) {
	var m Message
	for _, col := range DefaultColumns {
		m.SetField(col, "v-"+col)
	}
	for _, col := range DefaultColumns {
		require.Equal(t, "v-"+col, m.Field(col), "column %s", col)
	}

	m.SetField("unknown_column", "x")
	require.Equal(t, "", m.Field("unknown_column"))
}
