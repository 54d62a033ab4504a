package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFuelLogs(t *testing.T) {
	blob, err := EncodeFuelLogs([]FuelLog{{Date: "2024-01-01", Gallons: 10}, {Date: "2024-01-08", Gallons: 12.5}})
	require.NoError(t, err)
	assert.Equal(t, `[{"date":"2024-01-01","gallons":10},{"date":"2024-01-08","gallons":12.5}]`, blob)

	blob, err = EncodeFuelLogs(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", blob)
}

func TestDecodeFuelLogs(t *testing.T) {
	t.Run("empty blob", func(t *testing.T) {
		logs, err := DecodeFuelLogs("  ")
		assert.NoError(t, err)
		assert.Empty(t, logs)
		assert.NotNil(t, logs)
	})

	t.Run("keeps order", func(t *testing.T) {
		logs, err := DecodeFuelLogs(`[{"date":"2024-02-01","gallons":3},{"date":"2024-01-01","gallons":7}]`)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "2024-02-01", logs[0].Date)
		assert.Equal(t, 7.0, logs[1].Gallons)
	})

	t.Run("json null", func(t *testing.T) {
		logs, err := DecodeFuelLogs("null")
		assert.NoError(t, err)
		assert.NotNil(t, logs)
		assert.Empty(t, logs)
	})

	t.Run("malformed blob", func(t *testing.T) {
		logs, err := DecodeFuelLogs("{not json")
		assert.Error(t, err)
		assert.NotNil(t, logs)
		assert.Empty(t, logs)
	})
}
