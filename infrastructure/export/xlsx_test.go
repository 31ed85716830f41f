package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"energy-dashboard/application/views"
	"energy-dashboard/domain/energy"
)

func float(v float64) *float64 { return &v }

func TestDataLogWorkbook(t *testing.T) {
	points := []views.TimeSeriesPoint{
		{
			Time:           "2024-03-01T00:00:00.000Z",
			CO2Energy:      float(12.5),
			FrascoldEnergy: float(3),
			NewIQFEnergy:   float(7.25),
			NH3Unit1:       float(1),
			NH3Unit2:       float(0),
			NewIQFRunning:  energy.Running,
			OldIQFRunning:  energy.Stopped,
		},
		{
			Time:          "2024-03-01T00:01:00.000Z",
			NewIQFRunning: energy.Stopped,
			OldIQFRunning: energy.Stopped,
		},
	}

	data, err := DataLogWorkbook(points)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	t.Run("Should use a single data log sheet", func(t *testing.T) {
		assert.Equal(t, []string{DataLogSheet}, f.GetSheetList())
	})

	rows, err := f.GetRows(DataLogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	t.Run("Should write the header row", func(t *testing.T) {
		assert.Equal(t, views.DataLogColumns, rows[0])
	})

	t.Run("Should write one row per point", func(t *testing.T) {
		assert.Equal(t, []string{
			"2024-03-01T00:00:00.000Z", "12.5", "3", "7.25", "1", "0", "Running", "Stopped",
		}, rows[1])
	})

	t.Run("Should leave missing readings empty", func(t *testing.T) {
		assert.Equal(t, "2024-03-01T00:01:00.000Z", rows[2][0])
		assert.Equal(t, "", rows[2][1])
		assert.Equal(t, "Stopped", rows[2][7])
	})
}

func TestDataLogWorkbookEmpty(t *testing.T) {
	data, err := DataLogWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DataLogSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDataLogFilename(t *testing.T) {
	day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "energy_data_log_2024-03-01.xlsx", DataLogFilename(day))
}
