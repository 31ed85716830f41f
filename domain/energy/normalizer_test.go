package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategiesOrder(t *testing.T) {
	names := make([]string, 0)
	for _, s := range Strategies() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"dotted-payload-value", "payload"}, names)
}

func TestNormalizeLayoutsAgree(t *testing.T) {
	inner := func() map[string]any {
		return map[string]any{
			"time":             "2024-03-01T12:00:00Z",
			"co2_energy_meter": 12.5,
			"nh3_unit_1":       "3",
			"new_IQF_running":  "1",
			"load":             map[string]any{"Kw": 4.2, "KVA": 5.0},
			"data_1":           map[string]any{"pv_voltage": map[string]any{"mppt1": 300.0}},
			"ignored":          true,
		}
	}

	layouts := []struct {
		name     string
		raw      map[string]any
		strategy string
	}{
		{"dotted key with nested value", map[string]any{"payload.value": map[string]any{"value": inner()}}, "dotted-payload-value"},
		{"payload with nested value", map[string]any{"payload": map[string]any{"value": inner()}}, "payload"},
		{"payload directly", map[string]any{"payload": inner()}, "payload"},
		{"dotted key directly", map[string]any{"payload.value": inner()}, "dotted-payload-value"},
	}

	want := Normalize(map[string]any{"payload": inner()})
	require.False(t, want.IsEmpty())

	for _, tt := range layouts {
		t.Run("Should normalize "+tt.name+" to the same payload", func(t *testing.T) {
			name, got := NormalizeStrategy(tt.raw)
			assert.Equal(t, tt.strategy, name)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("Should unwrap payload.value", func(t *testing.T) {
		raw := map[string]any{
			"payload": map[string]any{
				"value": map[string]any{"co2_energy_meter": 12.5},
			},
		}
		name, p := NormalizeStrategy(raw)
		assert.Equal(t, "payload", name)
		v, ok := p.Number(KeyCO2EnergyMeter)
		require.True(t, ok)
		assert.Equal(t, 12.5, v)
	})

	t.Run("Should use payload object itself when value is not an object", func(t *testing.T) {
		raw := map[string]any{
			"payload": map[string]any{"nh3_unit_1": 3.0, "value": "n/a"},
		}
		p := Normalize(raw)
		v, ok := p.Number(KeyNH3Unit1)
		require.True(t, ok)
		assert.Equal(t, 3.0, v)
		assert.False(t, p.Has("value"))
	})

	t.Run("Should prefer the dotted key over payload", func(t *testing.T) {
		raw := map[string]any{
			"payload.value": map[string]any{"solar_kw": 4.0},
			"payload":       map[string]any{"solar_kw": 9.0},
		}
		name, p := NormalizeStrategy(raw)
		assert.Equal(t, "dotted-payload-value", name)
		v, _ := p.Number(KeySolarKw)
		assert.Equal(t, 4.0, v)
	})

	t.Run("Should unwrap value under the dotted key", func(t *testing.T) {
		raw := map[string]any{
			"payload.value": map[string]any{
				"value": map[string]any{"battery_voltage": 52.1},
			},
		}
		v, ok := Normalize(raw).Number(KeyBatteryVoltage)
		require.True(t, ok)
		assert.Equal(t, 52.1, v)
	})

	t.Run("Should return an empty payload for unknown layouts", func(t *testing.T) {
		for _, raw := range []map[string]any{
			nil,
			{},
			{"payload": "not an object"},
			{"data": map[string]any{"solar_kw": 1.0}},
		} {
			name, p := NormalizeStrategy(raw)
			assert.Empty(t, name)
			assert.NotNil(t, p)
			assert.True(t, p.IsEmpty())
		}
	})

	t.Run("Should drop unrecognized fields and keep nested shapes", func(t *testing.T) {
		raw := map[string]any{
			"payload": map[string]any{
				"garbage": 1,
				"load":    map[string]any{"Kw": "12.5", "KWH": 100.0, "junk": true},
				"data_1": map[string]any{
					"pv_voltage": map[string]any{"mppt1": 300.0, "mppt9": 1.0},
				},
				"time": "2024-01-01T00:00:00Z",
			},
		}
		p := Normalize(raw)
		assert.False(t, p.Has("garbage"))
		load := p.Object(KeyLoad)
		require.NotNil(t, load)
		kw, ok := load.Number(KeyKw)
		require.True(t, ok)
		assert.Equal(t, 12.5, kw)
		assert.False(t, load.Has("junk"))
		pv := p.Object("data_1").Object(KeyPVVoltage)
		assert.True(t, pv.Has("mppt1"))
		assert.False(t, pv.Has("mppt9"))
		s, _ := p.String(KeyTime)
		assert.Equal(t, "2024-01-01T00:00:00Z", s)
	})

	t.Run("Should reject values of the wrong shape", func(t *testing.T) {
		raw := map[string]any{
			"payload": map[string]any{
				"solar_kw": "not a number",
				"load":     12.0,
				"time":     1234,
			},
		}
		p := Normalize(raw)
		assert.True(t, p.IsEmpty())
	})
}
