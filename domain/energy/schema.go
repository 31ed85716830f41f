package energy

import "fmt"

type fieldKind int

const (
	kindNumber fieldKind = iota
	kindString
	kindFlag
	kindObject
)

type field struct {
	kind   fieldKind
	nested schema
}

// schema lists the metric names a block may carry. Anything else is dropped.
type schema map[string]field

// Metric names recognized in the top-level payload.
const (
	KeyTime              = "time"
	KeyTimestamp         = "timestamp"
	KeyCO2EnergyMeter    = "co2_energy_meter"
	KeyFrascoldMeter     = "frascold_energy_meter"
	KeyNewIQFEnergyMeter = "new_IQF_energy_meter"
	KeyNH3Unit1          = "nh3_unit_1"
	KeyNH3Unit2          = "nh3_unit_2"
	KeySolarKw           = "solar_kw"
	KeyBatteryVoltage    = "battery_voltage"
	KeyTodaySolarKwh     = "today_solar_kwh"
	KeyMaxDemand24h      = "max_demand_24h"
	KeyLoad              = "load"
	KeyGridIn            = "in"
	KeyPVVoltage         = "pv_voltage"
	KeyPVCurrent         = "pv_current"
)

// Power block fields.
const (
	KeyKw  = "Kw"
	KeyKVA = "KVA"
	KeyKWH = "KWH"
)

// Run-state flag spellings, in lookup priority order.
var (
	NewIQFRunningKeys = []string{"new_IQF_running", "new_iqf_running", "NEW_IQF_RUNNING"}
	OldIQFRunningKeys = []string{"old_IQF_running", "old_iqf_running", "OLD_IQF_RUNNING"}
)

// SolarChannelGroups are the MPPT controller groups summed into solar output.
var SolarChannelGroups = []string{"data_1", "data_2", "data_3"}

// ChannelCount is the number of current sub-readings per MPPT group.
const ChannelCount = 6

func channelKey(i int) string {
	return fmt.Sprintf("mppt%d", i)
}

var (
	channelSchema = func() schema {
		s := schema{}
		for i := 1; i <= ChannelCount; i++ {
			s[channelKey(i)] = field{kind: kindNumber}
		}
		return s
	}()

	powerBlockSchema = schema{
		KeyKw:   {kind: kindNumber},
		KeyKVA:  {kind: kindNumber},
		KeyKWH:  {kind: kindNumber},
		"Kvar":  {kind: kindNumber},
		"Vavg":  {kind: kindNumber},
		"pfAvg": {kind: kindNumber},
		"Vr":    {kind: kindNumber},
		"Vy":    {kind: kindNumber},
		"Vb":    {kind: kindNumber},
		"Ir":    {kind: kindNumber},
		"Iy":    {kind: kindNumber},
		"Ib":    {kind: kindNumber},
		"Il1":   {kind: kindNumber},
		"Il2":   {kind: kindNumber},
		"Il3":   {kind: kindNumber},
	}

	mpptSchema = schema{
		KeyPVVoltage: {kind: kindObject, nested: channelSchema},
		KeyPVCurrent: {kind: kindObject, nested: channelSchema},
	}

	payloadSchema = func() schema {
		s := schema{
			KeyTime:              {kind: kindString},
			KeyTimestamp:         {kind: kindNumber},
			KeyCO2EnergyMeter:    {kind: kindNumber},
			KeyFrascoldMeter:     {kind: kindNumber},
			KeyNewIQFEnergyMeter: {kind: kindNumber},
			KeyNH3Unit1:          {kind: kindNumber},
			KeyNH3Unit2:          {kind: kindNumber},
			KeySolarKw:           {kind: kindNumber},
			KeyBatteryVoltage:    {kind: kindNumber},
			KeyTodaySolarKwh:     {kind: kindNumber},
			KeyMaxDemand24h:      {kind: kindNumber},
			KeyLoad:              {kind: kindObject, nested: powerBlockSchema},
			KeyGridIn:            {kind: kindObject, nested: powerBlockSchema},
		}
		for _, k := range NewIQFRunningKeys {
			s[k] = field{kind: kindFlag}
		}
		for _, k := range OldIQFRunningKeys {
			s[k] = field{kind: kindFlag}
		}
		for _, g := range SolarChannelGroups {
			s[g] = field{kind: kindObject, nested: mpptSchema}
		}
		return s
	}()
)

// project copies the recognized fields of src into a new Payload. Values of
// the wrong shape are dropped rather than reported.
func project(src map[string]any, s schema) Payload {
	out := Payload{}
	for key, f := range s {
		v, ok := src[key]
		if !ok || v == nil {
			continue
		}
		switch f.kind {
		case kindNumber:
			if n, ok := toNumber(v); ok {
				out[key] = n
			}
		case kindString:
			if str, ok := v.(string); ok {
				out[key] = str
			}
		case kindFlag:
			// flags keep their source encoding; "1" and 1 both mean running.
			// A present flag of any other shape is kept as text so it still
			// shadows the later spellings and reads as stopped.
			switch t := v.(type) {
			case string, bool:
				out[key] = t
			default:
				if n, ok := toNumber(v); ok {
					out[key] = n
				} else {
					out[key] = fmt.Sprint(v)
				}
			}
		case kindObject:
			if m, ok := asObject(v); ok {
				out[key] = project(m, f.nested)
			}
		}
	}
	return out
}
