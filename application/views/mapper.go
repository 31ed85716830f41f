// Package views projects normalized records into the shapes the dashboard
// consumes. Nothing here is persisted; every view is recomputed per request.
package views

import (
	"energy-dashboard/domain/energy"
)

// TimeSeriesPoint is one chart sample.
type TimeSeriesPoint struct {
	SK             string          `json:"SK"`
	Time           string          `json:"time"`
	Timestamp      int64           `json:"timestamp"`
	LoadKw         float64         `json:"loadKw"`
	SolarKw        float64         `json:"solarKw"`
	GridKw         float64         `json:"gridKw"`
	BatteryVoltage *float64        `json:"batteryVoltage,omitempty"`
	SolarKwh       *float64        `json:"solarKwh,omitempty"`
	LoadKwh        *float64        `json:"loadKwh,omitempty"`
	CO2Energy      *float64        `json:"co2Energy,omitempty"`
	FrascoldEnergy *float64        `json:"frascoldEnergy,omitempty"`
	NewIQFEnergy   *float64        `json:"newIqfEnergy,omitempty"`
	NH3Unit1       *float64        `json:"nh3Unit1,omitempty"`
	NH3Unit2       *float64        `json:"nh3Unit2,omitempty"`
	NewIQFRunning  energy.RunState `json:"newIqfRunning"`
	OldIQFRunning  energy.RunState `json:"oldIqfRunning"`
}

// KpiSnapshot is the headline figures for the newest record.
type KpiSnapshot struct {
	Time            string          `json:"time,omitempty"`
	Timestamp       int64           `json:"timestamp"`
	SolarKw         float64         `json:"solarKw"`
	LoadKw          float64         `json:"loadKw"`
	GridKw          float64         `json:"gridKw"`
	BatteryVoltage  float64         `json:"batteryVoltage"`
	SolarEfficiency *float64        `json:"solarEfficiency,omitempty"`
	PeakLoad24h     *float64        `json:"peakLoad24h,omitempty"`
	CO2Energy       float64         `json:"co2Energy"`
	FrascoldEnergy  float64         `json:"frascoldEnergy"`
	NewIQFEnergy    float64         `json:"newIqfEnergy"`
	NH3Unit1        float64         `json:"nh3Unit1"`
	NH3Unit2        float64         `json:"nh3Unit2"`
	NewIQFRunning   energy.RunState `json:"newIqfRunning"`
	OldIQFRunning   energy.RunState `json:"oldIqfRunning"`
}

// ToDataPoints maps records one-to-one, keeping their order.
func ToDataPoints(records []energy.Record) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, toDataPoint(rec))
	}
	return points
}

func toDataPoint(rec energy.Record) TimeSeriesPoint {
	p := rec.Payload
	ts := rec.ResolvedTimestamp()
	load := p.Object(energy.KeyLoad)

	return TimeSeriesPoint{
		SK:             rec.SK,
		Time:           timeOf(p, ts),
		Timestamp:      ts,
		LoadKw:         energy.ResolveScalar(load, energy.KeyKw, energy.KeyKVA),
		SolarKw:        energy.DeriveSolarKw(p),
		GridKw:         energy.ResolveScalar(p.Object(energy.KeyGridIn), energy.KeyKw, energy.KeyKVA),
		BatteryVoltage: p.NumberPtr(energy.KeyBatteryVoltage),
		SolarKwh:       p.NumberPtr(energy.KeyTodaySolarKwh),
		LoadKwh:        load.NumberPtr(energy.KeyKWH),
		CO2Energy:      p.NumberPtr(energy.KeyCO2EnergyMeter),
		FrascoldEnergy: p.NumberPtr(energy.KeyFrascoldMeter),
		NewIQFEnergy:   p.NumberPtr(energy.KeyNewIQFEnergyMeter),
		NH3Unit1:       p.NumberPtr(energy.KeyNH3Unit1),
		NH3Unit2:       p.NumberPtr(energy.KeyNH3Unit2),
		NewIQFRunning:  energy.ResolveRunState(p, energy.NewIQFRunningKeys...),
		OldIQFRunning:  energy.ResolveRunState(p, energy.OldIQFRunningKeys...),
	}
}

// ToKpiSnapshot summarizes one record. A nil record or an empty payload
// gives the zero snapshot with both units Stopped, never nil.
func ToKpiSnapshot(rec *energy.Record) KpiSnapshot {
	if rec == nil || rec.Payload.IsEmpty() {
		return KpiSnapshot{
			NewIQFRunning: energy.Stopped,
			OldIQFRunning: energy.Stopped,
		}
	}

	p := rec.Payload
	ts := rec.ResolvedTimestamp()
	number := func(key string) float64 {
		v, _ := p.Number(key)
		return v
	}

	snap := KpiSnapshot{
		Time:           timeOf(p, ts),
		Timestamp:      ts,
		SolarKw:        energy.DeriveSolarKw(p),
		LoadKw:         energy.ResolveScalar(p.Object(energy.KeyLoad), energy.KeyKw, energy.KeyKVA),
		GridKw:         energy.ResolveScalar(p.Object(energy.KeyGridIn), energy.KeyKw, energy.KeyKVA),
		BatteryVoltage: number(energy.KeyBatteryVoltage),
		PeakLoad24h:    p.NumberPtr(energy.KeyMaxDemand24h),
		CO2Energy:      number(energy.KeyCO2EnergyMeter),
		FrascoldEnergy: number(energy.KeyFrascoldMeter),
		NewIQFEnergy:   number(energy.KeyNewIQFEnergyMeter),
		NH3Unit1:       number(energy.KeyNH3Unit1),
		NH3Unit2:       number(energy.KeyNH3Unit2),
		NewIQFRunning:  energy.ResolveRunState(p, energy.NewIQFRunningKeys...),
		OldIQFRunning:  energy.ResolveRunState(p, energy.OldIQFRunningKeys...),
	}
	if eff, ok := energy.SolarEfficiency(p, snap.SolarKw); ok {
		snap.SolarEfficiency = &eff
	}
	return snap
}

func timeOf(p energy.Payload, ts int64) string {
	if s, ok := p.String(energy.KeyTime); ok && s != "" {
		return s
	}
	return energy.FormatTime(ts)
}
