package energy

// RunState is the coarse equipment status shown on the dashboard.
type RunState string

const (
	Running RunState = "Running"
	Stopped RunState = "Stopped"
)

// solarRatedKw is the nominal array rating used for the efficiency KPI.
const solarRatedKw = 15.0

// ComputeSolarKw sums the output of every MPPT group present in p.
//
// Per group: voltage is pv_voltage.mppt1, current is the sum of
// pv_current.mppt1..6 divided by 10. The group products are summed and
// scaled from W to kW. Missing readings count as 0.
func ComputeSolarKw(p Payload) float64 {
	var total float64
	for _, g := range SolarChannelGroups {
		total += groupWatts(p.Object(g))
	}
	return total / 1000
}

func groupWatts(group Payload) float64 {
	if group == nil {
		return 0
	}
	voltage, _ := group.Object(KeyPVVoltage).Number(channelKey(1))

	var current float64
	pc := group.Object(KeyPVCurrent)
	for i := 1; i <= ChannelCount; i++ {
		c, _ := pc.Number(channelKey(i))
		current += c
	}
	return voltage * (current / 10)
}

// HasSolarChannels reports whether any MPPT group is present.
func HasSolarChannels(p Payload) bool {
	for _, g := range SolarChannelGroups {
		if p.Object(g) != nil {
			return true
		}
	}
	return false
}

// DeriveSolarKw prefers the value computed from MPPT channels and falls back
// to the reported solar_kw reading.
func DeriveSolarKw(p Payload) float64 {
	if HasSolarChannels(p) {
		return ComputeSolarKw(p)
	}
	v, _ := p.Number(KeySolarKw)
	return v
}

// ResolveRunState reads the first present candidate key. The flag is
// Running only when its text form is exactly "1".
func ResolveRunState(p Payload, candidateKeys ...string) RunState {
	for _, k := range candidateKeys {
		v, ok := p.Value(k)
		if !ok {
			continue
		}
		if s, ok := toText(v); ok && s == "1" {
			return Running
		}
		return Stopped
	}
	return Stopped
}

// ResolveScalar returns obj[primaryKey], then obj[fallbackKey], then 0.
func ResolveScalar(obj Payload, primaryKey, fallbackKey string) float64 {
	if v, ok := obj.Number(primaryKey); ok {
		return v
	}
	if v, ok := obj.Number(fallbackKey); ok {
		return v
	}
	return 0
}

// SolarEfficiency is the share of rated array output, capped at 100. It is
// only meaningful when MPPT group 1 reports and output is positive.
func SolarEfficiency(p Payload, solarKw float64) (float64, bool) {
	if solarKw <= 0 || p.Object(SolarChannelGroups[0]) == nil {
		return 0, false
	}
	eff := solarKw / solarRatedKw * 100
	if eff > 100 {
		eff = 100
	}
	return eff, true
}
