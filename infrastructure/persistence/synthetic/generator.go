// Package synthetic produces a generated telemetry series with the same
// shape the site gateway writes, so the dashboard can run without a store.
package synthetic

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/domain/energy"
)

// Interval is the spacing between generated records.
const Interval = time.Minute

// Generator implements ports.EnergyRepository over a clock. Every record
// is a pure function of its minute, so repeated reads agree.
type Generator struct {
	partitionKey string
	maxItems     int
	now          func() time.Time
	logger       *zap.Logger
}

var (
	_ ports.EnergyRepository = (*Generator)(nil)
	_ ports.RawItemReader    = (*Generator)(nil)
)

// Option configures a Generator
type Option func(*Generator)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMaxItems bounds range reads the same way the store does
func WithMaxItems(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxItems = n
		}
	}
}

// NewGenerator creates a new Generator
func NewGenerator(partitionKey string, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		partitionKey: partitionKey,
		maxItems:     20000,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Latest returns the record for the current minute
func (g *Generator) Latest(ctx context.Context) (*energy.Record, error) {
	rec := g.recordAt(g.head())
	return &rec, nil
}

// LastN returns n consecutive minutes ending now, oldest first
func (g *Generator) LastN(ctx context.Context, n int) ([]energy.Record, error) {
	n = clampCount(n)
	head := g.head()
	records := make([]energy.Record, 0, n)
	for i := n - 1; i >= 0; i-- {
		records = append(records, g.recordAt(head-int64(i)*Interval.Milliseconds()))
	}
	return records, nil
}

// ByDateRange walks the day range newest first, never past the current
// minute. The cursor is the last emitted timestamp.
func (g *Generator) ByDateRange(ctx context.Context, days energy.DayRange, limit int, cursor string) (energy.Page, error) {
	limit = clampCount(limit)
	start, end := days.Bounds()

	from := minInt64(alignDown(end), g.head())
	if cursor != "" {
		after, err := decodeCursor(cursor)
		if err != nil {
			return energy.Page{}, err
		}
		from = minInt64(from, after-Interval.Milliseconds())
	}

	var page energy.Page
	ts := from
	for ; ts >= start && len(page.Items) < limit; ts -= Interval.Milliseconds() {
		page.Items = append(page.Items, g.recordAt(ts))
	}
	if ts >= start && len(page.Items) > 0 {
		page.LastKey = encodeCursor(page.Items[len(page.Items)-1].ResolvedTimestamp())
	}
	if page.Items == nil {
		page.Items = []energy.Record{}
	}
	return page, nil
}

// ByTimestampRange returns every generated minute in the bounds, oldest
// first, up to the item cap. The cursor is the last emitted timestamp.
func (g *Generator) ByTimestampRange(ctx context.Context, startMs, endMs int64, cursor string) (energy.Page, error) {
	page := energy.Page{Items: []energy.Record{}}
	endMs = minInt64(endMs, g.head())

	ts := alignUp(startMs)
	if cursor != "" {
		after, err := decodeCursor(cursor)
		if err != nil {
			return energy.Page{}, err
		}
		if next := after + Interval.Milliseconds(); next > ts {
			ts = next
		}
	}
	for ; ts <= endMs; ts += Interval.Milliseconds() {
		if len(page.Items) >= g.maxItems {
			page.LastKey = encodeCursor(page.Items[len(page.Items)-1].ResolvedTimestamp())
			g.logger.Debug("Synthetic range capped", zap.Int("items", len(page.Items)))
			break
		}
		page.Items = append(page.Items, g.recordAt(ts))
	}
	return page, nil
}

// RawLatest returns the newest generated items in store form
func (g *Generator) RawLatest(ctx context.Context, limit int) ([]map[string]any, error) {
	limit = clampCount(limit)
	head := g.head()
	raw := make([]map[string]any, 0, limit)
	for i := 0; i < limit; i++ {
		raw = append(raw, g.item(head-int64(i)*Interval.Milliseconds()))
	}
	return raw, nil
}

func (g *Generator) head() int64 {
	return alignDown(g.now().UnixMilli())
}

func (g *Generator) recordAt(ts int64) energy.Record {
	return energy.NewRecord(g.item(ts), g.partitionKey)
}

// item builds a store item for minute ts. Solar follows a daylight arc,
// load a daily double hump, and meters accumulate from the epoch.
func (g *Generator) item(ts int64) map[string]any {
	t := time.UnixMilli(ts).UTC()
	hour := float64(t.Hour()) + float64(t.Minute())/60

	daylight := math.Max(0, math.Sin((hour-6)/12*math.Pi))
	load := 40 + 12*math.Sin((hour-8)/24*2*math.Pi) + 6*math.Sin(hour/6*math.Pi)

	minutes := float64(ts / Interval.Milliseconds())
	running := int(minutes)%30 < 20

	payload := map[string]any{
		energy.KeyTime:              energy.FormatTime(ts),
		energy.KeyTimestamp:         ts,
		energy.KeyBatteryVoltage:    round(51.2+1.6*daylight, 2),
		energy.KeyTodaySolarKwh:     round(12*(1-math.Cos(daylight*math.Pi/2)), 2),
		energy.KeyMaxDemand24h:      round(load+8, 2),
		energy.KeyCO2EnergyMeter:    round(minutes*0.011, 2),
		energy.KeyFrascoldMeter:     round(minutes*0.007, 2),
		energy.KeyNewIQFEnergyMeter: round(minutes*0.015, 2),
		energy.KeyNH3Unit1:          flag(running),
		energy.KeyNH3Unit2:          flag(!running),
		energy.NewIQFRunningKeys[0]: flag(running),
		energy.OldIQFRunningKeys[0]: flag(int(minutes)%45 < 15),
		energy.KeyLoad: map[string]any{
			energy.KeyKw:  round(load, 3),
			energy.KeyKVA: round(load*1.08, 3),
			energy.KeyKWH: round(minutes*load/60/1000, 3),
		},
	}

	for i, group := range energy.SolarChannelGroups {
		voltage := map[string]any{}
		current := map[string]any{}
		for c := 1; c <= energy.ChannelCount; c++ {
			key := fmt.Sprintf("mppt%d", c)
			voltage[key] = round(300+20*daylight+float64(i), 1)
			// tenths of an amp
			current[key] = round(25*daylight*(1-0.05*float64(c)), 1)
		}
		payload[group] = map[string]any{
			energy.KeyPVVoltage: voltage,
			energy.KeyPVCurrent: current,
		}
	}
	solarKw := energy.ComputeSolarKw(energy.Payload(payload))
	payload[energy.KeySolarKw] = round(solarKw, 3)
	payload[energy.KeyGridIn] = map[string]any{
		energy.KeyKw: round(math.Max(0, load-solarKw), 3),
	}

	return map[string]any{
		energy.AttrPartitionKey: g.partitionKey,
		energy.AttrTimestamp:    strconv.FormatInt(ts, 10),
		"payload":               payload,
	}
}

func flag(on bool) int {
	if on {
		return 1
	}
	return 0
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func alignDown(ms int64) int64 {
	step := Interval.Milliseconds()
	return ms - ((ms%step)+step)%step
}

func alignUp(ms int64) int64 {
	down := alignDown(ms)
	if down < ms {
		return down + Interval.Milliseconds()
	}
	return down
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > ports.MaxPoints {
		return ports.MaxPoints
	}
	return n
}

func encodeCursor(ts int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(ts, 10)))
}

func decodeCursor(cursor string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrInvalidCursor, err)
	}
	ts, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrInvalidCursor, err)
	}
	return ts, nil
}
