package energy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"energy-dashboard/pkg/utils"
)

// Store attribute names shared by every item.
const (
	AttrPartitionKey = "PK"
	AttrSortKey      = "SK"
	AttrTimestamp    = "timestamp"
)

// Record is a normalized store item.
type Record struct {
	PK        string  `json:"PK"`
	SK        string  `json:"SK"`
	Payload   Payload `json:"payload"`
	Timestamp *int64  `json:"timestamp,omitempty"`
}

// NewRecord normalizes a decoded store item. The sort key is taken from the
// timestamp attribute, then SK; defaultPK is used when the item carries no PK.
func NewRecord(raw map[string]any, defaultPK string) Record {
	rec := Record{
		PK:      defaultPK,
		Payload: Normalize(raw),
	}
	if pk, ok := raw[AttrPartitionKey].(string); ok && pk != "" {
		rec.PK = pk
	}

	if v, ok := raw[AttrTimestamp]; ok && v != nil {
		rec.SK, _ = toText(v)
	} else if v, ok := raw[AttrSortKey]; ok && v != nil {
		rec.SK, _ = toText(v)
	}

	if ts, ok := parseMillis(raw[AttrTimestamp]); ok {
		rec.Timestamp = &ts
	} else if ts, ok := parseMillis(rec.SK); ok {
		rec.Timestamp = &ts
	}
	return rec
}

// ResolvedTimestamp is the record time in epoch ms: the payload's own
// timestamp, then the item timestamp, then the sort key, then 0.
func (r Record) ResolvedTimestamp() int64 {
	if v, ok := r.Payload.Number(KeyTimestamp); ok {
		return int64(v)
	}
	if r.Timestamp != nil {
		return *r.Timestamp
	}
	if ts, ok := parseMillis(r.SK); ok {
		return ts
	}
	return 0
}

func parseMillis(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		// leading integer digits, so "1700000000000.5" still resolves
		if i := strings.IndexFunc(s, func(r rune) bool { return r != '-' && (r < '0' || r > '9') }); i > 0 {
			s = s[:i]
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	f, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// FormatTime renders an epoch ms value as an ISO-8601 UTC string.
func FormatTime(ms int64) string {
	return utils.FormatISO(time.UnixMilli(ms))
}

// Page is one slice of a range query plus the opaque cursor for the next.
type Page struct {
	Items   []Record `json:"items"`
	LastKey string   `json:"lastKey,omitempty"`
}

// DateLayout is the accepted calendar-day format.
const DateLayout = "2006-01-02"

// DayRange is an inclusive range of UTC calendar days.
type DayRange struct {
	Start time.Time
	End   time.Time
}

// ParseDayRange parses two YYYY-MM-DD days. start may equal end.
func ParseDayRange(start, end string) (DayRange, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return DayRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return DayRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if s.After(e) {
		return DayRange{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return DayRange{Start: s, End: e}, nil
}

// Bounds returns the first and last millisecond covered by the range.
func (r DayRange) Bounds() (int64, int64) {
	endOfDay := r.End.Add(24*time.Hour - time.Millisecond)
	return r.Start.UnixMilli(), endOfDay.UnixMilli()
}
