package common

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// CountParam describes a bounded integer query parameter such as points or limit.
type CountParam struct {
	Name    string
	Default int
	Min     int
	Max     int
}

// Clamp forces n into [Min, Max].
func (p CountParam) Clamp(n int) int {
	if n < p.Min {
		return p.Min
	}
	if n > p.Max {
		return p.Max
	}
	return n
}

// Extract reads the parameter from the request. Missing values yield the
// default and out-of-range values are clamped. Decimals are truncated;
// anything else, NaN and infinities included, is an error.
func (p CountParam) Extract(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(p.Name))
	if raw == "" {
		return p.Default, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return p.Clamp(n), nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%s must be an integer", p.Name)
	}
	if math.IsNaN(f) || (math.IsInf(f, 0) && err == nil) {
		return 0, fmt.Errorf("%s must be an integer", p.Name)
	}
	switch {
	case f < float64(p.Min):
		return p.Min, nil
	case f > float64(p.Max):
		return p.Max, nil
	}
	return p.Clamp(int(f)), nil
}

