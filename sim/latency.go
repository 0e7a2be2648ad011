package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Latency is the propagation delay of one side of a link, in picoseconds.
type Latency uint64

// Defines the unit of latency.
const (
	PS Latency = 1
	NS Latency = 1000 * PS
	US Latency = 1000 * NS
	MS Latency = 1000 * US
	S  Latency = 1000 * MS
)

var latencyUnits = []struct {
	suffix string
	unit   Latency
}{
	{"ps", PS},
	{"ns", NS},
	{"us", US},
	{"ms", MS},
	{"s", S},
}

// ParseLatency parses strings like "50ps", "2ns" or "1 us".
func ParseLatency(s string) (Latency, error) {
	str := strings.TrimSpace(s)

	for _, u := range latencyUnits {
		if !strings.HasSuffix(str, u.suffix) {
			continue
		}

		numStr := strings.TrimSpace(strings.TrimSuffix(str, u.suffix))

		value, err := strconv.ParseFloat(numStr, 64)
		if err != nil || math.IsNaN(value) || value < 0 {
			return 0, fmt.Errorf("invalid latency %q", s)
		}

		ps := value*float64(u.unit) + 0.5
		if ps >= math.MaxUint64 {
			return 0, fmt.Errorf("latency %q is out of range", s)
		}

		return Latency(ps), nil
	}

	return 0, fmt.Errorf("invalid latency %q: missing unit", s)
}

// String formats the latency with the largest unit that divides it.
func (l Latency) String() string {
	if l == 0 {
		return "0ps"
	}

	for i := len(latencyUnits) - 1; i >= 0; i-- {
		u := latencyUnits[i]
		if l%u.unit == 0 {
			return strconv.FormatUint(uint64(l/u.unit), 10) + u.suffix
		}
	}

	return strconv.FormatUint(uint64(l), 10) + "ps"
}

// UnmarshalText lets latencies be written as strings in parameter files.
func (l *Latency) UnmarshalText(text []byte) error {
	parsed, err := ParseLatency(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// MarshalText writes the latency in its string form.
func (l Latency) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
