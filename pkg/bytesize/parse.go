// Package bytesize parses and formats human-friendly byte sizes used in
// configuration, such as the webhook body limit.
package bytesize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Binary multiples. KB and KiB are both read as 1024 bytes.
const (
	KiB int64 = 1 << (10 * (iota + 1))
	MiB
	GiB
)

// suffixes is ordered longest first so "MB" wins over "B".
var suffixes = []struct {
	name string
	mult int64
}{
	{"KIB", KiB}, {"MIB", MiB}, {"GIB", GiB},
	{"KB", KiB}, {"MB", MiB}, {"GB", GiB},
	{"K", KiB}, {"M", MiB}, {"G", GiB},
	{"B", 1},
}

// Parse converts s into a number of bytes. A bare integer is a byte count;
// otherwise the value carries one of B, K, KB, KiB, M, MB, MiB, G, GB, GiB
// (case-insensitive). Fractions are allowed with a unit ("1.5MB").
func Parse(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid size %q: negative", s)
		}
		return n, nil
	}

	for _, sfx := range suffixes {
		num, ok := strings.CutSuffix(s, sfx.name)
		if !ok {
			continue
		}
		num = strings.TrimSpace(num)
		if num == "" {
			return 0, fmt.Errorf("invalid size %q: missing value", s)
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid size %q", s)
		}
		if v < 0 {
			return 0, fmt.Errorf("invalid size %q: negative", s)
		}
		total := v * float64(sfx.mult)
		if total >= math.MaxInt64 {
			return 0, fmt.Errorf("invalid size %q: too large", s)
		}
		return int64(total), nil
	}

	return 0, fmt.Errorf("invalid size %q: unknown unit", s)
}

// Format renders n with the largest binary unit that divides it evenly.
func Format(n int64) string {
	switch {
	case n >= GiB && n%GiB == 0:
		return strconv.FormatInt(n/GiB, 10) + "GiB"
	case n >= MiB && n%MiB == 0:
		return strconv.FormatInt(n/MiB, 10) + "MiB"
	case n >= KiB && n%KiB == 0:
		return strconv.FormatInt(n/KiB, 10) + "KiB"
	default:
		return strconv.FormatInt(n, 10) + "B"
	}
}
