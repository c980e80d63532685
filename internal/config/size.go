package config

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// sizePattern is the accepted grammar: a decimal magnitude immediately
// followed by one of b, kb, mb, gb, tb (any case).
var sizePattern = regexp.MustCompile(`^(\d+)(\.\d+)?([kmgt]?b)$`)

// sizeShifts maps a unit to its power of 1024, as a bit shift.
var sizeShifts = map[string]uint{
	"b":  0,
	"kb": 10,
	"mb": 20,
	"gb": 30,
	"tb": 40,
}

// ParseSize converts a human size such as "30Gb" into bytes using binary
// multiples (1Kb = 1024b).  Whole magnitudes are exact over the full int64
// range.  Fractional magnitudes are scaled in floating point and truncated
// toward zero.
func ParseSize(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, &MalformedValueError{Value: s, Reason: "expected <number><b|kb|mb|gb|tb>"}
	}
	whole, frac, unit := m[1], m[2], m[3]
	shift := sizeShifts[unit]

	if frac == "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n > math.MaxInt64>>shift {
			return 0, &MalformedValueError{Value: s, Reason: "size overflows int64"}
		}
		return n << shift, nil
	}

	magnitude, err := strconv.ParseFloat(whole+frac, 64)
	if err != nil {
		return 0, &MalformedValueError{Value: s, Reason: "magnitude is not a number"}
	}
	if math.Ldexp(magnitude, int(shift)) >= math.MaxInt64 {
		return 0, &MalformedValueError{Value: s, Reason: "size overflows int64"}
	}

	n, err := units.RAMInBytes(whole + frac + unit)
	if err != nil {
		return 0, &MalformedValueError{Value: s, Reason: err.Error()}
	}
	return n, nil
}
