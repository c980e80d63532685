package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize_Units(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"7b", 7},
		{"7kb", 7 * 1024},
		{"7mb", 7 * 1024 * 1024},
		{"7gb", 7 * 1024 * 1024 * 1024},
		{"7tb", 7 * 1024 * 1024 * 1024 * 1024},
		{"30Gb", 30 * 1024 * 1024 * 1024},
		{"30GB", 30 * 1024 * 1024 * 1024},
		{"512Mb", 512 * 1024 * 1024},
		{"1.5Gb", 3 * 512 * 1024 * 1024},
		{"0b", 0},
		{"9007199254740993b", 9007199254740993},
		{"9223372036854775000b", 9223372036854775000},
		{"9223372036854775807b", 9223372036854775807},
		{"8388607tb", 8388607 << 40},
		{"0.5kb", 512},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSize_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"30",
		"30Xb",
		"30g",
		"30GiB",
		"30pb",
		"Gb",
		"-1Gb",
		"30 Gb",
		"1.2.3Gb",
		"abcGb",
		"99999999999tb",
		"9223372036854775808b",
		"8388608tb",
		"8388608.5tb",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			var me *MalformedValueError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, in, me.Value)
		})
	}
}
