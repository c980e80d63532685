package config

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	labelLength = 5
	// labelSpace is 36^labelLength.
	labelSpace = 36 * 36 * 36 * 36 * 36
)

// GenerateUniqueLabel returns a random 5 character base-36 label used to
// tag a runner registration and its VM.  Uniqueness is probabilistic.
func GenerateUniqueLabel() string {
	id := uuid.New()
	// Bytes 0-5 of a v4 UUID carry no version or variant bits.
	var n uint64
	for _, b := range id[:6] {
		n = n<<8 | uint64(b)
	}
	s := strconv.FormatUint(n%labelSpace, 36)
	return strings.Repeat("0", labelLength-len(s)) + s
}
