package config

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var labelRe = regexp.MustCompile(`^[a-z0-9]{5}$`)

func TestGenerateUniqueLabel_Format(t *testing.T) {
	for range 1000 {
		l := GenerateUniqueLabel()
		assert.Regexp(t, labelRe, l)
	}
}

func TestGenerateUniqueLabel_Differs(t *testing.T) {
	a := GenerateUniqueLabel()
	b := GenerateUniqueLabel()
	assert.NotEqual(t, a, b)
}

func TestGenerateUniqueLabel_UsesWholeAlphabet(t *testing.T) {
	seen := map[rune]bool{}
	for range 2000 {
		for _, r := range GenerateUniqueLabel() {
			seen[r] = true
		}
	}
	assert.Len(t, seen, 36)
}
