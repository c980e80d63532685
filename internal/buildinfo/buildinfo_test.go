package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })

	Version, Commit, BuildTime = "v1.2.0", "abc1234", "2026-02-19T12:34:56Z"
	assert.Equal(t, "v1.2.0 (commit abc1234, built 2026-02-19T12:34:56Z)", String())
}
