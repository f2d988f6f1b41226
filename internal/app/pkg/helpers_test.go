package pkg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCodeShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := RandomCode("STP", 24)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "STP-"))
		require.Len(t, code, len("STP-")+24)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %s", code)
		seen[code] = struct{}{}
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "STP-ABC", NormalizeCode("  stp-abc \n"))
}

func TestPeriodKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	ts := time.Date(2026, 10, 31, 22, 30, 0, 0, loc)
	assert.Equal(t, "2026-11", PeriodKey(ts))
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	assert.False(t, IsExpired(nil, now))
	assert.True(t, IsExpired(&past, now))
	assert.True(t, IsExpired(&now, now))
	assert.False(t, IsExpired(&future, now))
}
