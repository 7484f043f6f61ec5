package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClockSetAndAdvance(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c := Fake(start)
	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	later := time.Date(2026, 3, 15, 0, 15, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestRealClockUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := Real(loc).Now()
	assert.Equal(t, loc, now.Location())

	assert.Equal(t, time.UTC, Real(nil).Now().Location())
}

func TestRealInZone(t *testing.T) {
	c, err := RealInZone("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", c.Now().Location().String())

	_, err = RealInZone("Not/AZone")
	assert.Error(t, err)
}
