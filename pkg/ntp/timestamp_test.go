package ntp

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestTimestampZeroValue(t *testing.T) {
	var ts Timestamp
	assert.True(t, ts.IsZero())
	assert.EqualValues(t, 0, ts.Seconds())
	assert.EqualValues(t, 0, ts.Fraction())
	assert.EqualValues(t, 0, ts.Value())
	assert.Equal(t, time.Duration(0), ts.Duration())
}

func TestTimestampFromValue(t *testing.T) {
	ts := NewTimestamp(0x0123456789ABCDEF)
	assert.EqualValues(t, 0x01234567, ts.Seconds())
	assert.EqualValues(t, 0x89ABCDEF, ts.Fraction())
	assert.EqualValues(t, 0x0123456789ABCDEF, ts.Value())
	assert.False(t, ts.IsZero())
}

func TestTimestampFromParts(t *testing.T) {
	ts := TimestampFromParts(0x01234567, 0x89ABCDEF)
	assert.EqualValues(t, 0x0123456789ABCDEF, ts.Value())
}

func TestTimestampFromDuration(t *testing.T) {
	ts := TimestampFromDuration(1500 * time.Millisecond)
	assert.EqualValues(t, 1, ts.Seconds())
	assert.EqualValues(t, uint32(1)<<31, ts.Fraction())

	assert.EqualValues(t, 0, TimestampFromDuration(0).Value())
}

func TestTimestampFromTime(t *testing.T) {
	ts := TimestampFromTime(time.Unix(0, 0))
	assert.EqualValues(t, UnixEraOffset, ts.Seconds())
	assert.EqualValues(t, 0, ts.Fraction())
}

func TestTimestampFromUnix(t *testing.T) {
	ts := TimestampFromUnix(unix.Timespec{Sec: 0, Nsec: 500_000_000})
	assert.EqualValues(t, UnixEraOffset, ts.Seconds())
	assert.EqualValues(t, uint32(1)<<31, ts.Fraction())
}

func TestTimestampDurationRoundTrip(t *testing.T) {
	// The 32-bit fraction resolves 232 ps, so nanoseconds survive a round
	// trip with at most one nanosecond of truncation.
	for _, d := range []time.Duration{
		0,
		time.Nanosecond,
		123456789 * time.Nanosecond,
		time.Second,
		86400 * time.Second,
		3*time.Second + 999999999*time.Nanosecond,
	} {
		got := TimestampFromDuration(d).Duration()
		assert.InDelta(t, float64(d), float64(got), 1, "duration %v", d)
	}
}

func TestTimestampTime(t *testing.T) {
	now := time.Now()
	got := TimestampFromTime(now).Time()
	assert.WithinDuration(t, now, got, time.Microsecond)
}

func TestTimestampSub(t *testing.T) {
	a := TimestampFromDuration(5 * time.Second)
	b := TimestampFromDuration(2 * time.Second)
	assert.Equal(t, 3*time.Second, a.Sub(b))
	assert.Equal(t, -3*time.Second, b.Sub(a))
	assert.Equal(t, time.Duration(0), a.Sub(a))
}

func TestTimestampSubAntiSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		a := NewTimestamp(rng.Uint64())
		b := NewTimestamp(rng.Uint64())
		assert.Equal(t, a.Sub(b), -b.Sub(a), "a=%#x b=%#x", a.Value(), b.Value())
	}
}
