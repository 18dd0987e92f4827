package ntp

import (
	"time"

	"golang.org/x/sys/unix"
)

const (
	// EraLength is the span of the 32-bit NTP seconds field, 2^32.
	EraLength int64 = 4_294_967_296
	// UnixEraOffset is the number of seconds between the NTP prime epoch
	// "1900-01-01 00:00:00" and the Unix epoch "1970-01-01 00:00:00".
	UnixEraOffset int64 = 2_208_988_800
)

// Timestamp is an immutable NTP timestamp.
//
// A NTP timestamp is a 64-bit unsigned fixed-point number in seconds relative
// to the prime epoch "1900-01-01 00:00:00". The high 32 bits count seconds and
// span 136 years; the low 32 bits hold the fraction of a second. The zero
// value is a special case representing unknown or unsynchronized time.
//
// The only arithmetic operation defined on NTP timestamps is subtraction. It
// is era-naive: the result is correct only when both timestamps belong to the
// same 136-year NTP era.
type Timestamp struct {
	value uint64
}

// NewTimestamp returns a Timestamp from a raw NTP timestamp in long format,
// with the first 32 bits being the seconds and the rest being the fraction.
func NewTimestamp(value uint64) Timestamp {
	return Timestamp{value: value}
}

// TimestampFromParts returns a Timestamp from a seconds count since the prime
// epoch and a fraction of a second.
func TimestampFromParts(seconds, fraction uint32) Timestamp {
	return Timestamp{value: uint64(seconds)<<32 | uint64(fraction)}
}

// TimestampFromDuration returns a Timestamp from a duration since the prime
// epoch. Sub-nanosecond precision of the fraction field is not representable
// and is lost.
func TimestampFromDuration(d time.Duration) Timestamp {
	sec := d / time.Second
	frac := uint64(d%time.Second) << 32 / uint64(time.Second)
	return Timestamp{value: uint64(sec)<<32 | frac}
}

// TimestampFromTime returns a Timestamp from a system time point, shifting it
// by the NTP-to-Unix epoch delta.
func TimestampFromTime(t time.Time) Timestamp {
	d := time.Duration(t.UnixNano()) + time.Duration(UnixEraOffset)*time.Second
	return TimestampFromDuration(d)
}

// TimestampFromUnix returns a Timestamp from a unix.Timespec as reported by
// the operating system clock.
func TimestampFromUnix(ts unix.Timespec) Timestamp {
	return Timestamp{value: uint64(ts.Sec+UnixEraOffset)<<32 |
		uint64(ts.Nsec)<<32/uint64(time.Second)}
}

// Seconds returns the number of seconds of the NTP timestamp.
func (t Timestamp) Seconds() uint32 {
	return uint32(t.value >> 32)
}

// Fraction returns the fraction of a second of the NTP timestamp.
func (t Timestamp) Fraction() uint32 {
	return uint32(t.value)
}

// Value returns the NTP timestamp in long format.
func (t Timestamp) Value() uint64 {
	return t.value
}

// IsZero reports whether the timestamp is the unknown/unsynchronized sentinel.
func (t Timestamp) IsZero() bool {
	return t.value == 0
}

// Duration returns the NTP timestamp as a duration since the prime epoch.
func (t Timestamp) Duration() time.Duration {
	frac := time.Duration(uint64(time.Second) * uint64(t.Fraction()) >> 32)
	return time.Duration(t.Seconds())*time.Second + frac
}

// Time returns the NTP timestamp as a system time point in era 0. It is meant
// for diagnostics; timestamps past the era boundary come out 136 years early.
func (t Timestamp) Time() time.Time {
	d := t.Duration() - time.Duration(UnixEraOffset)*time.Second
	return time.Unix(0, int64(d))
}

// Sub returns the result of subtracting other from this timestamp as a signed
// duration ranging from 136 years in the past to 136 years in the future.
// The subtraction is era-naive.
func (t Timestamp) Sub(other Timestamp) time.Duration {
	return t.Duration() - other.Duration()
}
