package ntp

import "time"

// PacketSize is the size of a raw NTP packet holding the required fields.
const PacketSize = 48

// Field offsets within the 48-byte packet.
const (
	offFlags          = 0 // leap(2b) | version(3b) | mode(3b)
	offStratum        = 1
	offPoll           = 2
	offPrecision      = 3
	offRootDelay      = 4
	offRootDispersion = 8
	offReferenceID    = 12
	offReferenceTS    = 16
	offOriginTS       = 24
	offReceiveTS      = 32
	offTransmitTS     = 40
)

// Packet is an immutable raw NTP packet.
//
// Packet internally holds only the required NTP fields (48 bytes). A packet
// is null if all its data is zeros, which can be checked with IsNull; the
// zero value of Packet is the null packet. Packets are shareable read-only
// values and must not be mutated after construction.
//
// Delay and offset calculations are carried out via Delay and Offset. The
// calculations are correct only if the client clock is consistent across the
// departure and arrival of the NTP packet, and the client clock is within 68
// years of the server; otherwise the returned offset is ambiguous.
type Packet struct {
	data *[PacketSize]byte
}

// NewPacket constructs a NTP packet from the given field values. An all-zero
// field set collapses to the null packet.
func NewPacket(leap, version, mode, stratum uint8, poll, precision int8,
	rootDelay, rootDispersion, referenceID uint32,
	referenceTimestamp, originTimestamp, receiveTimestamp, transmitTimestamp uint64) Packet {
	var d [PacketSize]byte
	d[offFlags] = leap<<6 | version<<3 | mode
	d[offStratum] = stratum
	d[offPoll] = byte(poll)
	d[offPrecision] = byte(precision)
	putUint32(d[:], offRootDelay, rootDelay)
	putUint32(d[:], offRootDispersion, rootDispersion)
	putUint32(d[:], offReferenceID, referenceID)
	putUint64(d[:], offReferenceTS, referenceTimestamp)
	putUint64(d[:], offOriginTS, originTimestamp)
	putUint64(d[:], offReceiveTS, receiveTimestamp)
	putUint64(d[:], offTransmitTS, transmitTimestamp)
	return PacketFromData(d)
}

// PacketFromData constructs a NTP packet from a raw data buffer. An all-zero
// buffer collapses to the null packet.
func PacketFromData(data [PacketSize]byte) Packet {
	if isZeroed(data[:]) {
		return Packet{}
	}
	return Packet{data: &data}
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Data returns a raw data representation of the underlying packet.
func (p Packet) Data() [PacketSize]byte {
	if p.data == nil {
		return [PacketSize]byte{}
	}
	return *p.data
}

// IsNull reports whether the underlying data is absent or all zeros.
func (p Packet) IsNull() bool {
	return p.data == nil || isZeroed(p.data[:])
}

// Equal reports whether two packets carry identical data. All null packets
// are equal to each other.
func (p Packet) Equal(other Packet) bool {
	if p.data != nil && other.data != nil {
		return *p.data == *other.data
	}
	return p.IsNull() && other.IsNull()
}

// Leap returns an integer warning of an impending leap second to be inserted
// or deleted in the last minute of the current month.
//
//	Value | Meaning
//	----- | -------------------------------------
//	0     | no warning
//	1     | last minute of the day has 61 seconds
//	2     | last minute of the day has 59 seconds
//	3     | unknown (clock unsynchronized)
func (p Packet) Leap() uint8 {
	if p.data == nil {
		return 0
	}
	return p.data[offFlags] >> 6
}

// Version returns the NTP version number.
func (p Packet) Version() uint8 {
	if p.data == nil {
		return 0
	}
	return p.data[offFlags] >> 3 & 7
}

// Mode returns the relationship between two NTP speakers.
//
//	Value | Meaning
//	----- | ------------------------
//	0     | reserved
//	1     | symmetric active
//	2     | symmetric passive
//	3     | client
//	4     | server
//	5     | broadcast
//	6     | NTP control message
//	7     | reserved for private use
func (p Packet) Mode() uint8 {
	if p.data == nil {
		return 0
	}
	return p.data[offFlags] & 7
}

// Stratum returns the level of the server in the NTP hierarchy.
//
//	Value     | Meaning
//	--------- | ---------------------------------------------------
//	0         | unspecified or invalid
//	1         | primary server (e.g., equipped with a GPS receiver)
//	2..15     | secondary server (via NTP)
//	16        | unsynchronized
//	17..255   | reserved
func (p Packet) Stratum() uint8 {
	if p.data == nil {
		return 0
	}
	return p.data[offStratum]
}

// Poll returns the maximum interval between successive messages, in log2
// seconds.
func (p Packet) Poll() int8 {
	if p.data == nil {
		return 0
	}
	return int8(p.data[offPoll])
}

// Precision returns the precision of the system clock, in log2 seconds.
func (p Packet) Precision() int8 {
	if p.data == nil {
		return 0
	}
	return int8(p.data[offPrecision])
}

// RootDelay returns the total round-trip delay to the reference clock, in NTP
// short format.
func (p Packet) RootDelay() uint32 {
	if p.data == nil {
		return 0
	}
	return getUint32(p.data[:], offRootDelay)
}

// RootDispersion returns the total dispersion to the reference clock, in NTP
// short format.
func (p Packet) RootDispersion() uint32 {
	if p.data == nil {
		return 0
	}
	return getUint32(p.data[:], offRootDispersion)
}

// ReferenceID returns a 32-bit code identifying the particular server or
// reference clock.
func (p Packet) ReferenceID() uint32 {
	if p.data == nil {
		return 0
	}
	return getUint32(p.data[:], offReferenceID)
}

// ReferenceTimestamp returns the server's time at which the system clock was
// last set or corrected.
func (p Packet) ReferenceTimestamp() uint64 {
	if p.data == nil {
		return 0
	}
	return getUint64(p.data[:], offReferenceTS)
}

// OriginTimestamp returns the client's time at which the packet departed to
// the server.
func (p Packet) OriginTimestamp() uint64 {
	if p.data == nil {
		return 0
	}
	return getUint64(p.data[:], offOriginTS)
}

// ReceiveTimestamp returns the server's time at which the packet arrived from
// the client.
func (p Packet) ReceiveTimestamp() uint64 {
	if p.data == nil {
		return 0
	}
	return getUint64(p.data[:], offReceiveTS)
}

// TransmitTimestamp returns the server's time at which the packet departed to
// the client.
func (p Packet) TransmitTimestamp() uint64 {
	if p.data == nil {
		return 0
	}
	return getUint64(p.data[:], offTransmitTS)
}

// Delay returns the round-trip delay of the NTP packet passed from client to
// server and back again. destination is the raw timestamp of the client's
// time at which the packet arrived from the server. In some scenarios it is
// possible for the delay computation to become negative, so the returned
// value has to be clamped or checked before further processing.
func (p Packet) Delay(destination uint64) time.Duration {
	return NewTimestamp(destination - p.OriginTimestamp()).
		Sub(NewTimestamp(p.TransmitTimestamp() - p.ReceiveTimestamp()))
}

// Offset returns the time offset of the server relative to the client.
// destination is the raw timestamp of the client's time at which the packet
// arrived from the server. The offset can range from 136 years in the past to
// 136 years in the future, but because timestamps can belong to different
// eras, ambiguous values may be returned: this method works only with
// timestamps in the same era. Use OffsetAt to get the correct offset for
// timestamps in adjacent eras.
func (p Packet) Offset(destination uint64) time.Duration {
	return (NewTimestamp(p.ReceiveTimestamp()).Sub(NewTimestamp(p.OriginTimestamp())) +
		NewTimestamp(p.TransmitTimestamp()).Sub(NewTimestamp(destination))) / 2
}

// OffsetAt returns the time offset of the server relative to the client.
// destination is the client's time at which the packet arrived from the
// server. The offset can range from 68 years in the past to 68 years in the
// future, so the client clock must be set within 68 years of the server.
// This method calculates the offset correctly for timestamps in the same or
// adjacent eras.
func (p Packet) OffsetAt(destination time.Time) time.Duration {
	raw := p.Offset(TimestampFromTime(destination).Value())
	return time.Duration(int32(raw/time.Second))*time.Second + raw%time.Second
}
