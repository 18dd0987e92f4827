package ntp

import "encoding/binary"

// The NTP wire format is big-endian. These helpers exist so the packet layout
// reads as a field table rather than a series of shift-and-mask expressions.

func getUint32(data []byte, offset int) uint32 {
	return binary.BigEndian.Uint32(data[offset:])
}

func getUint64(data []byte, offset int) uint64 {
	return binary.BigEndian.Uint64(data[offset:])
}

func putUint32(data []byte, offset int, value uint32) {
	binary.BigEndian.PutUint32(data[offset:], value)
}

func putUint64(data []byte, offset int, value uint64) {
	binary.BigEndian.PutUint64(data[offset:], value)
}
