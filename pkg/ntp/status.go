package ntp

import "errors"

// Status is the final status of a query.
type Status uint8

const (
	// ResolveError means the server domain name is not resolved.
	ResolveError Status = 1 << iota
	// SendError means the client packet is not sent to the server.
	SendError
	// ReceiveError means the server packet is not received by the client.
	ReceiveError
	// TimeoutError means the query timed out while waiting for the server.
	TimeoutError
	// Cancelled means the client cancelled the query.
	Cancelled
	// Succeeded means the client received the server's packet successfully.
	Succeeded
)

func (s Status) String() string {
	switch s {
	case ResolveError:
		return "resolve error"
	case SendError:
		return "send error"
	case ReceiveError:
		return "receive error"
	case TimeoutError:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case Succeeded:
		return "succeeded"
	}
	return "unknown"
}

var (
	// ErrTimeout is reported when a deadline elapses before a reply arrives.
	ErrTimeout = errors.New("ntp: query timed out")
	// ErrCancelled is reported when the caller aborts a query in flight.
	ErrCancelled = errors.New("ntp: query cancelled")
	// ErrPacketSize is reported when a reply is not exactly PacketSize bytes.
	ErrPacketSize = errors.New("ntp: unexpected reply size")
)
