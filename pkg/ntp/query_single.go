package ntp

import (
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSingleTimeout is the default deadline for one query attempt against
// one endpoint.
const DefaultSingleTimeout = 3000 * time.Millisecond

// SingleCallback reports the result of a single query attempt: the endpoint
// that was queried, an error or nil, the server's reply (or the outgoing
// packet on a send failure, or the null packet otherwise), and the elapsed
// time since the attempt started.
type SingleCallback func(endpoint *net.UDPAddr, err error, packet Packet, rtt time.Duration)

// Abort reasons recorded on a query before its pending I/O is torn down.
// Timeout and cancellation share the same teardown mechanics, so the reason
// is what the completion path inspects to choose the reported outcome.
type abortReason int32

const (
	abortNone abortReason = iota
	abortTimeout
	abortCancel
)

// SingleQuery is an ephemeral single NTP query: one UDP exchange with one
// resolved endpoint. Its state is owned by the goroutine started by
// StartSingleQuery; the returned handle only supports Cancel and Done.
type SingleQuery struct {
	endpoint *net.UDPAddr
	conn     *net.UDPConn
	reason   atomic.Int32
	cancel   chan struct{}
	once     sync.Once
	done     chan struct{}
}

// StartSingleQuery starts querying the given endpoint and reports the result
// through callback exactly once. The attempt is abandoned as timed out if no
// valid reply arrives within timeout. A nil callback makes the query a no-op.
func StartSingleQuery(endpoint *net.UDPAddr, callback SingleCallback, timeout time.Duration) *SingleQuery {
	if callback == nil {
		return nil
	}
	q := &SingleQuery{
		endpoint: endpoint,
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	conn, err := net.DialUDP("udp", nil, endpoint)
	if err != nil {
		go func() {
			defer close(q.done)
			callback(endpoint, err, Packet{}, 0)
		}()
		return q
	}
	q.conn = conn
	go q.run(callback, timeout)
	return q
}

func (q *SingleQuery) run(callback SingleCallback, timeout time.Duration) {
	defer close(q.done)
	defer q.conn.Close()

	packet := NewPacket(0, 4, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		TimestampFromTime(time.Now()).Value())
	start := time.Now()
	q.conn.SetReadDeadline(start.Add(timeout))

	select {
	case <-q.cancel:
		callback(q.endpoint, ErrCancelled, Packet{}, time.Since(start))
		return
	default:
	}

	data := packet.Data()
	if _, err := q.conn.Write(data[:]); err != nil {
		if q.aborted() == abortCancel {
			callback(q.endpoint, ErrCancelled, Packet{}, time.Since(start))
			return
		}
		debug("ntp: send to", q.endpoint, "failed:", err)
		callback(q.endpoint, err, packet, time.Since(start))
		return
	}

	// One byte over PacketSize so an oversized datagram is detectable
	// rather than silently truncated.
	buffer := make([]byte, PacketSize+1)
	n, err := q.conn.Read(buffer)
	rtt := time.Since(start)
	switch {
	case err != nil:
		callback(q.endpoint, q.receiveError(err), Packet{}, rtt)
	case n != PacketSize:
		callback(q.endpoint, ErrPacketSize, Packet{}, rtt)
	default:
		var reply [PacketSize]byte
		copy(reply[:], buffer)
		callback(q.endpoint, nil, PacketFromData(reply), rtt)
	}
}

// receiveError maps a failed read to the reported outcome. A read forced to
// fail by Cancel surfaces as ErrCancelled, an elapsed deadline as ErrTimeout,
// and anything else verbatim.
func (q *SingleQuery) receiveError(err error) error {
	if q.aborted() == abortCancel {
		return ErrCancelled
	}
	if os.IsTimeout(err) {
		return ErrTimeout
	}
	return err
}

func (q *SingleQuery) aborted() abortReason {
	return abortReason(q.reason.Load())
}

// Cancel aborts the query, reporting ErrCancelled to the caller. It is safe
// to call from any goroutine, any number of times, before or after the query
// has finished.
func (q *SingleQuery) Cancel() {
	q.once.Do(func() {
		q.reason.Store(int32(abortCancel))
		close(q.cancel)
		if q.conn != nil {
			// Force the pending read to fail immediately.
			q.conn.SetReadDeadline(time.Unix(0, 1))
		}
	})
}

// Done returns a channel closed once the callback has been delivered.
func (q *SingleQuery) Done() <-chan struct{} {
	return q.done
}
