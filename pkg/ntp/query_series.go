package ntp

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSeriesTimeout is the default overall deadline for querying a list of
// endpoints one at a time.
const DefaultSeriesTimeout = 5000 * time.Millisecond

type singleResult struct {
	endpoint *net.UDPAddr
	err      error
	packet   Packet
	rtt      time.Duration
}

// QuerySeries is an ephemeral series of NTP queries: it tries a list of
// resolved endpoints one at a time until one succeeds or all are exhausted,
// under an overall deadline that is independent of each attempt's own
// deadline. Only the terminal attempt's endpoint, packet and round-trip time
// are reported; intermediate failures only advance the series.
type QuerySeries struct {
	endpoints      []*net.UDPAddr
	attemptTimeout time.Duration
	reason         atomic.Int32
	cancel         chan struct{}
	once           sync.Once
	done           chan struct{}
}

// StartQuerySeries starts querying the given endpoints one at a time until
// success or all endpoints are queried, reporting the terminal result through
// callback exactly once. A nil callback or an empty endpoint list makes the
// series a no-op.
func StartQuerySeries(endpoints []*net.UDPAddr, callback SingleCallback, timeout time.Duration) *QuerySeries {
	return startQuerySeries(endpoints, callback, timeout, DefaultSingleTimeout)
}

func startQuerySeries(endpoints []*net.UDPAddr, callback SingleCallback, timeout, attemptTimeout time.Duration) *QuerySeries {
	if callback == nil || len(endpoints) == 0 {
		return nil
	}
	q := &QuerySeries{
		endpoints:      endpoints,
		attemptTimeout: attemptTimeout,
		cancel:         make(chan struct{}),
		done:           make(chan struct{}),
	}
	go q.run(callback, timeout)
	return q
}

func (q *QuerySeries) run(callback SingleCallback, timeout time.Duration) {
	defer close(q.done)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Buffered so an attempt's callback never blocks; the series drains
	// exactly one result per attempt, even after cancelling it.
	results := make(chan singleResult, 1)
	collect := func(endpoint *net.UDPAddr, err error, packet Packet, rtt time.Duration) {
		results <- singleResult{endpoint: endpoint, err: err, packet: packet, rtt: rtt}
	}

	var res singleResult
	for i, endpoint := range q.endpoints {
		debug("ntp: series attempt", i, "of", len(q.endpoints), "against", endpoint)
		attempt := StartSingleQuery(endpoint, collect, q.attemptTimeout)
		select {
		case res = <-results:
		case <-timer.C:
			q.reason.CompareAndSwap(int32(abortNone), int32(abortTimeout))
			attempt.Cancel()
			res = <-results
		case <-q.cancel:
			attempt.Cancel()
			res = <-results
		}
		if q.aborted() != abortNone {
			break
		}
		if res.err == nil || errors.Is(res.err, ErrCancelled) {
			break
		}
	}

	// The series' own deadline or cancellation overrides whatever the
	// terminal attempt reported; the attempt's endpoint, packet and
	// round-trip time still stand.
	switch q.aborted() {
	case abortTimeout:
		res.err = ErrTimeout
	case abortCancel:
		res.err = ErrCancelled
	}
	callback(res.endpoint, res.err, res.packet, res.rtt)
}

func (q *QuerySeries) aborted() abortReason {
	return abortReason(q.reason.Load())
}

// Cancel aborts the series, reporting ErrCancelled to the caller. It is safe
// to call from any goroutine, any number of times, before or after the series
// has finished.
func (q *QuerySeries) Cancel() {
	q.once.Do(func() {
		q.reason.CompareAndSwap(int32(abortNone), int32(abortCancel))
		close(q.cancel)
	})
}

// Done returns a channel closed once the callback has been delivered.
func (q *QuerySeries) Done() <-chan struct{} {
	return q.done
}
