package ntp

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultQueryTimeout is the default end-to-end deadline for a query, from
// name resolution to the delivery of its result.
const DefaultQueryTimeout = 5000 * time.Millisecond

// Callback reports the final result of a query: the server name as given by
// the caller, the resolved address (empty if resolution failed or the query
// ended before an address was chosen), the final status, the server's reply
// (or the null packet), and the elapsed time since the packet was sent.
type Callback func(server, address string, status Status, packet Packet, rtt time.Duration)

// Resolver resolves a host and port to a list of UDP endpoints. It is a
// collaborator of Query, replaceable for testing.
type Resolver func(ctx context.Context, host, port string) ([]*net.UDPAddr, error)

// resolveUDP is the default Resolver, backed by the system resolver.
func resolveUDP(ctx context.Context, host, port string) ([]*net.UDPAddr, error) {
	portNum, err := net.DefaultResolver.LookupPort(ctx, "udp", port)
	if err != nil {
		return nil, err
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	endpoints := make([]*net.UDPAddr, 0, len(ips))
	for _, ip := range ips {
		endpoints = append(endpoints, &net.UDPAddr{IP: ip.IP, Zone: ip.Zone, Port: portNum})
	}
	return endpoints, nil
}

// splitServer splits a "host[:port]" server string; the default port is 123.
func splitServer(server string) (host, port string) {
	if host, port, ok := strings.Cut(server, ":"); ok {
		return host, port
	}
	return server, "123"
}

// Query is an ephemeral NTP query from start to end: it resolves a server
// name, drives a QuerySeries over the resolved endpoints, enforces the
// end-to-end deadline, and maps the outcome to a Status. Its state is owned
// by the goroutine started by StartQuery; the returned handle only supports
// Cancel and Done.
type Query struct {
	server    string
	ctx       context.Context
	ctxCancel context.CancelFunc
	cancel    chan struct{}
	once      sync.Once
	done      chan struct{}
}

// StartQuery starts querying all resolved addresses of server one at a time
// until success, reporting the result through callback exactly once within
// timeout. A nil callback makes the query a no-op.
func StartQuery(server string, callback Callback, timeout time.Duration) *Query {
	return startQuery(resolveUDP, server, callback, timeout)
}

func startQuery(resolver Resolver, server string, callback Callback, timeout time.Duration) *Query {
	if callback == nil {
		return nil
	}
	ctx, ctxCancel := context.WithCancel(context.Background())
	q := &Query{
		server:    server,
		ctx:       ctx,
		ctxCancel: ctxCancel,
		cancel:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go q.run(resolver, callback, timeout)
	return q
}

func (q *Query) run(resolver Resolver, callback Callback, timeout time.Duration) {
	defer close(q.done)
	defer q.ctxCancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	host, port := splitServer(q.server)

	type resolution struct {
		endpoints []*net.UDPAddr
		err       error
	}
	resolved := make(chan resolution, 1)
	go func() {
		endpoints, err := resolver(q.ctx, host, port)
		resolved <- resolution{endpoints: endpoints, err: err}
	}()

	var endpoints []*net.UDPAddr
	select {
	case r := <-resolved:
		if r.err != nil || len(r.endpoints) == 0 {
			info("ntp: resolving", q.server, "failed:", r.err)
			callback(q.server, "", ResolveError, Packet{}, 0)
			return
		}
		endpoints = r.endpoints
	case <-timer.C:
		callback(q.server, "", TimeoutError, Packet{}, 0)
		return
	case <-q.cancel:
		callback(q.server, "", Cancelled, Packet{}, 0)
		return
	}

	results := make(chan singleResult, 1)
	series := StartQuerySeries(endpoints, func(endpoint *net.UDPAddr, err error, packet Packet, rtt time.Duration) {
		results <- singleResult{endpoint: endpoint, err: err, packet: packet, rtt: rtt}
	}, DefaultSeriesTimeout)

	select {
	case res := <-results:
		callback(q.server, res.endpoint.String(), statusOf(res), res.packet, res.rtt)
	case <-timer.C:
		series.Cancel()
		<-results
		callback(q.server, "", TimeoutError, Packet{}, 0)
	case <-q.cancel:
		series.Cancel()
		<-results
		callback(q.server, "", Cancelled, Packet{}, 0)
	}
}

// statusOf translates a terminal attempt result into the public status. An
// error alongside a null packet means nothing valid came back; an error
// alongside a non-null packet means the datagram never left the client.
func statusOf(res singleResult) Status {
	switch {
	case res.err == nil:
		return Succeeded
	case errors.Is(res.err, ErrTimeout):
		return TimeoutError
	case errors.Is(res.err, ErrCancelled):
		return Cancelled
	case res.packet.IsNull():
		return ReceiveError
	default:
		return SendError
	}
}

// Cancel aborts the query, reporting Cancelled to the caller. It is safe to
// call from any goroutine, any number of times, before or after the query
// has finished.
func (q *Query) Cancel() {
	q.once.Do(func() {
		close(q.cancel)
		q.ctxCancel()
	})
}

// Done returns a channel closed once the callback has been delivered.
func (q *Query) Done() <-chan struct{} {
	return q.done
}

// Finished reports whether the query's callback has been delivered.
func (q *Query) Finished() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
