package ntp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startCollectingSeries(t *testing.T, endpoints []*net.UDPAddr, timeout, attemptTimeout time.Duration) (*QuerySeries, chan singleResult) {
	t.Helper()
	results := make(chan singleResult, 8)
	q := startQuerySeries(endpoints, func(endpoint *net.UDPAddr, err error, packet Packet, rtt time.Duration) {
		results <- singleResult{endpoint: endpoint, err: err, packet: packet, rtt: rtt}
	}, timeout, attemptTimeout)
	require.NotNil(t, q)
	return q, results
}

func TestQuerySeriesNoCallback(t *testing.T) {
	assert.Nil(t, StartQuerySeries([]*net.UDPAddr{unusedEndpoint(t)}, nil, DefaultSeriesTimeout))
}

func TestQuerySeriesNoEndpoints(t *testing.T) {
	cb := func(*net.UDPAddr, error, Packet, time.Duration) {}
	assert.Nil(t, StartQuerySeries(nil, cb, DefaultSeriesTimeout))
}

func TestQuerySeriesFirstEndpointSucceeds(t *testing.T) {
	server := startTestServer(t, echo)
	q, results := startCollectingSeries(t, []*net.UDPAddr{server.addr},
		DefaultSeriesTimeout, DefaultSingleTimeout)

	res := collectOne(t, results, time.Second)
	assert.NoError(t, res.err)
	assert.Equal(t, server.addr, res.endpoint)
	assert.False(t, res.packet.IsNull())

	<-q.Done()
	assertNoMore(t, results)
}

func TestQuerySeriesCascadingFallback(t *testing.T) {
	malformed := startTestServer(t, short)
	silent := silentServer(t)
	valid := startTestServer(t, echo)
	endpoints := []*net.UDPAddr{malformed.addr, silent.addr, valid.addr}

	_, results := startCollectingSeries(t, endpoints, DefaultSeriesTimeout, 200*time.Millisecond)

	res := collectOne(t, results, 2*time.Second)
	assert.NoError(t, res.err)
	assert.Equal(t, valid.addr, res.endpoint)
	assert.False(t, res.packet.IsNull())
	// Every endpoint before the successful one was actually tried.
	assert.EqualValues(t, 1, malformed.received.Load())
	assert.EqualValues(t, 1, silent.received.Load())
}

func TestQuerySeriesExhaustion(t *testing.T) {
	first := startTestServer(t, short)
	second := startTestServer(t, short)
	endpoints := []*net.UDPAddr{first.addr, second.addr}

	_, results := startCollectingSeries(t, endpoints, DefaultSeriesTimeout, DefaultSingleTimeout)

	res := collectOne(t, results, time.Second)
	// Only the last attempt's outcome surfaces.
	assert.ErrorIs(t, res.err, ErrPacketSize)
	assert.Equal(t, second.addr, res.endpoint)
	assert.True(t, res.packet.IsNull())
	assertNoMore(t, results)
}

func TestQuerySeriesOverallTimeout(t *testing.T) {
	server := silentServer(t)
	start := time.Now()
	_, results := startCollectingSeries(t, []*net.UDPAddr{server.addr},
		150*time.Millisecond, time.Second)

	res := collectOne(t, results, time.Second)
	assert.ErrorIs(t, res.err, ErrTimeout)
	assert.Equal(t, server.addr, res.endpoint)
	assert.True(t, res.packet.IsNull())
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 650*time.Millisecond)
}

func TestQuerySeriesOverallTimeoutStopsAdvancing(t *testing.T) {
	// Two endpoints, each attempt allowed 100 ms, series cut off at 150 ms:
	// the second attempt starts but is cancelled by the series deadline.
	first := silentServer(t)
	second := silentServer(t)
	_, results := startCollectingSeries(t, []*net.UDPAddr{first.addr, second.addr},
		150*time.Millisecond, 100*time.Millisecond)

	res := collectOne(t, results, time.Second)
	assert.ErrorIs(t, res.err, ErrTimeout)
	assert.Equal(t, second.addr, res.endpoint)
	assertNoMore(t, results)
}

func TestQuerySeriesCancel(t *testing.T) {
	server := silentServer(t)
	q, results := startCollectingSeries(t, []*net.UDPAddr{server.addr},
		DefaultSeriesTimeout, DefaultSingleTimeout)

	assert.Eventually(t, func() bool { return server.received.Load() == 1 },
		time.Second, 10*time.Millisecond)
	q.Cancel()

	res := collectOne(t, results, time.Second)
	assert.ErrorIs(t, res.err, ErrCancelled)
	assert.Equal(t, server.addr, res.endpoint)
	assert.True(t, res.packet.IsNull())

	q.Cancel()
	assertNoMore(t, results)
}

func TestQuerySeriesCancelStopsFallback(t *testing.T) {
	first := silentServer(t)
	second := startTestServer(t, echo)
	q, results := startCollectingSeries(t, []*net.UDPAddr{first.addr, second.addr},
		DefaultSeriesTimeout, DefaultSingleTimeout)

	assert.Eventually(t, func() bool { return first.received.Load() == 1 },
		time.Second, 10*time.Millisecond)
	q.Cancel()

	res := collectOne(t, results, time.Second)
	assert.ErrorIs(t, res.err, ErrCancelled)
	assert.Equal(t, first.addr, res.endpoint)
	// The second endpoint was never queried.
	assert.EqualValues(t, 0, second.received.Load())
}
