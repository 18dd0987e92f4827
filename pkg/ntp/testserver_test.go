package ntp

import (
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// testServer is a fake NTP server bound to a loopback port. Its behavior is
// given by a reply function mapping each received datagram to a response;
// returning nil keeps the server silent for that request.
type testServer struct {
	conn     *net.UDPConn
	addr     *net.UDPAddr
	received atomic.Int32
}

func startTestServer(t *testing.T, reply func(request []byte) []byte) *testServer {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &testServer{conn: conn, addr: conn.LocalAddr().(*net.UDPAddr)}
	t.Cleanup(func() { conn.Close() })
	go func() {
		buffer := make([]byte, 1024)
		for {
			n, remote, err := conn.ReadFromUDP(buffer)
			if err != nil {
				return
			}
			s.received.Add(1)
			if reply == nil {
				continue
			}
			request := make([]byte, n)
			copy(request, buffer[:n])
			if response := reply(request); response != nil {
				conn.WriteToUDP(response, remote)
			}
		}
	}()
	return s
}

// echo replies with the received datagram as is. A 48-byte request therefore
// comes back as a well-formed reply.
func echo(request []byte) []byte {
	return request
}

// short replies with a truncated datagram.
func short(request []byte) []byte {
	return request[:9]
}

// silentServer receives requests and never replies.
func silentServer(t *testing.T) *testServer {
	t.Helper()
	return startTestServer(t, nil)
}

// unusedEndpoint returns a loopback endpoint with no listener behind it.
func unusedEndpoint(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := *conn.LocalAddr().(*net.UDPAddr)
	conn.Close()
	return &addr
}

// collectOne waits for a single result from a query callback channel.
func collectOne(t *testing.T, results <-chan singleResult, timeout time.Duration) singleResult {
	t.Helper()
	select {
	case res := <-results:
		return res
	case <-time.After(timeout):
		t.Fatal("no result delivered in time")
		return singleResult{}
	}
}

// assertNoMore asserts that no further result arrives within a settle window.
func assertNoMore(t *testing.T, results <-chan singleResult) {
	t.Helper()
	select {
	case res := <-results:
		t.Fatalf("unexpected extra result: %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
}
