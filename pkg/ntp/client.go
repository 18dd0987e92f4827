package ntp

import (
	"sync"
	"time"
)

// Client is an asynchronous multi-query NTP client.
//
// Typically a Client is constructed with a Callback; query requests are then
// placed via Query or QueryWithTimeout, and each completed query invokes the
// callback exactly once with the server name as given, the resolved address
// (or an empty string), the final Status, the server's reply packet (or the
// null packet), and the elapsed round-trip time.
//
// A Client constructed without a callback still runs queries but discards
// their results; register one via SetCallback before querying to observe
// them.
//
// Queries run concurrently on their own goroutines. Wait blocks until every
// outstanding query has delivered its callback; a Client must not be
// discarded while it still owes a callback invocation. For fast teardown,
// call Cancel first.
type Client struct {
	mu       sync.Mutex
	callback Callback
	resolver Resolver
	queries  []*Query
	wg       sync.WaitGroup
}

// NewClient returns a Client reporting query results through callback.
// A nil callback discards results until one is registered via SetCallback.
func NewClient(callback Callback) *Client {
	return &Client{
		callback: callback,
		resolver: resolveUDP,
	}
}

// SetCallback registers the callable reporting query results back to the
// caller. It affects queries placed after the call.
func (c *Client) SetCallback(callback Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = callback
}

// Query places a NTP query with the default end-to-end timeout. It is safe
// to call from any goroutine. server is a domain name or an IP address,
// optionally with a port in the form "host[:port]"; the default port is 123.
func (c *Client) Query(server string) {
	c.QueryWithTimeout(server, DefaultQueryTimeout)
}

// QueryWithTimeout places a NTP query that is cancelled and reported as
// TimeoutError if not completed within timeout. It is safe to call from any
// goroutine.
func (c *Client) QueryWithTimeout(server string, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purge()
	callback := c.callback
	wrapped := func(server, address string, status Status, packet Packet, rtt time.Duration) {
		if callback != nil {
			callback(server, address, status, packet, rtt)
		}
	}
	q := startQuery(c.resolver, server, wrapped, timeout)
	c.wg.Add(1)
	go func() {
		<-q.Done()
		c.wg.Done()
	}()
	c.queries = append(c.queries, q)
}

// Cancel cancels all queries currently in flight. It is safe to call from
// any goroutine, any number of times.
func (c *Client) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.queries {
		q.Cancel()
	}
	c.purge()
}

// Wait blocks until every outstanding query has delivered its callback.
func (c *Client) Wait() {
	c.wg.Wait()
}

// purge drops already-finished queries from the registry. Callers must hold
// c.mu.
func (c *Client) purge() {
	live := c.queries[:0]
	for _, q := range c.queries {
		if !q.Finished() {
			live = append(live, q)
		}
	}
	c.queries = live
}
