// Package progress provides lightweight, thread-safe counters for the
// long-running download/extract/index stages. Progress is pure
// observability (spec's concurrency model is explicit that progress
// indicators are never load-bearing for correctness); the sharded
// counter here exists only to keep hot paths from contending on a
// single mutex, adapted from the teacher's indexing progress tracker.
package progress

import (
	"sync/atomic"
	"time"
)

const numShards = 8

// Counter is a sharded, monotonically increasing count used to track
// completed units (downloads, extractions, indexed files) without a
// single point of lock contention.
type Counter struct {
	total     int64
	shards    [numShards]int64
	startTime time.Time
}

// NewCounter creates a Counter with its total fixed up front (the
// tarball/file list is known before the stage begins).
func NewCounter(total int) *Counter {
	return &Counter{total: int64(total), startTime: time.Now()}
}

// Inc increments the counter in the shard chosen by shardKey (modulo
// the shard count), so callers passing distinct keys spread atomic
// contention under high concurrency.
func (c *Counter) Inc(shardKey int) {
	atomic.AddInt64(&c.shards[shardKey%numShards], 1)
}

// Done returns the total count of completed units across all shards.
func (c *Counter) Done() int64 {
	var sum int64
	for i := range c.shards {
		sum += atomic.LoadInt64(&c.shards[i])
	}
	return sum
}

// Total returns the fixed total this counter was created with.
func (c *Counter) Total() int64 {
	return c.total
}

// Elapsed returns the time since the counter was created.
func (c *Counter) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// ByteCounter tracks cumulative bytes transferred for a single
// download, reported as it streams rather than sharded (one writer
// per in-flight download, so there is no contention to spread).
type ByteCounter struct {
	n int64
}

// Add records n more bytes transferred.
func (b *ByteCounter) Add(n int64) {
	atomic.AddInt64(&b.n, n)
}

// Bytes returns the cumulative byte count.
func (b *ByteCounter) Bytes() int64 {
	return atomic.LoadInt64(&b.n)
}
