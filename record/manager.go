// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package record

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/openvrs/vrs"
)

// DefaultMaxPooled caps how many retired records a Manager keeps for
// reuse before letting the garbage collector reclaim them outright.
const DefaultMaxPooled = 64

// Manager owns one stream's pending-record queue: records accumulate
// here as producer threads create them, ordered by
// (timestamp, record-type priority, arrival-seq), and are drained in
// that order by the writer thread. It also recycles retired records
// through a small bounded free list rather than letting every record
// churn the garbage collector.
type Manager struct {
	mu       sync.Mutex
	pending  recordHeap
	free     []*Record
	maxPooled int
	seq      uint64
}

// NewManager returns an empty Manager for one stream.
func NewManager() *Manager {
	return &Manager{maxPooled: DefaultMaxPooled}
}

// CreateRecord builds a new pending record and enqueues it, assigning
// the next arrival sequence number for tie-breaking same-timestamp
// records.
func (m *Manager) CreateRecord(streamID vrs.StreamId, recType vrs.RecordType, formatVersion uint32, timestamp float64, source DataSource) *Record {
	r := m.acquire()
	r.StreamID = streamID
	r.Type = recType
	r.FormatVersion = formatVersion
	r.Timestamp = timestamp
	r.source = source
	r.payload = nil
	r.arrivalSeq = atomic.AddUint64(&m.seq, 1)

	m.mu.Lock()
	heap.Push(&m.pending, r)
	m.mu.Unlock()
	return r
}

func (m *Manager) acquire() *Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.free); n > 0 {
		r := m.free[n-1]
		m.free = m.free[:n-1]
		return r
	}
	return &Record{}
}

func (m *Manager) release(r *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.free) < m.maxPooled {
		*r = Record{}
		m.free = append(m.free, r)
	}
}

// Pending reports how many records are currently queued.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// CollectOldRecords drains every pending record with Timestamp <= cutoff,
// in queue order, appending them to out and returning the extended
// slice. Records not met by the cutoff remain queued for the next call.
func (m *Manager) CollectOldRecords(cutoff float64, out []*Record) []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.pending) > 0 && m.pending[0].Timestamp <= cutoff {
		r := heap.Pop(&m.pending).(*Record)
		out = append(out, r)
	}
	return out
}

// CollectAll drains every pending record regardless of timestamp, used
// when closing a file.
func (m *Manager) CollectAll(out []*Record) []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.pending) > 0 {
		r := heap.Pop(&m.pending).(*Record)
		out = append(out, r)
	}
	return out
}

// Release returns a record to the pool once the writer has fully
// consumed it (after compression and chunk I/O), for reuse by a future
// CreateRecord call.
func (m *Manager) Release(r *Record) { m.release(r) }

// recordHeap implements container/heap.Interface over *Record, ordering
// by Record.Less: (timestamp, record-type priority, arrival-seq).
type recordHeap []*Record

func (h recordHeap) Len() int            { return len(h) }
func (h recordHeap) Less(i, j int) bool  { return h[i].Less(h[j]) }
func (h recordHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *recordHeap) Push(x interface{}) { *h = append(*h, x.(*Record)) }
func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}
