// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package chunkio

import "sync"

// bufferState is a buffer's position in the Free -> Filling -> Queued ->
// In-flight -> Free cycle.
type bufferState int

const (
	stateFree bufferState = iota
	stateFilling
	stateQueued
	stateInFlight
)

// buffer is one aligned slab owned by a pool. fill is the number of valid
// bytes currently staged in data; offset is the chunk-relative byte offset
// this buffer will be (or was) written at.
type buffer struct {
	data   []byte
	fill   int
	offset int64
	state  bufferState
}

// pool is a fixed set of aligned buffers shared by a single Chunk. Buffer
// lifecycle is tracked here exclusively; writers block on cond when no
// buffer is Free.
type pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	buffers []*buffer
	free    []*buffer
}

func newPool(cfg Config) *pool {
	p := &pool{}
	p.cond = sync.NewCond(&p.mu)
	p.buffers = make([]*buffer, cfg.BufferCount)
	for i := range p.buffers {
		b := &buffer{data: alignedBuffer(cfg.BufferSize, cfg.MemAlignment), state: stateFree}
		p.buffers[i] = b
		p.free = append(p.free, b)
	}
	return p
}

// alignedBuffer allocates a byte slice whose start address is a multiple
// of alignment, by over-allocating and slicing to the first aligned byte.
// Go has no portable aligned-allocation primitive, so this is the standard
// idiom for it.
func alignedBuffer(size, alignment int) []byte {
	if alignment <= 1 {
		return make([]byte, size)
	}
	raw := make([]byte, size+alignment)
	addr := uintptrOf(raw)
	pad := (alignment - int(addr%uintptr(alignment))) % alignment
	return raw[pad : pad+size]
}

// acquireFilling blocks until a buffer is Free, then marks it Filling and
// returns it. Unblocked by releaseToFree.
func (p *pool) acquireFilling() *buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.free) == 0 {
		p.cond.Wait()
	}
	n := len(p.free) - 1
	b := p.free[n]
	p.free = p.free[:n]
	b.state = stateFilling
	b.fill = 0
	return b
}

// markQueued transitions a Filling buffer to Queued.
func (p *pool) markQueued(b *buffer) {
	p.mu.Lock()
	b.state = stateQueued
	p.mu.Unlock()
}

// markInFlight transitions a Queued buffer to In-flight.
func (p *pool) markInFlight(b *buffer) {
	p.mu.Lock()
	b.state = stateInFlight
	p.mu.Unlock()
}

// releaseToFree returns a buffer to the Free list and wakes one blocked
// acquirer, if any.
func (p *pool) releaseToFree(b *buffer) {
	p.mu.Lock()
	b.state = stateFree
	b.fill = 0
	p.free = append(p.free, b)
	p.mu.Unlock()
	p.cond.Signal()
}

// outstanding reports how many buffers are Queued or In-flight right now.
func (p *pool) outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buffers {
		if b.state == stateQueued || b.state == stateInFlight {
			n++
		}
	}
	return n
}
