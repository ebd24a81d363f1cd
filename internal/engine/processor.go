// SPDX-License-Identifier: MIT
package engine

import (
	"sync"
	"sync/atomic"
)

// Processor transforms a block of interleaved float32 samples in place.
// Implementations run on the audio callback thread and must be real-time
// safe: non-blocking, no allocations, and they must not change the frame
// count of the block they receive.
type Processor interface {
	Process(samples []float32, frames int)
}

// processorChain is an ordered set of processors that the mixer iterates
// on the callback thread while Attach/Detach run on the application
// thread. Mutations build a new slice and swap it in atomically, so the
// callback never observes a partially mutated chain and never takes the
// mutation lock.
type processorChain struct {
	mtx  sync.Mutex // serializes Attach/Detach only
	list atomic.Pointer[[]Processor]
}

// attach appends p to the chain. Processors execute in attach order.
func (c *processorChain) attach(p Processor) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var cur []Processor
	if l := c.list.Load(); l != nil {
		cur = *l
	}
	next := make([]Processor, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = p
	c.list.Store(&next)
}

// detach removes p by identity. Removing a processor that is not attached
// is a no-op.
func (c *processorChain) detach(p Processor) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	l := c.list.Load()
	if l == nil {
		return
	}
	cur := *l
	next := make([]Processor, 0, len(cur))
	for _, q := range cur {
		if q != p {
			next = append(next, q)
		}
	}
	c.list.Store(&next)
}

// run executes the current snapshot of the chain over the block.
// Called from the audio callback; loads one pointer and iterates.
func (c *processorChain) run(samples []float32, frames int) {
	l := c.list.Load()
	if l == nil {
		return
	}
	for _, p := range *l {
		p.Process(samples, frames)
	}
}

// size returns the number of attached processors.
func (c *processorChain) size() int {
	l := c.list.Load()
	if l == nil {
		return 0
	}
	return len(*l)
}
