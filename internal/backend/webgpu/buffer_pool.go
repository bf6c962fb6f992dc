//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledPerKey caps idle buffers kept for one (size, usage) pair.
const maxPooledPerKey = 8

// pooled is a GPU buffer together with the key it was allocated for.
type pooled struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

type poolKey struct {
	size  uint64
	usage wgpu.BufferUsage
}

// BufferPool recycles device buffers between benchmark passes. A plan
// requests identical buffers on every pass, so buffers are keyed by exact
// size and usage.
type BufferPool struct {
	device *wgpu.Device
	free   map[poolKey][]*wgpu.Buffer
	mu     sync.Mutex

	// Statistics
	totalAllocated uint64
	totalReleased  uint64
	poolHits       uint64
	poolMisses     uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		free:   make(map[poolKey][]*wgpu.Buffer),
	}
}

// Acquire returns an idle buffer with exactly this size and usage, or creates one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) pooled {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey{size: size, usage: usage}
	if idle := p.free[key]; len(idle) > 0 {
		buf := idle[len(idle)-1]
		p.free[key] = idle[:len(idle)-1]
		p.poolHits++
		return pooled{buffer: buf, size: size, usage: usage}
	}

	p.poolMisses++
	p.totalAllocated++
	buf := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
	return pooled{buffer: buf, size: size, usage: usage}
}

// Release returns a buffer to the pool, or frees it if the pool is full.
func (p *BufferPool) Release(b pooled) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalReleased++
	key := poolKey{size: b.size, usage: b.usage}
	if len(p.free[key]) >= maxPooledPerKey {
		b.buffer.Release()
		return
	}
	p.free[key] = append(p.free[key], b.buffer)
}

// Clear releases all pooled buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, idle := range p.free {
		for _, buf := range idle {
			buf.Release()
		}
		delete(p.free, key)
	}
}

// Stats returns statistics about buffer pool usage.
func (p *BufferPool) Stats() (allocated, released, hits, misses uint64, pooledCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, idle := range p.free {
		pooledCount += len(idle)
	}
	return p.totalAllocated, p.totalReleased, p.poolHits, p.poolMisses, pooledCount
}
