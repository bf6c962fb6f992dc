//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/born-ml/convbench/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Verify that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Backend runs convolutions on the GPU using WebGPU.
//
// Buffers live on the host. Every host buffer bound to a convolution gets one
// device buffer, kept until Release and refreshed with Queue.WriteBuffer on
// each pass, so repeated passes do not grow device memory. Convolve submits
// its pass without blocking; Wait copies each pending result back into its
// destination once. Reorder waits first, since it reads on the host.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	bufferPool *BufferPool

	// Device-side state reused across passes, guarded by pendingMu.
	resident map[*tensor.Memory]pooled
	uniforms map[*tensor.ConvPrimitive]*wgpu.Buffer
	zeroBias *wgpu.Buffer

	pending   pendingReads
	pendingMu sync.Mutex
}

// New creates a new WebGPU backend.
// Returns an error wrapping tensor.ErrBackendUnavailable if WebGPU is not
// available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("%w: webgpu: native library not available: %v", tensor.ErrBackendUnavailable, r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("%w: webgpu: failed to create instance: %w", tensor.ErrBackendUnavailable, instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: webgpu: failed to request adapter: %w", tensor.ErrBackendUnavailable, adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: webgpu: failed to request device: %w", tensor.ErrBackendUnavailable, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: webgpu: failed to get queue", tensor.ErrBackendUnavailable)
	}

	return &Backend{
		instance:   instance,
		adapter:    adapter,
		device:     device,
		queue:      queue,
		shaders:    make(map[string]*wgpu.ShaderModule),
		pipelines:  make(map[string]*wgpu.ComputePipeline),
		bufferPool: NewBufferPool(device),
		resident:   make(map[*tensor.Memory]pooled),
		uniforms:   make(map[*tensor.ConvPrimitive]*wgpu.Buffer),
	}, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Release releases all WebGPU resources.
// Must be called when the backend is no longer needed.
func (b *Backend) Release() {
	_ = b.Wait()

	b.releaseResident()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bufferPool != nil {
		b.bufferPool.Clear()
		b.bufferPool = nil
	}
	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil
	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// ResolveConvolution resolves LayoutAny descriptors to nhwc/ohwi.
func (b *Backend) ResolveConvolution(desc tensor.ConvDesc) (*tensor.ConvPrimitive, error) {
	return resolveConvolution(desc)
}

// Reorder finishes queued GPU work, then reorders on the host.
func (b *Backend) Reorder(src, dst *tensor.Memory) error {
	if err := b.Wait(); err != nil {
		return err
	}
	return tensor.Reorder(src, dst)
}

// Convolve uploads the inputs and submits the convolution without waiting
// for it to finish.
func (b *Backend) Convolve(prim *tensor.ConvPrimitive, src, weights, bias, dst *tensor.Memory) error {
	if err := prim.CheckBinding(src, weights, bias, dst); err != nil {
		return err
	}

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	cmd, err := b.encodeConv2D(prim, src, weights, bias, dst)
	if err != nil {
		return fmt.Errorf("%w: webgpu: %w", tensor.ErrBackendExecution, err)
	}
	b.queue.Submit(cmd)
	cmd.Release()
	b.pending.add(dst)
	return nil
}

// Wait blocks until the GPU has finished and copies every pending result
// back to its host buffer.
func (b *Backend) Wait() error {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	var firstErr error
	for _, dst := range b.pending.drain() {
		buf, ok := b.resident[dst]
		if !ok {
			continue
		}
		//nolint:gosec // G115: byte size is non-negative
		data, err := b.readBuffer(buf.buffer, uint64(dst.Descriptor().ByteSize()))
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: webgpu: %w", tensor.ErrBackendExecution, err)
			}
			continue
		}
		copy(dst.Data(), data)
	}
	return firstErr
}

// releaseResident returns every per-buffer device allocation.
func (b *Backend) releaseResident() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	for m, buf := range b.resident {
		if b.bufferPool != nil {
			b.bufferPool.Release(buf)
		} else {
			buf.buffer.Release()
		}
		delete(b.resident, m)
	}
	for prim, u := range b.uniforms {
		u.Release()
		delete(b.uniforms, prim)
	}
	if b.zeroBias != nil {
		b.zeroBias.Release()
		b.zeroBias = nil
	}
}
