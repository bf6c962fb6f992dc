//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/convbench/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil layout)
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// storageSize rounds n up to 4 bytes, the granularity of storage bindings.
func storageSize(n int) uint64 {
	//nolint:gosec // G115: buffer lengths are non-negative
	size := (uint64(n) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	return size
}

// createBuffer creates a GPU buffer initialised with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := storageSize(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	aligned := make([]byte, (len(data)+15)&^15)
	copy(aligned, data)
	return b.createBuffer(aligned, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	// Blocks until the copy, and all work submitted before it, is done.
	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	stagingBuffer.Unmap()

	return result, nil
}

// residentUsage covers every role a host buffer can play in a convolution.
const residentUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

// residentBuffer returns the device buffer kept for host buffer m, allocating
// it on first use. Caller must hold pendingMu.
func (b *Backend) residentBuffer(m *tensor.Memory) pooled {
	if buf, ok := b.resident[m]; ok {
		return buf
	}
	buf := b.bufferPool.Acquire(storageSize(len(m.Data())), residentUsage)
	b.resident[m] = buf
	return buf
}

// upload copies host buffer m into its device buffer. The write is ordered
// before any command submitted after it.
func (b *Backend) upload(m *tensor.Memory) pooled {
	buf := b.residentBuffer(m)
	b.queue.WriteBuffer(buf.buffer, 0, m.Data())
	return buf
}

// uniformBuffer returns the parameter block for prim, created once.
// Caller must hold pendingMu.
func (b *Backend) uniformBuffer(prim *tensor.ConvPrimitive, params convParams) *wgpu.Buffer {
	if u, ok := b.uniforms[prim]; ok {
		return u
	}
	u := b.createUniformBuffer(params.bytes())
	b.uniforms[prim] = u
	return u
}

// biasBuffer uploads bias, or binds a zeroed buffer when there is none.
// Caller must hold pendingMu.
func (b *Backend) biasBuffer(bias *tensor.Memory) (*wgpu.Buffer, uint64) {
	if bias != nil {
		return b.upload(bias).buffer, storageSize(len(bias.Data()))
	}
	if b.zeroBias == nil {
		b.zeroBias = b.createBuffer(nil, wgpu.BufferUsageStorage)
	}
	return b.zeroBias, storageSize(0)
}

// encodeConv2D uploads the inputs and records one convolution dispatch into
// dst's device buffer. The returned command buffer is not submitted.
// Caller must hold pendingMu.
func (b *Backend) encodeConv2D(prim *tensor.ConvPrimitive, src, weights, bias, dst *tensor.Memory) (*wgpu.CommandBuffer, error) {
	params := newConvParams(prim)
	gx, gy := dispatchSize(int(params.Total), workgroupSize)
	if gx == 0 {
		return nil, fmt.Errorf("conv2d: empty output %s", prim.Dst)
	}
	params.RowStride = gx * workgroupSize

	shader := b.compileShader("conv2d", conv2dShader)
	pipeline := b.getOrCreatePipeline("conv2d", shader)

	bufferSrc := b.upload(src)
	bufferWeights := b.upload(weights)
	bufferBias, biasSize := b.biasBuffer(bias)
	bufferParams := b.uniformBuffer(prim, params)
	output := b.residentBuffer(dst)

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferSrc.buffer, 0, bufferSrc.size),
		wgpu.BufferBindingEntry(1, bufferWeights.buffer, 0, bufferWeights.size),
		wgpu.BufferBindingEntry(2, bufferBias, 0, biasSize),
		wgpu.BufferBindingEntry(3, output.buffer, 0, output.size),
		wgpu.BufferBindingEntry(4, bufferParams, 0, convParamsSize),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	defer encoder.Release()
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(gx, gy, 1)
	computePass.End()
	computePass.Release()
	return encoder.Finish(nil), nil
}
