// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/gpubuf"
	"github.com/gogpu/triad/internal/logging"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

// spriteUniformSize is the size of the Uniforms struct in sprite.wgsl:
// mat4x4<f32> (64 bytes) + vec2<f32> viewport scale + vec2<f32> padding.
const spriteUniformSize = 80

// spriteVertices is the vertex count of one sprite quad (triangle strip).
const spriteVertices = 4

// CompileShader compiles WGSL source to SPIR-V words.
func CompileShader(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("render: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("render: compile shader: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// Pipeline draws sprite batches with one instanced draw per batch.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
}

func newPipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*Pipeline, error) {
	p := &Pipeline{device: device, queue: queue, format: format}
	if err := p.create(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) create() error {
	source := hal.ShaderSource{WGSL: spriteShaderSource}
	if code, err := CompileShader(spriteShaderSource); err == nil {
		source = hal.ShaderSource{SPIRV: code}
	} else {
		logging.Logger().Warn("render: SPIR-V compilation failed, passing WGSL to the backend", "err", err)
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("render: create sprite shader: %w", err)
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create sprite uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create sprite pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sprite_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    spriteVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("render: create sprite pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

func (p *Pipeline) destroy() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// frameResources holds the per-frame uniform buffers and bind groups, one
// per recorded draw. They are destroyed after the frame was submitted.
type frameResources struct {
	uniformBufs []hal.Buffer
	bindGroups  []hal.BindGroup
}

func (r *frameResources) destroy(device hal.Device) {
	for _, bg := range r.bindGroups {
		device.DestroyBindGroup(bg)
	}
	for _, buf := range r.uniformBufs {
		device.DestroyBuffer(buf)
	}
	r.bindGroups = r.bindGroups[:0]
	r.uniformBufs = r.uniformBufs[:0]
}

// record encodes every visible batch of f into rp. The viewport is the
// target size in pixels.
func (p *Pipeline) record(rp hal.RenderPassEncoder, f *Frame, width, height uint32, res *frameResources) error {
	rp.SetPipeline(p.pipeline)
	return f.eachDrawable(func(d *Draw, sink *gpubuf.HALSink) error {
		uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "sprite_uniform",
			Size:  spriteUniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("render: create uniform buffer: %w", err)
		}
		res.uniformBufs = append(res.uniformBufs, uniformBuf)
		if err := p.queue.WriteBuffer(uniformBuf, 0, spriteUniforms(d.Transform, width, height)); err != nil {
			return fmt.Errorf("render: write uniforms: %w", err)
		}

		bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "sprite_uniform_bind",
			Layout: p.uniformLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: spriteUniformSize,
				}},
			},
		})
		if err != nil {
			return fmt.Errorf("render: create bind group: %w", err)
		}
		res.bindGroups = append(res.bindGroups, bindGroup)

		rp.SetBindGroup(0, bindGroup, nil)
		recordDraw(rp, d, sink)
		return nil
	})
}

// spriteUniforms serializes the Uniforms struct of sprite.wgsl. WGSL
// matrices are column-major, so the row-major transform is transposed.
func spriteUniforms(m f32.Mat4, width, height uint32) []byte {
	buf := make([]byte, spriteUniformSize)
	for col := range 4 {
		for row := range 4 {
			off := (col*4 + row) * 4
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(m[row*4+col]))
		}
	}
	var sx, sy float32
	if width > 0 && height > 0 {
		sx, sy = 2/float32(width), 2/float32(height)
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(sx))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(sy))
	return buf
}
