package rainglare

import (
	"github.com/cogentcore/webgpu/wgpu"
)

type cachedPipelineId uint32

// rainGlarePipeline caches one compiled render pipeline per output color
// format. Queued entries get a stable id right away; compilation happens
// later on the frame schedule, and callers check realization themselves
// before drawing. An unrealized pipeline is a normal transient state, not
// an error.
type rainGlarePipeline struct {
	shader Shader

	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	sampler         *wgpu.Sampler

	byFormat map[wgpu.TextureFormat]cachedPipelineId
	queued   map[cachedPipelineId]wgpu.TextureFormat
	compiled map[cachedPipelineId]*wgpu.RenderPipeline
	nextId   cachedPipelineId
}

func newRainGlarePipeline(shader Shader) *rainGlarePipeline {
	return &rainGlarePipeline{
		shader:   shader,
		byFormat: make(map[wgpu.TextureFormat]cachedPipelineId),
		queued:   make(map[cachedPipelineId]wgpu.TextureFormat),
		compiled: make(map[cachedPipelineId]*wgpu.RenderPipeline),
	}
}

// queuePipeline reserves an id for a format and schedules its compilation.
func (p *rainGlarePipeline) queuePipeline(format wgpu.TextureFormat) cachedPipelineId {
	if id, ok := p.byFormat[format]; ok {
		return id
	}
	id := p.nextId
	p.nextId++
	p.byFormat[format] = id
	p.queued[id] = format
	return id
}

// pipelineFor looks up the cached pipeline id for a format. A missing
// format is not an error; the caller skips drawing.
func (p *rainGlarePipeline) pipelineFor(format wgpu.TextureFormat) (cachedPipelineId, bool) {
	id, ok := p.byFormat[format]
	return id, ok
}

// renderPipeline returns the compiled pipeline for an id, or nil while it
// is still pending.
func (p *rainGlarePipeline) renderPipeline(id cachedPipelineId) *wgpu.RenderPipeline {
	return p.compiled[id]
}

// process compiles everything queued so far. Runs on the frame schedule;
// a frame with nothing queued is a no-op.
func (p *rainGlarePipeline) process(gpuState *GpuState, assets *AssetServer) {
	if len(p.queued) == 0 {
		return
	}

	if p.bindGroupLayout == nil {
		p.createSharedResources(gpuState)
	}

	asset := assets.shaderAsset(p.shader)
	shaderModule := createShaderModule(asset.name, asset.listing, gpuState)
	defer shaderModule.Release()

	for id, format := range p.queued {
		pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  "Rain Glare Pipeline",
			Layout: p.pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     shaderModule,
				EntryPoint: "vs_main",
			},
			Fragment: &wgpu.FragmentState{
				Module:     shaderModule,
				EntryPoint: "fs_main",
				Targets: []wgpu.ColorTargetState{
					{
						Format:    format,
						Blend:     nil,
						WriteMask: wgpu.ColorWriteMaskAll,
					},
				},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  wgpu.CullModeNone,
			},
			DepthStencil: nil,
			Multisample: wgpu.MultisampleState{
				Count:                  1,
				Mask:                   0xFFFFFFFF,
				AlphaToCoverageEnabled: false,
			},
		})
		if err != nil {
			panic(err)
		}
		p.compiled[id] = pipeline
		delete(p.queued, id)
	}
}

func (p *rainGlarePipeline) createSharedResources(gpuState *GpuState) {
	bindGroupLayout, err := gpuState.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Rain Glare BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   rainGlareSettingsSize,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	p.bindGroupLayout = bindGroupLayout

	pipelineLayout, err := gpuState.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Rain Glare Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		panic(err)
	}
	p.pipelineLayout = pipelineLayout

	sampler, err := gpuState.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.,
		LodMaxClamp:   32.,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
	p.sampler = sampler
}

// processRainGlarePipelines realizes queued pipelines once the device is
// available. Later frames fall through immediately.
func processRainGlarePipelines(pipeline *rainGlarePipeline, gpuState *GpuState, assets *AssetServer) {
	pipeline.process(gpuState, assets)
}
