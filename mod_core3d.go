package rainglare

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Core3dModule owns the window surface, the GPU device and the main 3d
// render path: scene pass, tonemapping, final composite to the surface.
// Post-processing modules hook into the render graph between
// NodeTonemapping and NodeEndPostProcessing.
type Core3dModule struct{}

type viewTargets struct {
	targets map[EntityId]*ViewTarget
}

type sceneUniform struct {
	InvViewProj mgl32.Mat4
	// xyz camera position, w unused
	CameraPos mgl32.Vec4
	// x elapsed time, yzw unused
	Params mgl32.Vec4
}

type core3dState struct {
	sampler *wgpu.Sampler

	sceneBindGroupLayout *wgpu.BindGroupLayout
	scenePipelines       map[wgpu.TextureFormat]*wgpu.RenderPipeline

	blitBindGroupLayout *wgpu.BindGroupLayout
	tonemapPipelines    map[wgpu.TextureFormat]*wgpu.RenderPipeline
	compositePipeline   *wgpu.RenderPipeline

	cameraBuffers    map[EntityId]*wgpu.Buffer
	cameraBindGroups map[EntityId]*wgpu.BindGroup
}

func (Core3dModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, "core3d")

	winState := app.windowState()
	if winState == nil {
		panic("Core3dModule requires PlatformWindowModule to be installed first")
	}
	assets := GetResource[AssetServer](cmd)
	if assets == nil {
		panic("Core3dModule requires AssetServerModule to be installed first")
	}

	gpuState := createGpuState(winState)
	state := createCore3dState(gpuState, assets)

	graph := newRenderGraph()
	graph.AddNode(NodeMainPass, func(rc *RenderContext, view *ViewTarget) {
		state.runMainPass(rc, view)
	})
	graph.AddNode(NodeTonemapping, func(rc *RenderContext, view *ViewTarget) {
		state.runTonemapping(rc, view)
	})
	graph.AddNode(NodeEndPostProcessing, func(rc *RenderContext, view *ViewTarget) {
		state.runComposite(rc, view)
	})

	cmd.AddResources(
		gpuState,
		graph,
		state,
		&viewTargets{targets: make(map[EntityId]*ViewTarget)},
	)

	app.UseSystem(System(prepareViews).InStage(PreRender))
	app.UseSystem(System(renderFrame).InStage(Render))
}

func createCore3dState(gpuState *GpuState, assets *AssetServer) *core3dState {
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

	sceneBgl, err := gpuState.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Scene BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: false,
					MinBindingSize:   sceneUniformSize,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}

	blitBgl, err := gpuState.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Blit BGL",
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
		},
	})
	if err != nil {
		panic(err)
	}

	sceneShader := assets.LoadShader("scene.wgsl", sceneShaderSource)
	tonemapShader := assets.LoadShader("tonemap.wgsl", tonemapShaderSource)
	compositeShader := assets.LoadShader("composite.wgsl", compositeShaderSource)

	// Cameras render either in the surface format or in HDR; both target
	// formats get their pipelines up front.
	viewFormats := []wgpu.TextureFormat{
		gpuState.SurfaceFormat(),
		wgpu.TextureFormatRGBA16Float,
	}

	state := &core3dState{
		sampler:              sampler,
		sceneBindGroupLayout: sceneBgl,
		scenePipelines:       make(map[wgpu.TextureFormat]*wgpu.RenderPipeline),
		blitBindGroupLayout:  blitBgl,
		tonemapPipelines:     make(map[wgpu.TextureFormat]*wgpu.RenderPipeline),
		cameraBuffers:        make(map[EntityId]*wgpu.Buffer),
		cameraBindGroups:     make(map[EntityId]*wgpu.BindGroup),
	}

	for _, format := range viewFormats {
		state.scenePipelines[format] = createFullscreenPipeline(
			"Scene Pipeline", sceneShader, sceneBgl, format, gpuState, assets)
		state.tonemapPipelines[format] = createFullscreenPipeline(
			"Tonemap Pipeline", tonemapShader, blitBgl, format, gpuState, assets)
	}
	state.compositePipeline = createFullscreenPipeline(
		"Composite Pipeline", compositeShader, blitBgl, gpuState.SurfaceFormat(), gpuState, assets)

	return state
}

const sceneUniformSize = 24 * 4

func createFullscreenPipeline(name string, shader Shader, bgl *wgpu.BindGroupLayout, format wgpu.TextureFormat, gpuState *GpuState, assets *AssetServer) *wgpu.RenderPipeline {
	asset := assets.shaderAsset(shader)
	shaderModule := createShaderModule(asset.name, asset.listing, gpuState)
	defer shaderModule.Release()

	layout, err := gpuState.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		panic(err)
	}
	defer layout.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name,
		Layout: layout,
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
	return pipeline
}

// prepareViews allocates render targets for new cameras, drops targets of
// removed cameras and uploads each camera's scene uniform for the frame.
func prepareViews(cmd *Commands, winState *WindowState, gpuState *GpuState, views *viewTargets, state *core3dState, time *Time) {
	seen := make(map[EntityId]bool)

	MakeQuery1[CameraComponent](cmd).Map(func(id EntityId, cam *CameraComponent) bool {
		seen[id] = true

		if _, ok := views.targets[id]; !ok {
			views.targets[id] = createViewTarget(
				uint32(winState.WindowWidth), uint32(winState.WindowHeight), cam, gpuState)
		}

		uniform := sceneUniform{
			InvViewProj: cam.viewProjection().Inv(),
			CameraPos:   cam.Position.Vec4(0),
			Params:      mgl32.Vec4{float32(time.Elapsed), 0, 0, 0},
		}

		if _, ok := state.cameraBuffers[id]; !ok {
			buffer := createBuffer("Camera Uniform", uniform, gpuState,
				wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
			state.cameraBuffers[id] = buffer

			bindGroup, err := gpuState.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  "Scene Bind Group",
				Layout: state.sceneBindGroupLayout,
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, Buffer: buffer, Size: wgpu.WholeSize},
				},
			})
			if err != nil {
				panic(err)
			}
			state.cameraBindGroups[id] = bindGroup
		} else {
			err := gpuState.queue.WriteBuffer(state.cameraBuffers[id], 0, toBufferBytes(uniform))
			if err != nil {
				panic(err)
			}
		}
		return true
	})

	for id, target := range views.targets {
		if !seen[id] {
			target.release()
			delete(views.targets, id)
			if buffer, ok := state.cameraBuffers[id]; ok {
				buffer.Release()
				delete(state.cameraBuffers, id)
			}
			if bindGroup, ok := state.cameraBindGroups[id]; ok {
				bindGroup.Release()
				delete(state.cameraBindGroups, id)
			}
		}
	}
}

// renderFrame acquires the surface, walks the render graph once per view
// and presents.
func renderFrame(cmd *Commands, gpuState *GpuState, views *viewTargets, graph *RenderGraph) {
	surfaceTexture, err := gpuState.surface.GetCurrentTexture()
	if err != nil {
		panic(err)
	}

	surfaceView, err := surfaceTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer surfaceView.Release()

	encoder, err := gpuState.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	MakeQuery1[CameraComponent](cmd).Map(func(id EntityId, cam *CameraComponent) bool {
		target, ok := views.targets[id]
		if !ok {
			return true
		}
		rc := &RenderContext{
			Gpu:         gpuState,
			Encoder:     encoder,
			View:        id,
			SurfaceView: surfaceView,
		}
		graph.run(rc, target)
		return true
	})

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()

	gpuState.queue.Submit(cmdBuffer)
	gpuState.surface.Present()
}

func (s *core3dState) runMainPass(rc *RenderContext, view *ViewTarget) {
	bindGroup, ok := s.cameraBindGroups[rc.View]
	if !ok {
		return
	}
	pipeline, ok := s.scenePipelines[view.MainTextureFormat()]
	if !ok {
		return
	}
	runFullscreenPass(rc.Encoder, "Main Pass", view.CurrentSource(), pipeline, bindGroup, wgpu.LoadOpClear)
}

func (s *core3dState) runTonemapping(rc *RenderContext, view *ViewTarget) {
	pipeline, ok := s.tonemapPipelines[view.MainTextureFormat()]
	if !ok {
		return
	}
	write := view.PostProcessWrite()
	bindGroup := s.createBlitBindGroup(rc.Gpu, write.Source)
	defer bindGroup.Release()
	runFullscreenPass(rc.Encoder, "Tonemap Pass", write.Destination, pipeline, bindGroup, wgpu.LoadOpClear)
}

func (s *core3dState) runComposite(rc *RenderContext, view *ViewTarget) {
	bindGroup := s.createBlitBindGroup(rc.Gpu, view.CurrentSource())
	defer bindGroup.Release()
	runFullscreenPass(rc.Encoder, "Composite Pass", rc.SurfaceView, s.compositePipeline, bindGroup, wgpu.LoadOpClear)
}

func (s *core3dState) createBlitBindGroup(gpuState *GpuState, source *wgpu.TextureView) *wgpu.BindGroup {
	bindGroup, err := gpuState.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: s.blitBindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: source},
			{Binding: 1, Sampler: s.sampler},
		},
	})
	if err != nil {
		panic(err)
	}
	return bindGroup
}

func runFullscreenPass(encoder *wgpu.CommandEncoder, name string, target *wgpu.TextureView, pipeline *wgpu.RenderPipeline, bindGroup *wgpu.BindGroup, loadOp wgpu.LoadOp) {
	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: name,
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	defer renderPass.Release()

	renderPass.SetPipeline(pipeline)
	renderPass.SetBindGroup(0, bindGroup, nil)
	renderPass.Draw(3, 1, 0, 0)

	if err := renderPass.End(); err != nil {
		panic(err)
	}
}
