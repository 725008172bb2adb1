package rainglare

import (
	"github.com/cogentcore/webgpu/wgpu"
)

const nodeRainGlare NodeLabel = "rain_glare"

// RainGlareModule adds a screen-space rain glare pass to every camera
// carrying RainGlareSettings. Install Core3dModule first; the pass runs
// after tonemapping and before the final composite.
type RainGlareModule struct{}

func (RainGlareModule) Install(app *App, cmd *Commands) {
	gpuState := GetResource[GpuState](cmd)
	if gpuState == nil {
		panic("RainGlareModule requires Core3dModule to be installed first")
	}
	assets := GetResource[AssetServer](cmd)
	if assets == nil {
		panic("RainGlareModule requires AssetServerModule to be installed first")
	}
	graph := GetResource[RenderGraph](cmd)

	shader := assets.LoadShader("rain_glare.wgsl", rainGlareShaderSource)

	pipeline := newRainGlarePipeline(shader)
	pipeline.queuePipeline(gpuState.SurfaceFormat())
	pipeline.queuePipeline(wgpu.TextureFormatRGBA16Float)

	uniforms := newRainGlareUniforms(gpuState.uniformOffsetAlignment)

	cmd.AddResources(pipeline, uniforms)

	app.UseSystem(System(advanceRainTime).InStage(Update))
	// PreRender is the frame's only update-to-render handoff; pipelines
	// realize first, then the settings snapshot is taken and uploaded.
	app.UseSystem(System(processRainGlarePipelines).InStage(PreRender))
	app.UseSystem(System(syncRainGlareUniforms).InStage(PreRender))

	graph.AddNodeEdges(NodeTonemapping, nodeRainGlare, func(rc *RenderContext, view *ViewTarget) {
		runRainGlareNode(rc, view, pipeline, uniforms)
	}, NodeEndPostProcessing)
}

// rainGlareDraw decides whether a view draws this frame. A missing or
// still-compiling pipeline and a view without a uniform slot are all the
// same soft skip; the condition re-evaluates next frame.
func rainGlareDraw(pipeline *rainGlarePipeline, uniforms *rainGlareUniforms, format wgpu.TextureFormat, view EntityId) (*wgpu.RenderPipeline, uint32, bool) {
	id, ok := pipeline.pipelineFor(format)
	if !ok {
		return nil, 0, false
	}
	renderPipeline := pipeline.renderPipeline(id)
	if renderPipeline == nil {
		return nil, 0, false
	}
	offset, ok := uniforms.offsetFor(view)
	if !ok {
		return nil, 0, false
	}
	return renderPipeline, offset, true
}

func runRainGlareNode(rc *RenderContext, view *ViewTarget, pipeline *rainGlarePipeline, uniforms *rainGlareUniforms) {
	renderPipeline, offset, ok := rainGlareDraw(pipeline, uniforms, view.MainTextureFormat(), rc.View)
	if !ok {
		return
	}

	write := view.PostProcessWrite()

	bindGroup, err := rc.Gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Rain Glare Bind Group",
		Layout: pipeline.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: write.Source},
			{Binding: 1, Sampler: pipeline.sampler},
			{Binding: 2, Buffer: uniforms.buffer, Offset: 0, Size: rainGlareSettingsSize},
		},
	})
	if err != nil {
		panic(err)
	}
	defer bindGroup.Release()

	renderPass := rc.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Rain Glare Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    write.Destination,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	defer renderPass.Release()

	renderPass.SetPipeline(renderPipeline)
	renderPass.SetBindGroup(0, bindGroup, []uint32{offset})
	// fullscreen triangle, synthesized from the vertex index
	renderPass.Draw(3, 1, 0, 0)

	if err := renderPass.End(); err != nil {
		panic(err)
	}
}
