package rainglare

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRainGlarePipeline_PipelineForKnownFormats(t *testing.T) {
	p := newRainGlarePipeline(Shader{})

	sdrId := p.queuePipeline(wgpu.TextureFormatBGRA8UnormSrgb)
	hdrId := p.queuePipeline(wgpu.TextureFormatRGBA16Float)
	assert.NotEqual(t, sdrId, hdrId)

	got, ok := p.pipelineFor(wgpu.TextureFormatBGRA8UnormSrgb)
	require.True(t, ok)
	assert.Equal(t, sdrId, got)

	got, ok = p.pipelineFor(wgpu.TextureFormatRGBA16Float)
	require.True(t, ok)
	assert.Equal(t, hdrId, got)
}

func TestRainGlarePipeline_UnknownFormatNotFound(t *testing.T) {
	p := newRainGlarePipeline(Shader{})
	p.queuePipeline(wgpu.TextureFormatRGBA16Float)

	_, ok := p.pipelineFor(wgpu.TextureFormatRGBA8Unorm)
	assert.False(t, ok)
}

func TestRainGlarePipeline_QueueIsIdempotentPerFormat(t *testing.T) {
	p := newRainGlarePipeline(Shader{})

	first := p.queuePipeline(wgpu.TextureFormatRGBA16Float)
	second := p.queuePipeline(wgpu.TextureFormatRGBA16Float)
	assert.Equal(t, first, second, "re-queuing a format keeps its id")
	assert.Len(t, p.queued, 1)
}

func TestRainGlarePipeline_NilUntilRealized(t *testing.T) {
	p := newRainGlarePipeline(Shader{})
	id := p.queuePipeline(wgpu.TextureFormatRGBA16Float)

	assert.Nil(t, p.renderPipeline(id), "queued but uncompiled pipelines read as nil")

	// Compilation finishing later flips the same id to a realized pipeline.
	realized := new(wgpu.RenderPipeline)
	p.compiled[id] = realized
	delete(p.queued, id)

	assert.Same(t, realized, p.renderPipeline(id))
}

func TestRainGlareDraw_SkipStates(t *testing.T) {
	pipeline := newRainGlarePipeline(Shader{})
	uniforms := newRainGlareUniforms(256)
	view := EntityId(1)

	// Unknown format: skip.
	_, _, ok := rainGlareDraw(pipeline, uniforms, wgpu.TextureFormatRGBA16Float, view)
	assert.False(t, ok)

	// Known format, still compiling: skip.
	id := pipeline.queuePipeline(wgpu.TextureFormatRGBA16Float)
	_, _, ok = rainGlareDraw(pipeline, uniforms, wgpu.TextureFormatRGBA16Float, view)
	assert.False(t, ok)

	// Realized but no uniform slot for the view: skip.
	pipeline.compiled[id] = new(wgpu.RenderPipeline)
	_, _, ok = rainGlareDraw(pipeline, uniforms, wgpu.TextureFormatRGBA16Float, view)
	assert.False(t, ok)

	// All preconditions met: draw with the view's own offset.
	uniforms.offsets[view] = 512
	rp, offset, ok := rainGlareDraw(pipeline, uniforms, wgpu.TextureFormatRGBA16Float, view)
	require.True(t, ok)
	assert.Same(t, pipeline.compiled[id], rp)
	assert.Equal(t, uint32(512), offset)

	// A different view without a slot still skips.
	_, _, ok = rainGlareDraw(pipeline, uniforms, wgpu.TextureFormatRGBA16Float, EntityId(2))
	assert.False(t, ok)
}
