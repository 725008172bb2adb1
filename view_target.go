package rainglare

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32
	Aspect   float32
	Near     float32
	Far      float32
	Hdr      bool
}

func (c *CameraComponent) viewProjection() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Position, c.LookAt, c.Up)
	proj := mgl32.Perspective(c.Fov, c.Aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// forward returns the normalized view direction of the camera.
func (c *CameraComponent) forward() mgl32.Vec3 {
	return c.LookAt.Sub(c.Position).Normalize()
}

// ViewTarget is the pair of offscreen color textures a camera renders
// into. Post-processing passes ping-pong between the two so each pass
// samples the previous result while writing the next.
type ViewTarget struct {
	format   wgpu.TextureFormat
	textureA *wgpu.Texture
	textureB *wgpu.Texture
	viewA    *wgpu.TextureView
	viewB    *wgpu.TextureView

	// index of the texture currently holding the latest output
	main int
}

// PostProcessWrite hands a pass the view to sample and the view to render
// into.
type PostProcessWrite struct {
	Source      *wgpu.TextureView
	Destination *wgpu.TextureView
}

func createViewTarget(width, height uint32, camera *CameraComponent, gpuState *GpuState) *ViewTarget {
	format := gpuState.SurfaceFormat()
	if camera.Hdr {
		format = wgpu.TextureFormatRGBA16Float
	}

	textureA, viewA := createColorTarget("View Target A", width, height, format, gpuState)
	textureB, viewB := createColorTarget("View Target B", width, height, format, gpuState)

	return &ViewTarget{
		format:   format,
		textureA: textureA,
		textureB: textureB,
		viewA:    viewA,
		viewB:    viewB,
		main:     0,
	}
}

// MainTextureFormat is the color format every pass over this view must
// target.
func (t *ViewTarget) MainTextureFormat() wgpu.TextureFormat {
	return t.format
}

// CurrentSource is the view holding the latest rendered output.
func (t *ViewTarget) CurrentSource() *wgpu.TextureView {
	if t.main == 0 {
		return t.viewA
	}
	return t.viewB
}

func (t *ViewTarget) currentDestination() *wgpu.TextureView {
	if t.main == 0 {
		return t.viewB
	}
	return t.viewA
}

// PostProcessWrite returns the source/destination pair for one pass and
// flips the chain, so the destination becomes the next pass's source.
func (t *ViewTarget) PostProcessWrite() PostProcessWrite {
	write := PostProcessWrite{
		Source:      t.CurrentSource(),
		Destination: t.currentDestination(),
	}
	t.main = 1 - t.main
	return write
}

func (t *ViewTarget) release() {
	t.viewA.Release()
	t.viewB.Release()
	t.textureA.Release()
	t.textureB.Release()
}
