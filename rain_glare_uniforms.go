package rainglare

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// rainGlareSettingsSize is the packed byte size of one RainGlareSettings
// record: 13 scalar fields, 4 bytes each, no padding between fields.
const rainGlareSettingsSize = 13 * 4

func packRainGlareSettings(settings RainGlareSettings) []byte {
	return toBufferBytes(settings)
}

func unpackRainGlareSettings(data []byte) RainGlareSettings {
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return RainGlareSettings{
		Intensity:       f(0),
		Threshold:       f(1),
		StreakLengthPx:  f(2),
		RainDensity:     f(3),
		Wind:            mgl32.Vec2{f(4), f(5)},
		Speed:           f(6),
		Time:            f(7),
		PatternScale:    f(8),
		MaskThicknessPx: f(9),
		SnapToPixel:     f(10),
		TailQuantSteps:  f(11),
		ViewAngleFactor: f(12),
	}
}

// alignUniformStride rounds size up to the device's dynamic uniform
// offset alignment.
func alignUniformStride(size uint32, alignment uint32) uint32 {
	return (size + alignment - 1) / alignment * alignment
}

// rainGlareUniforms is the render-side snapshot of every view's settings
// for the current frame. The snapshot is taken once per frame, after the
// update systems mutate settings and before any graph node reads them;
// render code treats it as read-only for the rest of the frame.
type rainGlareUniforms struct {
	stride  uint32
	staging []byte
	offsets map[EntityId]uint32

	buffer   *wgpu.Buffer
	capacity uint64
}

func newRainGlareUniforms(alignment uint32) *rainGlareUniforms {
	return &rainGlareUniforms{
		stride:  alignUniformStride(rainGlareSettingsSize, alignment),
		offsets: make(map[EntityId]uint32),
	}
}

// snapshot copies every camera's current settings into CPU staging,
// assigning each view its own dynamic offset for this frame.
func (u *rainGlareUniforms) snapshot(cmd *Commands) {
	u.staging = u.staging[:0]
	clear(u.offsets)

	MakeQuery2[CameraComponent, RainGlareSettings](cmd).Map(func(id EntityId, cam *CameraComponent, settings *RainGlareSettings) bool {
		u.offsets[id] = uint32(len(u.staging))
		packed := packRainGlareSettings(*settings)
		u.staging = append(u.staging, packed...)
		u.staging = append(u.staging, make([]byte, int(u.stride)-len(packed))...)
		return true
	})
}

// offsetFor returns the dynamic offset of a view's record in the frame's
// snapshot, or false when the view produced no record this frame.
func (u *rainGlareUniforms) offsetFor(view EntityId) (uint32, bool) {
	offset, ok := u.offsets[view]
	return offset, ok
}

// upload pushes the frame's staging snapshot to the GPU, growing the
// buffer when more views appeared than it can hold.
func (u *rainGlareUniforms) upload(gpu *GpuState) {
	if len(u.staging) == 0 {
		return
	}

	needed := uint64(len(u.staging))
	if u.buffer == nil || u.capacity < needed {
		if u.buffer != nil {
			u.buffer.Release()
		}
		buffer, err := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Rain Glare Uniforms",
			Size:  needed,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
		u.buffer = buffer
		u.capacity = needed
	}

	if err := gpu.queue.WriteBuffer(u.buffer, 0, u.staging); err != nil {
		panic(err)
	}
}

// syncRainGlareUniforms is the once-per-frame barrier between the update
// half of the frame and the render half.
func syncRainGlareUniforms(cmd *Commands, uniforms *rainGlareUniforms, gpuState *GpuState) {
	uniforms.snapshot(cmd)
	uniforms.upload(gpuState)
}
