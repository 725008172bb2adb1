package rainglare

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackRainGlareSettings_Layout(t *testing.T) {
	s := DefaultRainGlareSettings()
	packed := packRainGlareSettings(s)

	require.Len(t, packed, rainGlareSettingsSize, "13 scalar fields, 4 bytes each")

	f := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(packed[offset:]))
	}

	assert.Equal(t, s.Intensity, f(0))
	assert.Equal(t, s.Threshold, f(4))
	assert.Equal(t, s.StreakLengthPx, f(8))
	assert.Equal(t, s.RainDensity, f(12))
	// wind occupies two consecutive scalars starting at byte 16
	assert.Equal(t, s.Wind[0], f(16))
	assert.Equal(t, s.Wind[1], f(20))
	assert.Equal(t, s.Speed, f(24))
	assert.Equal(t, s.Time, f(28))
	assert.Equal(t, s.PatternScale, f(32))
	assert.Equal(t, s.MaskThicknessPx, f(36))
	assert.Equal(t, s.SnapToPixel, f(40))
	assert.Equal(t, s.TailQuantSteps, f(44))
	assert.Equal(t, s.ViewAngleFactor, f(48))
}

func TestPackRainGlareSettings_RoundTrip(t *testing.T) {
	original := DefaultRainGlareSettings()
	restored := unpackRainGlareSettings(packRainGlareSettings(original))
	assert.Equal(t, original, restored)

	original.Intensity = 3.75
	original.Wind = mgl32.Vec2{-2.5, 0.125}
	original.Time = 123.456
	restored = unpackRainGlareSettings(packRainGlareSettings(original))
	assert.Equal(t, original, restored)
}

func TestAlignUniformStride(t *testing.T) {
	assert.Equal(t, uint32(256), alignUniformStride(rainGlareSettingsSize, 256))
	assert.Equal(t, uint32(256), alignUniformStride(256, 256))
	assert.Equal(t, uint32(512), alignUniformStride(257, 256))
	assert.Equal(t, uint32(64), alignUniformStride(52, 32))
	assert.Equal(t, uint32(52), alignUniformStride(52, 4))
}

func TestRainGlareUniforms_SnapshotAssignsDistinctOffsets(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()

	first := cmd.AddEntity(levelCamera(), DefaultRainGlareSettings())
	second := cmd.AddEntity(levelCamera(), DefaultRainGlareSettings())
	app.FlushCommands()

	uniforms := newRainGlareUniforms(256)
	uniforms.snapshot(cmd)

	offsetA, ok := uniforms.offsetFor(first)
	require.True(t, ok)
	offsetB, ok := uniforms.offsetFor(second)
	require.True(t, ok)

	assert.NotEqual(t, offsetA, offsetB, "each view gets its own slot")
	assert.Zero(t, offsetA%uniforms.stride)
	assert.Zero(t, offsetB%uniforms.stride)
	assert.Len(t, uniforms.staging, int(uniforms.stride)*2)
}

func TestRainGlareUniforms_InstanceIsolation(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()

	loud := DefaultRainGlareSettings()
	loud.Intensity = 4.0
	quiet := DefaultRainGlareSettings()
	quiet.Intensity = 0.0

	loudId := cmd.AddEntity(levelCamera(), loud)
	quietId := cmd.AddEntity(levelCamera(), quiet)
	app.FlushCommands()

	uniforms := newRainGlareUniforms(256)
	uniforms.snapshot(cmd)

	loudOffset, _ := uniforms.offsetFor(loudId)
	quietOffset, _ := uniforms.offsetFor(quietId)

	loudSlot := unpackRainGlareSettings(uniforms.staging[loudOffset:])
	quietSlot := unpackRainGlareSettings(uniforms.staging[quietOffset:])

	assert.Equal(t, float32(4.0), loudSlot.Intensity)
	assert.Equal(t, float32(0.0), quietSlot.Intensity)
}

func TestRainGlareUniforms_SnapshotSeesSameFrameMutation(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	id := cmd.AddEntity(levelCamera(), DefaultRainGlareSettings())
	app.FlushCommands()

	uniforms := newRainGlareUniforms(256)
	uniforms.snapshot(cmd)

	// Mutate before the barrier; the same frame's snapshot must carry the
	// new value, not last frame's.
	MakeQuery1[RainGlareSettings](cmd).Map(func(eid EntityId, s *RainGlareSettings) bool {
		s.Intensity = 2.0
		return true
	})
	uniforms.snapshot(cmd)

	offset, ok := uniforms.offsetFor(id)
	require.True(t, ok)
	slot := unpackRainGlareSettings(uniforms.staging[offset:])
	assert.Equal(t, float32(2.0), slot.Intensity)
}

func TestRainGlareUniforms_EmptyFrame(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()

	uniforms := newRainGlareUniforms(256)
	uniforms.snapshot(cmd)

	assert.Empty(t, uniforms.staging)
	_, ok := uniforms.offsetFor(EntityId(0))
	assert.False(t, ok, "no slot without a settings entity")
}

func TestRainGlareUniforms_RemovedViewLosesItsSlot(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()
	id := cmd.AddEntity(levelCamera(), DefaultRainGlareSettings())
	app.FlushCommands()

	uniforms := newRainGlareUniforms(256)
	uniforms.snapshot(cmd)
	_, ok := uniforms.offsetFor(id)
	require.True(t, ok)

	cmd.RemoveEntity(id)
	app.FlushCommands()

	uniforms.snapshot(cmd)
	_, ok = uniforms.offsetFor(id)
	assert.False(t, ok, "stale offsets must not survive the next snapshot")
}
