package rainglare

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHorizonFactor_StraightUp(t *testing.T) {
	assert.Equal(t, float32(0), horizonFactor(mgl32.Vec3{0, 1, 0}))
}

func TestHorizonFactor_StraightDown(t *testing.T) {
	assert.Equal(t, float32(0), horizonFactor(mgl32.Vec3{0, -1, 0}))
}

func TestHorizonFactor_LevelWithHorizon(t *testing.T) {
	assert.Equal(t, float32(1), horizonFactor(mgl32.Vec3{0, 0, -1}))
	assert.Equal(t, float32(1), horizonFactor(mgl32.Vec3{1, 0, 0}))
}

func TestHorizonFactor_SmoothInBetween(t *testing.T) {
	// 45 degrees up: vertical = sqrt(2)/2, factor = (1 - sqrt(2)/2)^2
	forward := mgl32.Vec3{0, 1, -1}.Normalize()
	expected := (1 - forward.Y()) * (1 - forward.Y())
	assert.InDelta(t, expected, horizonFactor(forward), 1e-6)

	// Tilting further up only ever shrinks the factor.
	prev := horizonFactor(mgl32.Vec3{0, 0, -1})
	for _, y := range []float32{0.2, 0.5, 0.8, 1.0} {
		f := horizonFactor(mgl32.Vec3{0, y, -1}.Normalize())
		assert.LessOrEqual(t, f, prev)
		prev = f
	}
}

func TestDefaultRainGlareSettings(t *testing.T) {
	s := DefaultRainGlareSettings()

	assert.Equal(t, float32(0.35), s.Intensity)
	assert.Equal(t, float32(0.65), s.Threshold)
	assert.Equal(t, float32(96.0), s.StreakLengthPx)
	assert.Equal(t, float32(0.55), s.RainDensity)
	assert.Equal(t, mgl32.Vec2{0.10, 1.0}, s.Wind)
	assert.Equal(t, float32(1.2), s.Speed)
	assert.Equal(t, float32(0.0), s.Time)
	assert.Equal(t, float32(3.0), s.PatternScale)
	assert.Equal(t, float32(0.75), s.MaskThicknessPx)
	assert.Equal(t, float32(1.0), s.SnapToPixel)
	assert.Equal(t, float32(8.0), s.TailQuantSteps)
	assert.Equal(t, float32(1.0), s.ViewAngleFactor)
}

func glareTestApp(t *testing.T, cam CameraComponent) (*App, *Commands, EntityId) {
	t.Helper()
	app := NewApp()
	cmd := app.Commands()
	id := cmd.AddEntity(cam, DefaultRainGlareSettings())
	app.FlushCommands()
	return app, cmd, id
}

func levelCamera() CameraComponent {
	return CameraComponent{
		Position: mgl32.Vec3{0, 1, 0},
		LookAt:   mgl32.Vec3{0, 1, -10},
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      mgl32.DegToRad(60),
		Aspect:   16. / 9.,
		Near:     0.1,
		Far:      100,
		Hdr:      true,
	}
}

func settingsOf(t *testing.T, cmd *Commands, id EntityId) *RainGlareSettings {
	t.Helper()
	var got *RainGlareSettings
	MakeQuery1[RainGlareSettings](cmd).Map(func(eid EntityId, s *RainGlareSettings) bool {
		if eid == id {
			got = s
			return false
		}
		return true
	})
	require.NotNil(t, got)
	return got
}

func TestAdvanceRainTime_TimeIsMonotonic(t *testing.T) {
	_, cmd, id := glareTestApp(t, levelCamera())

	clock := &Time{}
	var prev float32
	for _, elapsed := range []float64{0.016, 0.84, 0.84, 2.5, 60.0} {
		clock.Elapsed = elapsed
		advanceRainTime(cmd, clock)

		s := settingsOf(t, cmd, id)
		assert.GreaterOrEqual(t, s.Time, prev, "effect time must never decrease")
		prev = s.Time
	}
}

func TestAdvanceRainTime_ViewAngleFollowsCamera(t *testing.T) {
	_, cmd, id := glareTestApp(t, levelCamera())
	clock := &Time{}

	advanceRainTime(cmd, clock)
	assert.InDelta(t, 1.0, settingsOf(t, cmd, id).ViewAngleFactor, 1e-6, "level camera should see full glare")

	// Point the camera straight up.
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		cam.LookAt = cam.Position.Add(mgl32.Vec3{0, 10, 0})
		return true
	})
	advanceRainTime(cmd, clock)
	assert.InDelta(t, 0.0, settingsOf(t, cmd, id).ViewAngleFactor, 1e-6, "camera looking straight up should see none")
}

func TestAdvanceRainTime_OnlyTouchesHostFields(t *testing.T) {
	_, cmd, id := glareTestApp(t, levelCamera())

	s := settingsOf(t, cmd, id)
	s.Intensity = 2.5
	s.Wind = mgl32.Vec2{-1, 0.5}

	advanceRainTime(cmd, &Time{Elapsed: 1.0})

	s = settingsOf(t, cmd, id)
	assert.Equal(t, float32(2.5), s.Intensity)
	assert.Equal(t, mgl32.Vec2{-1, 0.5}, s.Wind)
	assert.Equal(t, float32(1.0), s.Time)
}
