package rainglare

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RainGlareSettings is the per-camera configuration of the rain glare
// post-processing effect. Field order matches the shader uniform layout,
// so reordering fields breaks the GPU contract.
//
// Time and ViewAngleFactor are recomputed every frame by the effect
// itself; the remaining fields belong to the user.
type RainGlareSettings struct {
	Intensity       float32
	Threshold       float32
	StreakLengthPx  float32
	RainDensity     float32
	Wind            mgl32.Vec2
	Speed           float32
	Time            float32
	PatternScale    float32
	MaskThicknessPx float32
	SnapToPixel     float32
	TailQuantSteps  float32
	ViewAngleFactor float32
}

func DefaultRainGlareSettings() RainGlareSettings {
	return RainGlareSettings{
		Intensity:       0.35,
		Threshold:       0.65,
		StreakLengthPx:  96.0,
		RainDensity:     0.55,
		Wind:            mgl32.Vec2{0.10, 1.0},
		Speed:           1.2,
		Time:            0.0,
		PatternScale:    3.0,
		MaskThicknessPx: 0.75,
		SnapToPixel:     1.0,
		TailQuantSteps:  8.0,
		ViewAngleFactor: 1.0,
	}
}

// worldUp is the fixed vertical axis the glare fades against.
var worldUp = mgl32.Vec3{0, 1, 0}

// horizonFactor maps the camera's forward direction to [0,1]: 1 when
// level with the horizon, 0 when looking straight up or down.
func horizonFactor(forward mgl32.Vec3) float32 {
	vertical := forward.Dot(worldUp)
	horizon := mgl32.Clamp(1-mgl32.Abs(vertical), 0, 1)
	return horizon * horizon
}

// advanceRainTime drives the two host-computed settings fields each frame:
// the effect clock and the view angle fade.
func advanceRainTime(cmd *Commands, time *Time) {
	MakeQuery2[CameraComponent, RainGlareSettings](cmd).Map(func(id EntityId, cam *CameraComponent, settings *RainGlareSettings) bool {
		settings.Time = float32(time.Elapsed)
		settings.ViewAngleFactor = horizonFactor(cam.forward())
		return true
	})
}
