package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v2"

	rainglare "github.com/gekko3d/rainglare"
)

type demoConfig struct {
	Window struct {
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
		Title  string `yaml:"title"`
	} `yaml:"window"`
	Camera struct {
		Hdr bool    `yaml:"hdr"`
		Fov float32 `yaml:"fov"`
	} `yaml:"camera"`
	Glare struct {
		Intensity      *float32   `yaml:"intensity"`
		Threshold      *float32   `yaml:"threshold"`
		StreakLengthPx *float32   `yaml:"streak_length_px"`
		RainDensity    *float32   `yaml:"rain_density"`
		Wind           *[]float32 `yaml:"wind"`
		Speed          *float32   `yaml:"speed"`
	} `yaml:"glare"`
	Debug bool `yaml:"debug"`
}

func loadConfig(path string) demoConfig {
	var cfg demoConfig
	cfg.Window.Width = 1280
	cfg.Window.Height = 720
	cfg.Window.Title = "Rain Glare Demo"
	cfg.Camera.Hdr = true
	cfg.Camera.Fov = 60

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("failed to read config %s: %w", path, err))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Errorf("failed to parse config %s: %w", path, err))
	}
	return cfg
}

func (cfg demoConfig) glareSettings() rainglare.RainGlareSettings {
	s := rainglare.DefaultRainGlareSettings()
	if v := cfg.Glare.Intensity; v != nil {
		s.Intensity = *v
	}
	if v := cfg.Glare.Threshold; v != nil {
		s.Threshold = *v
	}
	if v := cfg.Glare.StreakLengthPx; v != nil {
		s.StreakLengthPx = *v
	}
	if v := cfg.Glare.RainDensity; v != nil {
		s.RainDensity = *v
	}
	if v := cfg.Glare.Wind; v != nil && len(*v) == 2 {
		s.Wind = mgl32.Vec2{(*v)[0], (*v)[1]}
	}
	if v := cfg.Glare.Speed; v != nil {
		s.Speed = *v
	}
	return s
}

func main() {
	configPath := flag.String("config", "", "path to a YAML demo config")
	flag.Parse()

	cfg := loadConfig(*configPath)

	app := rainglare.NewApp().
		UseModules(
			rainglare.LoggingModule{Prefix: "glaredemo", Debug: cfg.Debug},
			rainglare.TimeModule{},
			rainglare.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title),
			rainglare.InputModule{},
			rainglare.AssetServerModule{},
			rainglare.Core3dModule{},
			rainglare.RainGlareModule{},
			demoModule{config: cfg},
		)

	app.Run()
}

type demoModule struct {
	config demoConfig
}

func (m demoModule) Install(app *rainglare.App, cmd *rainglare.Commands) {
	aspect := float32(m.config.Window.Width) / float32(m.config.Window.Height)

	cmd.AddEntity(
		rainglare.CameraComponent{
			Position: mgl32.Vec3{0, 1.6, 6},
			LookAt:   mgl32.Vec3{0, 1.6, -10},
			Up:       mgl32.Vec3{0, 1, 0},
			Fov:      mgl32.DegToRad(m.config.Camera.Fov),
			Aspect:   aspect,
			Near:     0.1,
			Far:      200,
			Hdr:      m.config.Camera.Hdr,
		},
		m.config.glareSettings(),
	)

	app.UseSystem(rainglare.System(tweakGlareSettings).InStage(rainglare.Update))
	app.UseSystem(rainglare.System(reportGlareSettings).InStage(rainglare.PostUpdate))
}

// tweakGlareSettings adjusts the effect live from the keyboard, clamping
// every field to its documented range.
func tweakGlareSettings(cmd *rainglare.Commands, input *rainglare.Input, time *rainglare.Time) {
	stepSmall := 0.6 * time.Dt
	stepLarge := 60.0 * time.Dt

	adjust := func(value *float32, upKey, downKey int, step, min, max float32) {
		if input.Pressed[upKey] {
			*value += step
		}
		if input.Pressed[downKey] {
			*value -= step
		}
		*value = mgl32.Clamp(*value, min, max)
	}

	rainglare.MakeQuery1[rainglare.RainGlareSettings](cmd).Map(func(id rainglare.EntityId, s *rainglare.RainGlareSettings) bool {
		adjust(&s.Intensity, rainglare.KeyQ, rainglare.KeyA, stepSmall, 0, 4)
		adjust(&s.Threshold, rainglare.KeyW, rainglare.KeyS, stepSmall, 0, 4)
		adjust(&s.StreakLengthPx, rainglare.KeyE, rainglare.KeyD, stepLarge, 1, 400)
		adjust(&s.RainDensity, rainglare.KeyR, rainglare.KeyF, stepSmall, 0, 10)
		adjust(&s.Wind[0], rainglare.KeyT, rainglare.KeyG, stepSmall, -3, 3)
		adjust(&s.Wind[1], rainglare.KeyY, rainglare.KeyH, stepSmall, -3, 3)
		adjust(&s.Speed, rainglare.KeyU, rainglare.KeyJ, stepSmall, 0, 20)
		return true
	})
}

// reportGlareSettings prints the current values on Tab, standing in for an
// on-screen HUD.
func reportGlareSettings(cmd *rainglare.Commands, input *rainglare.Input, logger *rainglare.DefaultLogger) {
	if !input.JustPressed[rainglare.KeyTab] {
		return
	}
	rainglare.MakeQuery1[rainglare.RainGlareSettings](cmd).Map(func(id rainglare.EntityId, s *rainglare.RainGlareSettings) bool {
		logger.Infof(
			"intensity=%.2f threshold=%.2f streak_px=%.1f density=%.2f wind=(%.2f,%.2f) speed=%.2f",
			s.Intensity, s.Threshold, s.StreakLengthPx, s.RainDensity, s.Wind[0], s.Wind[1], s.Speed)
		return true
	})
}
