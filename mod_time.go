package rainglare

import (
	"time"
)

// Time tracks the global frame clock. Elapsed is seconds since the app
// started and never decreases within a run.
type Time struct {
	Start   time.Time
	Time    time.Time
	Dt      float32
	Elapsed float64
}

type TimeModule struct{}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := time.Now()
	cmd.AddResources(&Time{
		Start: now,
		Time:  now,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude),
	)
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = float32(now.Sub(timeResource.Time).Seconds())
	timeResource.Time = now
	timeResource.Elapsed = now.Sub(timeResource.Start).Seconds()
}
