package rainglare

import (
	"fmt"
)

type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

// defaultStages is the per-frame order every App runs. The frame splits into a
// simulation half (through PostUpdate) and a render half (Render onward), with
// PreRender as the single simulation-to-render synchronization point.
var defaultStages = []Stage{
	Prelude,
	PreUpdate,
	Update,
	PostUpdate,
	PreRender,
	Render,
	PostRender,
	Finale,
}

type systemScheduleBuilder struct {
	inStage Stage
	system  systemFn
}

func System(system systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  system,
		inStage: Update,
	}
}

func (sched systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	return systemScheduleBuilder{
		system:  sched.system,
		inStage: s,
	}
}

func (app *App) UseSystem(system systemScheduleBuilder) *App {
	if systems, ok := app.systems[system.inStage.Name]; ok {
		app.systems[system.inStage.Name] = append(systems, system.system)
		return app
	}
	panic(fmt.Sprintf("Stage %v doesn't exist", system.inStage.Name))
}
