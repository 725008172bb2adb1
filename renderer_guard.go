package rainglare

import (
	"fmt"
	"reflect"
)

// RendererTag marks that a renderer has been installed into the App.
// Only one renderer may own the surface at a time.
type RendererTag struct {
	Name string
}

// ensureSingleRenderer panics when a different renderer module already
// claimed the App.
func ensureSingleRenderer(app *App, name string) {
	t := reflect.TypeOf((*RendererTag)(nil)).Elem()
	if res, ok := app.resources[t]; ok {
		tag := res.(*RendererTag)
		if tag.Name != name {
			app.Logger().Errorf("Multiple renderers installed: %s and %s", tag.Name, name)
			panic(fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name))
		}
		return
	}
	app.addResources(&RendererTag{Name: name})
}
