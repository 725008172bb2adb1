package rainglare

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func TestApp_addResources(t *testing.T) {
	app := NewApp()

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)

	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := &MockResource2{name: "Resource2"}
	app.addResources(resource2)

	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")
}

func TestApp_callSystem_injectsResourcesAndCommands(t *testing.T) {
	app := NewApp()
	app.addResources(&MockResource1{name: "injected"})

	var gotName string
	var gotCmd *Commands
	app.callSystem(func(cmd *Commands, res *MockResource1) {
		gotCmd = cmd
		gotName = res.name
	})

	assert.Equal(t, "injected", gotName)
	require.NotNil(t, gotCmd)
	assert.Same(t, app, gotCmd.app)
}

func TestApp_callSystem_panicsOnMissingResource(t *testing.T) {
	app := NewApp()

	assert.Panics(t, func() {
		app.callSystem(func(res *MockResource2) {})
	})
}

func TestApp_UseSystem_unknownStagePanics(t *testing.T) {
	app := NewApp()

	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InStage(Stage{Name: "NoSuchStage"}))
	})
}

func TestApp_Step_runsStagesInOrder(t *testing.T) {
	app := NewApp()

	var order []string
	app.UseSystem(System(func() { order = append(order, "render") }).InStage(Render))
	app.UseSystem(System(func() { order = append(order, "update") }).InStage(Update))
	app.UseSystem(System(func() { order = append(order, "prelude") }).InStage(Prelude))
	app.UseSystem(System(func() { order = append(order, "pre_render") }).InStage(PreRender))

	app.Step()

	assert.Equal(t, []string{"prelude", "update", "pre_render", "render"}, order)
}

type counterComponent struct {
	value int
}

func TestApp_FlushCommands_entityLifecycle(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()

	id := cmd.AddEntity(counterComponent{value: 7})
	app.FlushCommands()

	found := false
	MakeQuery1[counterComponent](cmd).Map(func(eid EntityId, c *counterComponent) bool {
		assert.Equal(t, id, eid)
		assert.Equal(t, 7, c.value)
		found = true
		return true
	})
	require.True(t, found, "entity should be visible after flush")

	cmd.RemoveEntity(id)
	app.FlushCommands()

	MakeQuery1[counterComponent](cmd).Map(func(eid EntityId, c *counterComponent) bool {
		t.Errorf("entity %v should have been removed", eid)
		return true
	})
}

func TestApp_GetResource(t *testing.T) {
	app := NewApp()
	cmd := app.Commands()

	assert.Nil(t, GetResource[MockResource1](cmd))

	cmd.AddResources(&MockResource1{name: "found"})
	res := GetResource[MockResource1](cmd)
	require.NotNil(t, res)
	assert.Equal(t, "found", res.name)
}

func TestApp_UseModules_installsInOrder(t *testing.T) {
	app := NewApp()

	app.UseModules(orderModule{tag: "first"}, orderModule{tag: "second"})

	order := GetResource[installOrder](app.Commands())
	require.NotNil(t, order)
	assert.Equal(t, []string{"first", "second"}, order.tags)
}

type installOrder struct {
	tags []string
}

type orderModule struct {
	tag string
}

func (m orderModule) Install(app *App, cmd *Commands) {
	order := GetResource[installOrder](cmd)
	if order == nil {
		order = &installOrder{}
		cmd.AddResources(order)
	}
	order.tags = append(order.tags, m.tag)
}
