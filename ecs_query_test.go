package rainglare

import (
	"reflect"
	"testing"
)

func TestQuery2_MatchesOnlyFullComponentSets(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity(positionComponent{x: 1}, velocityComponent{x: 10})
	ecs.addEntity(positionComponent{x: 2})

	cmd := queryTestCommands(&ecs)

	var matched int
	MakeQuery2[positionComponent, velocityComponent](cmd).Map(func(id EntityId, p *positionComponent, v *velocityComponent) bool {
		matched++
		if p.x != 1 || v.x != 10 {
			t.Errorf("Unexpected component values: %v %v", p, v)
		}
		return true
	})

	if matched != 1 {
		t.Errorf("Expected exactly 1 match, got %d", matched)
	}
}

func TestQuery2_OptionalComponentYieldsNil(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity(positionComponent{x: 1}, velocityComponent{x: 10})
	ecs.addEntity(positionComponent{x: 2})

	cmd := queryTestCommands(&ecs)

	var withVel, withoutVel int
	MakeQuery2[positionComponent, velocityComponent](cmd).Map(func(id EntityId, p *positionComponent, v *velocityComponent) bool {
		if v != nil {
			withVel++
		} else {
			withoutVel++
		}
		return true
	}, velocityComponent{})

	if withVel != 1 || withoutVel != 1 {
		t.Errorf("Expected 1 entity with velocity and 1 without, got %d and %d", withVel, withoutVel)
	}
}

func TestQuery1_EarlyExit(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity(positionComponent{})
	ecs.addEntity(positionComponent{})
	ecs.addEntity(positionComponent{})

	cmd := queryTestCommands(&ecs)

	var visited int
	MakeQuery1[positionComponent](cmd).Map(func(id EntityId, p *positionComponent) bool {
		visited++
		return false
	})

	if visited != 1 {
		t.Errorf("Expected visitor to stop after the first entity, got %d visits", visited)
	}
}

func TestQuery1_MutationThroughPointerPersists(t *testing.T) {
	ecs := MakeEcs()
	id := ecs.addEntity(positionComponent{x: 1})

	cmd := queryTestCommands(&ecs)

	MakeQuery1[positionComponent](cmd).Map(func(eid EntityId, p *positionComponent) bool {
		p.x = 42
		return true
	})

	arch := ecs.archetypes[ecs.entityIndex[id]]
	posId := ecs.getComponentId(reflect.TypeOf(positionComponent{}))
	positions := arch.componentData[posId].([]positionComponent)
	if positions[arch.entities[id]].x != 42 {
		t.Errorf("Expected mutation through the query pointer to persist")
	}
}

func queryTestCommands(ecs *Ecs) *Commands {
	app := NewApp()
	app.ecs = ecs
	return app.Commands()
}
