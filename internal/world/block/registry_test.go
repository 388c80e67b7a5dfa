package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableLookup(t *testing.T) {
	reg := DefaultTable()
	require.Greater(t, reg.Len(), 50)

	b, ok := reg.Lookup(State{Name: "minecraft:stone"})
	assert.True(t, ok)
	assert.Equal(t, Block{ID: 1, Meta: 0}, b)

	// Лишние свойства состояния не мешают сопоставлению
	b, ok = reg.Lookup(State{Name: "minecraft:oak_stairs", Properties: map[string]string{
		"facing": "north", "half": "top", "shape": "straight", "waterlogged": "false",
	}})
	assert.True(t, ok)
	assert.Equal(t, Block{ID: 53, Meta: 7}, b)

	b, ok = reg.Lookup(State{Name: "minecraft:birch_log", Properties: map[string]string{"axis": "z"}})
	assert.True(t, ok)
	assert.Equal(t, Block{ID: 17, Meta: 10}, b)

	_, ok = reg.Lookup(State{Name: "minecraft:nonexistent"})
	assert.False(t, ok)
}

func TestDefaultTableMostSpecificFirst(t *testing.T) {
	reg := DefaultTable()

	b, ok := reg.Lookup(State{Name: "minecraft:water", Properties: map[string]string{"level": "0"}})
	require.True(t, ok)
	assert.Equal(t, Block{ID: 9, Meta: 0}, b)

	b, ok = reg.Lookup(State{Name: "minecraft:water", Properties: map[string]string{"level": "4"}})
	require.True(t, ok)
	assert.Equal(t, Block{ID: 8, Meta: 0}, b)
}

func TestDefaultTableState(t *testing.T) {
	reg := DefaultTable()

	s, ok := reg.State(Block{ID: 35, Meta: 14})
	require.True(t, ok)
	assert.Equal(t, "minecraft:red_wool", s.Name)

	// Неизвестная meta откатывается к meta=0
	s, ok = reg.State(Block{ID: 4, Meta: 9})
	require.True(t, ok)
	assert.Equal(t, "minecraft:cobblestone", s.Name)

	_, ok = reg.State(Block{ID: 250})
	assert.False(t, ok)
}

func TestDefaultTableTags(t *testing.T) {
	reg := DefaultTable()

	assert.True(t, reg.IsSolid(1))
	assert.False(t, reg.IsSolid(AirID))
	assert.True(t, reg.IsAlphaBlended(20))
	assert.False(t, reg.IsAlphaBlended(1))
	assert.True(t, reg.Tags(53).Has(TagRotatable))
}

func TestRotateMeta(t *testing.T) {
	reg := DefaultTable()

	// Ступени: восток -> юг -> запад -> север -> восток
	assert.Equal(t, uint8(2), reg.RotateMeta(53, 0, 90))
	assert.Equal(t, uint8(1), reg.RotateMeta(53, 0, 180))
	assert.Equal(t, uint8(3), reg.RotateMeta(53, 0, 270))
	assert.Equal(t, uint8(0), reg.RotateMeta(53, 0, 360))
	assert.Equal(t, uint8(3), reg.RotateMeta(53, 0, -90))

	// Бревно по оси Y не меняется
	assert.Equal(t, uint8(1), reg.RotateMeta(17, 1, 90))
	assert.Equal(t, uint8(9), reg.RotateMeta(17, 5, 90))

	// Блок без таблицы поворота
	assert.Equal(t, uint8(3), reg.RotateMeta(1, 3, 90))
}

func TestLoadTableRejectsUnknownTag(t *testing.T) {
	_, err := LoadTable(strings.NewReader(`
blocks:
  - {id: 1, meta: 0, name: "minecraft:stone"}
tags:
  1: [bouncy]
`))
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	s := State{Name: "minecraft:oak_stairs", Properties: map[string]string{"half": "top", "facing": "east"}}

	assert.Equal(t, "minecraft:oak_stairs[facing=east,half=top]", StateString(s))
	assert.Equal(t, "minecraft:stone", StateString(State{Name: "minecraft:stone"}))
}
