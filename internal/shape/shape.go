// Package shape содержит разреженное представление набора вокселей:
// упорядоченный список (x, y, z, id, meta) с текущими границами.
// Используется для небольших и неправильных выделений.
package shape

import (
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
)

// Shape разреженный набор вокселей в мировых координатах.
// Повторная запись в ту же координату заменяет значение на месте,
// сохраняя порядок первой вставки.
type Shape struct {
	voxels []schematic.Voxel
	index  map[vec.Vec3]int
	min    vec.Vec3
	max    vec.Vec3
}

// New создаёт пустую фигуру
func New() *Shape {
	return &Shape{index: make(map[vec.Vec3]int)}
}

// Len возвращает число вокселей
func (s *Shape) Len() int {
	return len(s.voxels)
}

// Set записывает воксель. Воздух тоже хранится: это позволяет описать
// "вырезающую" фигуру.
func (s *Shape) Set(x, y, z int, id, meta uint8) {
	p := vec.Vec3{X: x, Y: y, Z: z}
	if i, ok := s.index[p]; ok {
		s.voxels[i].ID = id
		s.voxels[i].Meta = meta
		return
	}

	if len(s.voxels) == 0 {
		s.min, s.max = p, p
	} else {
		s.min = s.min.Min(p)
		s.max = s.max.Max(p)
	}
	s.index[p] = len(s.voxels)
	s.voxels = append(s.voxels, schematic.Voxel{X: x, Y: y, Z: z, ID: id, Meta: meta})
}

// Get возвращает блок по координате или воздух, если его нет в фигуре
func (s *Shape) Get(x, y, z int) block.Block {
	i, ok := s.index[vec.Vec3{X: x, Y: y, Z: z}]
	if !ok {
		return block.Air
	}
	v := s.voxels[i]
	return block.Block{ID: v.ID, Meta: v.Meta}
}

// Voxels возвращает воксели в порядке вставки (не копию)
func (s *Shape) Voxels() []schematic.Voxel {
	return s.voxels
}

// Bounds возвращает включительные границы. Для пустой фигуры false.
// Границы только растут.
func (s *Shape) Bounds() (schematic.Box, bool) {
	if len(s.voxels) == 0 {
		return schematic.Box{}, false
	}
	return schematic.Box{Min: s.min, Max: s.max}, true
}

// ToSchematic переносит фигуру в плотную сетку размером с границы.
// Привязка сетки равна минимальной границе. Пустая фигура даёт сетку 1x1x1.
func (s *Shape) ToSchematic() *schematic.Schematic {
	box, ok := s.Bounds()
	if !ok {
		return schematic.New(vec.Dims{X: 1, Y: 1, Z: 1})
	}

	out := schematic.New(box.Size())
	out.SetOffset(box.Min)
	local := make([]schematic.Voxel, len(s.voxels))
	for i, v := range s.voxels {
		local[i] = schematic.Voxel{X: v.X - box.Min.X, Y: v.Y - box.Min.Y, Z: v.Z - box.Min.Z, ID: v.ID, Meta: v.Meta}
	}
	out.SetArea(local)
	return out
}

// FromSchematic собирает фигуру из непустых вокселей сетки.
// Координаты переводятся в мировые через привязку сетки.
func FromSchematic(src *schematic.Schematic) *Shape {
	out := New()
	size := src.Size()
	off := src.Offset()
	ids, metas := src.IDs(), src.Metas()

	for i, id := range ids {
		if id == block.AirID {
			continue
		}
		p := size.Coord(i)
		out.Set(off.X+p.X, off.Y+p.Y, off.Z+p.Z, id, metas[i])
	}
	return out
}
