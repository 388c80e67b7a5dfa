package schematic

import (
	"math"

	"github.com/annel0/voxelkit/internal/bitmask"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
)

// BoundingBox возвращает наименьший параллелепипед с непустыми вокселями.
// Каждая из шести граней ищется отдельным сканированием от края внутрь,
// которое останавливается на первом найденном непустом вокселе.
// Для сетки из одного воздуха возвращает false.
func (s *Schematic) BoundingBox() (Box, bool) {
	d := s.size
	var box Box
	found := false

	// minX
	for x := 0; x < d.X && !found; x++ {
		for y := 0; y < d.Y && !found; y++ {
			for z := 0; z < d.Z; z++ {
				if s.ids[d.Index(x, y, z)] != block.AirID {
					box.Min.X = x
					found = true
					break
				}
			}
		}
	}
	if !found {
		return Box{}, false
	}

	// maxX
	found = false
	for x := d.X - 1; x >= 0 && !found; x-- {
		for y := 0; y < d.Y && !found; y++ {
			for z := 0; z < d.Z; z++ {
				if s.ids[d.Index(x, y, z)] != block.AirID {
					box.Max.X = x
					found = true
					break
				}
			}
		}
	}

	// minY
	found = false
	for y := 0; y < d.Y && !found; y++ {
		for z := 0; z < d.Z && !found; z++ {
			for x := 0; x < d.X; x++ {
				if s.ids[d.Index(x, y, z)] != block.AirID {
					box.Min.Y = y
					found = true
					break
				}
			}
		}
	}

	// maxY
	found = false
	for y := d.Y - 1; y >= 0 && !found; y-- {
		for z := 0; z < d.Z && !found; z++ {
			for x := 0; x < d.X; x++ {
				if s.ids[d.Index(x, y, z)] != block.AirID {
					box.Max.Y = y
					found = true
					break
				}
			}
		}
	}

	// minZ
	found = false
	for z := 0; z < d.Z && !found; z++ {
		for y := 0; y < d.Y && !found; y++ {
			for x := 0; x < d.X; x++ {
				if s.ids[d.Index(x, y, z)] != block.AirID {
					box.Min.Z = z
					found = true
					break
				}
			}
		}
	}

	// maxZ
	found = false
	for z := d.Z - 1; z >= 0 && !found; z-- {
		for y := 0; y < d.Y && !found; y++ {
			for x := 0; x < d.X; x++ {
				if s.ids[d.Index(x, y, z)] != block.AirID {
					box.Max.Z = z
					found = true
					break
				}
			}
		}
	}

	return box, true
}

// Trim обрезает сетку до BoundingBox. Привязка смещается на минимальный угол
// рамки, чтобы мировые позиции вокселей не изменились. Возвращает false, если
// обрезать нечего (сетка пуста или уже совпадает с рамкой).
func (s *Schematic) Trim() bool {
	box, ok := s.BoundingBox()
	if !ok {
		return false
	}
	size := box.Size()
	if size == s.size {
		return false
	}

	n := size.Volume()
	ids := make([]uint8, n)
	metas := make([]uint8, n)
	var mask *bitmask.Mask
	if s.mask != nil {
		mask = bitmask.New(n)
	}

	for y := 0; y < size.Y; y++ {
		for z := 0; z < size.Z; z++ {
			for x := 0; x < size.X; x++ {
				src := s.size.Index(x+box.Min.X, y+box.Min.Y, z+box.Min.Z)
				dst := size.Index(x, y, z)
				ids[dst] = s.ids[src]
				metas[dst] = s.metas[src]
				if mask != nil {
					mask.Set(dst, s.mask.Get(src))
				}
			}
		}
	}

	s.offset = s.offset.Add(box.Min)
	s.replace(size, ids, metas, mask)
	return true
}

// Resize меняет размеры сетки. anchor для каждой оси задаёт, куда прижать
// старое содержимое: 0 прижимает к минимуму, 0.5 центрирует, 1 прижимает к максимуму.
// Сдвиг округляется вниз. Привязка компенсирует сдвиг.
func (s *Schematic) Resize(size vec.Dims, anchor [3]float64) {
	size = normalizeDims(size)
	shift := vec.Vec3{
		X: anchorShift(s.size.X, size.X, anchor[0]),
		Y: anchorShift(s.size.Y, size.Y, anchor[1]),
		Z: anchorShift(s.size.Z, size.Z, anchor[2]),
	}

	n := size.Volume()
	ids := make([]uint8, n)
	metas := make([]uint8, n)
	var mask *bitmask.Mask
	if s.mask != nil {
		mask = bitmask.New(n)
	}

	for y := 0; y < s.size.Y; y++ {
		ty := y + shift.Y
		if ty < 0 || ty >= size.Y {
			continue
		}
		for z := 0; z < s.size.Z; z++ {
			tz := z + shift.Z
			if tz < 0 || tz >= size.Z {
				continue
			}
			for x := 0; x < s.size.X; x++ {
				tx := x + shift.X
				if tx < 0 || tx >= size.X {
					continue
				}
				src := s.size.Index(x, y, z)
				dst := size.Index(tx, ty, tz)
				ids[dst] = s.ids[src]
				metas[dst] = s.metas[src]
				if mask != nil {
					mask.Set(dst, s.mask.Get(src))
				}
			}
		}
	}

	s.offset = s.offset.Sub(shift)
	s.replace(size, ids, metas, mask)
}

func anchorShift(oldSize, newSize int, anchor float64) int {
	return int(math.Floor(float64(newSize-oldSize) * anchor))
}
