package schematic

import (
	"github.com/annel0/voxelkit/internal/bitmask"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
)

// InsertOptions управляет тем, какие воксели источника копируются
type InsertOptions struct {
	// IncludeAir копирует и воздух, затирая содержимое приёмника
	IncludeAir bool
	// UseMask ограничивает копирование вокселями, отмеченными в маске
	// источника (включая воздух). Без маски у источника флаг не действует.
	UseMask bool
}

// Insert копирует воксели src в эту сетку. Воксель src с локальной
// координатой p попадает в точку src.Offset()+at+p. Всё, что выходит за
// границы приёмника, пропускается; целые строки вне границ отбрасываются
// до внутреннего цикла. Данные всегда копируются, а не разделяются.
// Возвращает количество записанных вокселей.
func (s *Schematic) Insert(src *Schematic, at vec.Vec3, opts InsertOptions) int {
	base := src.offset.Add(at)
	useMask := opts.UseMask && src.mask != nil

	var tr regionTracker
	for y := 0; y < src.size.Y; y++ {
		ty := base.Y + y
		if ty < 0 || ty >= s.size.Y {
			continue
		}
		for z := 0; z < src.size.Z; z++ {
			tz := base.Z + z
			if tz < 0 || tz >= s.size.Z {
				continue
			}
			for x := 0; x < src.size.X; x++ {
				tx := base.X + x
				if tx < 0 || tx >= s.size.X {
					continue
				}
				i := src.size.Index(x, y, z)
				if useMask {
					if !src.mask.Get(i) {
						continue
					}
				} else if !opts.IncludeAir && src.ids[i] == block.AirID {
					continue
				}
				s.set(tx, ty, tz, src.ids[i], src.metas[i])
				tr.add(tx, ty, tz)
			}
		}
	}

	s.notifyRegion(tr)
	return tr.count
}

// Extract копирует включительный диапазон [start, end] в новую сетку.
// Углы можно передавать в любом порядке. Новая сетка живёт в собственных
// локальных координатах с нулевой привязкой, поэтому
// Insert(extracted, min(start, end), ...) возвращает данные на место.
// Если useMask и у сетки есть маска, копируются и её биты.
func (s *Schematic) Extract(start, end vec.Vec3, useMask bool) *Schematic {
	lo := start.Min(end)
	hi := start.Max(end)
	size := vec.Dims{X: hi.X - lo.X + 1, Y: hi.Y - lo.Y + 1, Z: hi.Z - lo.Z + 1}

	out := New(size)
	out.identity.Name = s.identity.Name
	out.identity.Author = s.identity.Author
	out.identity.Format = s.identity.Format
	out.identity.Materials = s.identity.Materials

	copyMask := useMask && s.mask != nil
	if copyMask {
		out.mask = bitmask.New(size.Volume())
	}

	for y := 0; y < size.Y; y++ {
		sy := lo.Y + y
		for z := 0; z < size.Z; z++ {
			sz := lo.Z + z
			for x := 0; x < size.X; x++ {
				sx := lo.X + x
				if !s.size.Contains(sx, sy, sz) {
					continue
				}
				src := s.size.Index(sx, sy, sz)
				dst := size.Index(x, y, z)
				out.ids[dst] = s.ids[src]
				out.metas[dst] = s.metas[src]
				if copyMask {
					out.mask.Set(dst, s.mask.Get(src))
				}
			}
		}
	}

	return out
}
