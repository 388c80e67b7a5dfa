package schematic

import (
	"fmt"

	"github.com/annel0/voxelkit/internal/bitmask"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
)

// Axis ось поворота
type Axis uint8

const (
	AxisX Axis = iota
	AxisY      // вертикальная ось
	AxisZ
)

// String возвращает имя оси
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// ParseAxis разбирает имя оси
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("schematic: неизвестная ось %q", s)
}

// remapFunc переводит координату исходной сетки размера d в координату
// повёрнутой сетки
type remapFunc func(p vec.Vec3, d vec.Dims) vec.Vec3

// rotation описывает одну комбинацию ось×угол
type rotation struct {
	dims  func(d vec.Dims) vec.Dims
	remap remapFunc
}

func keepDims(d vec.Dims) vec.Dims { return d }

// rotations[axis][angle/90-1]
var rotations = [3][3]rotation{
	AxisX: {
		{ // 90
			dims:  func(d vec.Dims) vec.Dims { return vec.Dims{X: d.X, Y: d.Z, Z: d.Y} },
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: p.X, Y: d.Z - 1 - p.Z, Z: p.Y} },
		},
		{ // 180
			dims:  keepDims,
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: p.X, Y: d.Y - 1 - p.Y, Z: d.Z - 1 - p.Z} },
		},
		{ // 270
			dims:  func(d vec.Dims) vec.Dims { return vec.Dims{X: d.X, Y: d.Z, Z: d.Y} },
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: p.X, Y: p.Z, Z: d.Y - 1 - p.Y} },
		},
	},
	AxisY: {
		{ // 90
			dims:  func(d vec.Dims) vec.Dims { return vec.Dims{X: d.Z, Y: d.Y, Z: d.X} },
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: d.Z - 1 - p.Z, Y: p.Y, Z: p.X} },
		},
		{ // 180
			dims:  keepDims,
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: d.X - 1 - p.X, Y: p.Y, Z: d.Z - 1 - p.Z} },
		},
		{ // 270
			dims:  func(d vec.Dims) vec.Dims { return vec.Dims{X: d.Z, Y: d.Y, Z: d.X} },
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: p.Z, Y: p.Y, Z: d.X - 1 - p.X} },
		},
	},
	AxisZ: {
		{ // 90
			dims:  func(d vec.Dims) vec.Dims { return vec.Dims{X: d.Y, Y: d.X, Z: d.Z} },
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: d.Y - 1 - p.Y, Y: p.X, Z: p.Z} },
		},
		{ // 180
			dims:  keepDims,
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: d.X - 1 - p.X, Y: d.Y - 1 - p.Y, Z: p.Z} },
		},
		{ // 270
			dims:  func(d vec.Dims) vec.Dims { return vec.Dims{X: d.Y, Y: d.X, Z: d.Z} },
			remap: func(p vec.Vec3, d vec.Dims) vec.Vec3 { return vec.Vec3{X: p.Y, Y: d.X - 1 - p.X, Z: p.Z} },
		},
	},
}

// Rotate поворачивает сетку вокруг оси на 90, 180 или 270 градусов
// (допускаются любые кратные 90 значения, в том числе отрицательные;
// полный оборот ничего не делает). При повороте вокруг вертикальной оси
// метаданные каждого вокселя проходят через reg.RotateMeta, так как
// обычно кодируют направление. reg может быть nil.
func (s *Schematic) Rotate(axis Axis, angle int, reg block.Registry) error {
	if angle%90 != 0 {
		return fmt.Errorf("%w: %d", ErrBadAngle, angle)
	}
	if axis > AxisZ {
		return fmt.Errorf("schematic: неизвестная ось %d", axis)
	}
	angle = ((angle % 360) + 360) % 360
	if angle == 0 {
		return nil
	}

	rot := rotations[axis][angle/90-1]
	size := rot.dims(s.size)

	n := size.Volume()
	ids := make([]uint8, n)
	metas := make([]uint8, n)
	var mask *bitmask.Mask
	if s.mask != nil {
		mask = bitmask.New(n)
	}

	fixMeta := axis == AxisY && reg != nil
	for i := range s.ids {
		p := rot.remap(s.size.Coord(i), s.size)
		dst := size.Index(p.X, p.Y, p.Z)
		ids[dst] = s.ids[i]
		meta := s.metas[i]
		if fixMeta && s.ids[i] != block.AirID {
			meta = reg.RotateMeta(s.ids[i], meta, angle)
		}
		metas[dst] = meta
		if mask != nil {
			mask.Set(dst, s.mask.Get(i))
		}
	}

	s.replace(size, ids, metas, mask)
	return nil
}
