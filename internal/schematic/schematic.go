// Package schematic реализует плотную кубоидную сетку вокселей.
//
// Каждый воксель хранит пару (id, meta) в двух параллельных массивах байт.
// Все операции с координатами молча игнорируют выход за границы: чтение
// возвращает воздух, запись отбрасывается. Сетка не потокобезопасна и
// принадлежит одной сессии редактирования.
package schematic

import (
	"errors"
	"fmt"
	"maps"

	"github.com/annel0/voxelkit/internal/bitmask"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
	"github.com/google/uuid"
)

var (
	// ErrSizeMismatch возвращается, когда длина массивов не равна объёму сетки
	ErrSizeMismatch = errors.New("schematic: размер массивов не совпадает с объёмом")
	// ErrBadAngle возвращается для углов поворота, не кратных 90
	ErrBadAngle = errors.New("schematic: угол поворота должен быть кратен 90")
)

// ChangeObserver получает уведомления об изменениях "живой" сетки,
// подключённой к работающему приложению (рендер, сетевая синхронизация).
// Координаты локальные для сетки.
type ChangeObserver interface {
	BlockChanged(pos vec.Vec3)
	RegionChanged(min, max vec.Vec3)
}

// Voxel одна запись (x, y, z, id, meta) для пакетной записи
type Voxel struct {
	X, Y, Z int
	ID      uint8
	Meta    uint8
}

// Pos возвращает координату вокселя
func (v Voxel) Pos() vec.Vec3 {
	return vec.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Box включительный параллелепипед координат
type Box struct {
	Min vec.Vec3
	Max vec.Vec3
}

// Size возвращает размеры параллелепипеда
func (b Box) Size() vec.Dims {
	return vec.Dims{X: b.Max.X - b.Min.X + 1, Y: b.Max.Y - b.Min.Y + 1, Z: b.Max.Z - b.Min.Z + 1}
}

// Identity описательные метаданные схемы
type Identity struct {
	ID         uuid.UUID
	Name       string
	Author     string
	Format     string // исходный формат ("schematic", "region", ...)
	Materials  string // например "Alpha" для классических схем
	Spawn      vec.Vec3Float
	SpawnYaw   float64
	SpawnPitch float64
	Extra      map[string]string
}

func (id Identity) clone() Identity {
	c := id
	if id.Extra != nil {
		c.Extra = maps.Clone(id.Extra)
	}
	return c
}

// Schematic плотная сетка вокселей
type Schematic struct {
	size     vec.Dims
	ids      []uint8
	metas    []uint8
	offset   vec.Vec3 // мировая привязка, не влияет на индексацию
	mask     *bitmask.Mask
	identity Identity
	observer ChangeObserver
}

// New создаёт пустую (заполненную воздухом) сетку. Размеры меньше 1
// поднимаются до 1.
func New(size vec.Dims) *Schematic {
	size = normalizeDims(size)
	n := size.Volume()
	return &Schematic{
		size:     size,
		ids:      make([]uint8, n),
		metas:    make([]uint8, n),
		identity: Identity{ID: uuid.New()},
	}
}

// FromArrays создаёт сетку поверх готовых массивов без копирования.
// Используется парсерами форматов.
func FromArrays(size vec.Dims, ids, metas []uint8) (*Schematic, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("schematic: недопустимый размер %v", size)
	}
	n := size.Volume()
	if len(ids) != n || len(metas) != n {
		return nil, fmt.Errorf("%w: ids=%d meta=%d, ожидалось %d", ErrSizeMismatch, len(ids), len(metas), n)
	}
	return &Schematic{
		size:     size,
		ids:      ids,
		metas:    metas,
		identity: Identity{ID: uuid.New()},
	}, nil
}

func normalizeDims(d vec.Dims) vec.Dims {
	return vec.Dims{X: max(d.X, 1), Y: max(d.Y, 1), Z: max(d.Z, 1)}
}

// Size возвращает размеры сетки
func (s *Schematic) Size() vec.Dims {
	return s.size
}

// Offset возвращает мировую привязку
func (s *Schematic) Offset() vec.Vec3 {
	return s.offset
}

// SetOffset задаёт мировую привязку
func (s *Schematic) SetOffset(o vec.Vec3) {
	s.offset = o
}

// Identity возвращает изменяемые метаданные схемы
func (s *Schematic) Identity() *Identity {
	return &s.identity
}

// IDs возвращает массив идентификаторов (не копию)
func (s *Schematic) IDs() []uint8 {
	return s.ids
}

// Metas возвращает массив метаданных (не копию)
func (s *Schematic) Metas() []uint8 {
	return s.metas
}

// Mask возвращает подключённую маску или nil
func (s *Schematic) Mask() *bitmask.Mask {
	return s.mask
}

// AttachMask подключает пустую маску тех же размеров и возвращает её.
// Существующая маска сохраняется.
func (s *Schematic) AttachMask() *bitmask.Mask {
	if s.mask == nil {
		s.mask = bitmask.New(s.size.Volume())
	}
	return s.mask
}

// SetMask подключает готовую маску; маска другого размера отклоняется
func (s *Schematic) SetMask(m *bitmask.Mask) error {
	if m != nil && m.Len() != s.size.Volume() {
		return fmt.Errorf("%w: маска на %d бит, сетка на %d", ErrSizeMismatch, m.Len(), s.size.Volume())
	}
	s.mask = m
	return nil
}

// DetachMask отключает маску
func (s *Schematic) DetachMask() {
	s.mask = nil
}

// SetObserver делает сетку "живой": изменения будут отправляться наблюдателю.
// nil отключает уведомления.
func (s *Schematic) SetObserver(o ChangeObserver) {
	s.observer = o
}

// Get возвращает блок или воздух за пределами сетки
func (s *Schematic) Get(x, y, z int) block.Block {
	if !s.size.Contains(x, y, z) {
		return block.Air
	}
	i := s.size.Index(x, y, z)
	return block.Block{ID: s.ids[i], Meta: s.metas[i]}
}

// ID возвращает идентификатор блока или 0 за пределами сетки
func (s *Schematic) ID(x, y, z int) uint8 {
	if !s.size.Contains(x, y, z) {
		return block.AirID
	}
	return s.ids[s.size.Index(x, y, z)]
}

// Meta возвращает метаданные блока или 0 за пределами сетки
func (s *Schematic) Meta(x, y, z int) uint8 {
	if !s.size.Contains(x, y, z) {
		return 0
	}
	return s.metas[s.size.Index(x, y, z)]
}

// Set записывает блок. За пределами сетки ничего не делает.
// Если подключена маска, воксель помечается в ней.
func (s *Schematic) Set(x, y, z int, id, meta uint8) {
	if !s.set(x, y, z, id, meta) {
		return
	}
	if s.observer != nil {
		s.observer.BlockChanged(vec.Vec3{X: x, Y: y, Z: z})
	}
}

func (s *Schematic) set(x, y, z int, id, meta uint8) bool {
	if !s.size.Contains(x, y, z) {
		return false
	}
	i := s.size.Index(x, y, z)
	s.ids[i] = id
	s.metas[i] = meta
	if s.mask != nil {
		s.mask.Set(i, true)
	}
	return true
}

// SetArea пакетная версия Set. Наблюдатель получает одно уведомление
// о параллелепипеде, охватывающем все записанные воксели.
func (s *Schematic) SetArea(voxels []Voxel) int {
	var tr regionTracker
	for _, v := range voxels {
		if s.set(v.X, v.Y, v.Z, v.ID, v.Meta) {
			tr.add(v.X, v.Y, v.Z)
		}
	}
	s.notifyRegion(tr)
	return tr.count
}

// Fill заполняет включительный параллелепипед одним блоком
func (s *Schematic) Fill(from, to vec.Vec3, id, meta uint8) int {
	lo := s.size.Clamp(from.Min(to))
	hi := s.size.Clamp(from.Max(to))

	var tr regionTracker
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				if s.set(x, y, z, id, meta) {
					tr.add(x, y, z)
				}
			}
		}
	}
	s.notifyRegion(tr)
	return tr.count
}

// Count возвращает количество непустых вокселей
func (s *Schematic) Count() int {
	n := 0
	for _, id := range s.ids {
		if id != block.AirID {
			n++
		}
	}
	return n
}

// Clone создаёт глубокую копию массивов, привязки, маски и метаданных.
// Наблюдатель не копируется.
func (s *Schematic) Clone() *Schematic {
	c := &Schematic{
		size:     s.size,
		ids:      make([]uint8, len(s.ids)),
		metas:    make([]uint8, len(s.metas)),
		offset:   s.offset,
		identity: s.identity.clone(),
	}
	copy(c.ids, s.ids)
	copy(c.metas, s.metas)
	if s.mask != nil {
		c.mask = s.mask.Clone()
	}
	return c
}

// replace подменяет хранилище целиком (resize/trim/rotate)
func (s *Schematic) replace(size vec.Dims, ids, metas []uint8, mask *bitmask.Mask) {
	s.size = size
	s.ids = ids
	s.metas = metas
	s.mask = mask
	if s.observer != nil {
		s.observer.RegionChanged(vec.Vec3{}, vec.Vec3{X: size.X - 1, Y: size.Y - 1, Z: size.Z - 1})
	}
}

func (s *Schematic) notifyRegion(tr regionTracker) {
	if s.observer == nil || tr.count == 0 {
		return
	}
	s.observer.RegionChanged(tr.min, tr.max)
}

// regionTracker накапливает охватывающий параллелепипед изменений
type regionTracker struct {
	min, max vec.Vec3
	count    int
}

func (t *regionTracker) add(x, y, z int) {
	p := vec.Vec3{X: x, Y: y, Z: z}
	if t.count == 0 {
		t.min, t.max = p, p
	} else {
		t.min = t.min.Min(p)
		t.max = t.max.Max(p)
	}
	t.count++
}
