// Package world реализует неограниченное хранилище вокселей из чанков 16³,
// индексированных хешем координаты чанка.
//
// Мир не потокобезопасен: им владеет одна сессия редактирования.
// Чанки, отданные наружу через Chunk, предназначены для чтения; изменения
// проводятся через SetBlock.
package world

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world/block"
)

// Option настраивает World при создании
type Option func(*World)

// WithGenerator подключает генератор чанков
func WithGenerator(g Generator) Option {
	return func(w *World) {
		w.generator = g
	}
}

// WithMasks включает маску у каждого нового чанка. Маска отмечает воксели,
// записанные через SetBlock, и позволяет вставлять только их.
func WithMasks() Option {
	return func(w *World) {
		w.masks = true
	}
}

// WithObserver подключает наблюдателя изменений. Координаты в уведомлениях
// мировые.
func WithObserver(o schematic.ChangeObserver) Option {
	return func(w *World) {
		w.observer = o
	}
}

// World хранилище чанков
type World struct {
	buckets   map[ChunkKey][]bucketEntry
	count     int
	min, max  vec.Vec3 // границы в координатах чанков, только растут
	hasBounds bool
	generator Generator
	masks     bool
	observer  schematic.ChangeObserver
}

// New создаёт пустой мир
func New(opts ...Option) *World {
	w := &World{buckets: make(map[ChunkKey][]bucketEntry)}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Len возвращает количество материализованных чанков
func (w *World) Len() int {
	return w.count
}

// Chunk возвращает чанк по координате чанка или nil
func (w *World) Chunk(c vec.Vec3) *schematic.Schematic {
	for _, e := range w.buckets[KeyOf(c)] {
		if e.coord == c {
			return e.chunk
		}
	}
	return nil
}

// HasChunk сообщает, материализован ли чанк
func (w *World) HasChunk(c vec.Vec3) bool {
	return w.Chunk(c) != nil
}

// EnsureChunk возвращает существующий чанк; иначе создаёт новый и, если
// генератор берётся за эту координату, заполняет его генератором.
func (w *World) EnsureChunk(c vec.Vec3) *schematic.Schematic {
	if chunk := w.Chunk(c); chunk != nil {
		return chunk
	}

	chunk := w.newChunk(c)
	if w.generator != nil && w.generator.CanGenerate(c) {
		w.generator.Generate(c, chunk)
	}
	w.insert(c, chunk)
	return chunk
}

// PutChunk заменяет чанк целиком. Сетка должна быть 16³; её привязка
// выставляется на мировое начало чанка.
func (w *World) PutChunk(c vec.Vec3, chunk *schematic.Schematic) error {
	if !IsChunkShaped(chunk) {
		var size vec.Dims
		if chunk != nil {
			size = chunk.Size()
		}
		return fmt.Errorf("world: чанк %v должен быть 16x16x16, получено %v", c, size)
	}
	chunk.SetOffset(c.ChunkOrigin())
	if w.masks && chunk.Mask() == nil {
		chunk.AttachMask()
	}

	key := KeyOf(c)
	bucket := w.buckets[key]
	for i := range bucket {
		if bucket[i].coord == c {
			bucket[i].chunk = chunk
			w.notifyChunk(c)
			return nil
		}
	}
	w.insert(c, chunk)
	w.notifyChunk(c)
	return nil
}

// RemoveChunk удаляет чанк. Границы мира при этом не сжимаются.
func (w *World) RemoveChunk(c vec.Vec3) bool {
	key := KeyOf(c)
	bucket := w.buckets[key]
	for i := range bucket {
		if bucket[i].coord != c {
			continue
		}
		bucket = slices.Delete(bucket, i, i+1)
		if len(bucket) == 0 {
			delete(w.buckets, key)
		} else {
			w.buckets[key] = bucket
		}
		w.count--
		return true
	}
	return false
}

// Bounds возвращает границы в координатах чанков по всем когда-либо
// добавленным чанкам. Удаление чанков их не уменьшает.
func (w *World) Bounds() (min, max vec.Vec3, ok bool) {
	return w.min, w.max, w.hasBounds
}

// GetBlock читает блок по мировой координате. Отсутствующий чанк не
// создаётся и читается как воздух.
func (w *World) GetBlock(x, y, z int) block.Block {
	p := vec.Vec3{X: x, Y: y, Z: z}
	chunk := w.Chunk(p.ChunkCoords())
	if chunk == nil {
		return block.Air
	}
	l := p.LocalInChunk()
	return chunk.Get(l.X, l.Y, l.Z)
}

// SetBlock записывает блок по мировой координате, создавая чанк при
// необходимости
func (w *World) SetBlock(x, y, z int, id, meta uint8) {
	p := vec.Vec3{X: x, Y: y, Z: z}
	chunk := w.EnsureChunk(p.ChunkCoords())
	l := p.LocalInChunk()
	chunk.Set(l.X, l.Y, l.Z, id, meta)
	if w.observer != nil {
		w.observer.BlockChanged(p)
	}
}

// ChunkCoords возвращает координаты всех чанков, отсортированные
// по X, затем Z, затем Y
func (w *World) ChunkCoords() []vec.Vec3 {
	out := make([]vec.Vec3, 0, w.count)
	for _, bucket := range w.buckets {
		for _, e := range bucket {
			out = append(out, e.coord)
		}
	}
	slices.SortFunc(out, compareCoords)
	return out
}

// Column возвращает отсортированные Y всех чанков колонки (cx, cz)
func (w *World) Column(cx, cz int) []int {
	var ys []int
	for _, bucket := range w.buckets {
		for _, e := range bucket {
			if e.coord.X == cx && e.coord.Z == cz {
				ys = append(ys, e.coord.Y)
			}
		}
	}
	slices.Sort(ys)
	return ys
}

// ExtractBox копирует включительный параллелепипед мировых координат в новую
// сетку с привязкой в минимальном углу. Отсутствующие чанки читаются как
// воздух и не создаются.
func (w *World) ExtractBox(from, to vec.Vec3) *schematic.Schematic {
	lo := from.Min(to)
	hi := from.Max(to)
	out := schematic.New(vec.Dims{X: hi.X - lo.X + 1, Y: hi.Y - lo.Y + 1, Z: hi.Z - lo.Z + 1})

	clo := lo.ChunkCoords()
	chi := hi.ChunkCoords()
	at := vec.Vec3{}.Sub(lo)
	for cy := clo.Y; cy <= chi.Y; cy++ {
		for cz := clo.Z; cz <= chi.Z; cz++ {
			for cx := clo.X; cx <= chi.X; cx++ {
				chunk := w.Chunk(vec.Vec3{X: cx, Y: cy, Z: cz})
				if chunk == nil {
					continue
				}
				out.Insert(chunk, at, schematic.InsertOptions{IncludeAir: true})
			}
		}
	}

	out.SetOffset(lo)
	return out
}

// Paste записывает непустые воксели сетки в мир по её привязке плюс at
func (w *World) Paste(src *schematic.Schematic, at vec.Vec3) int {
	size := src.Size()
	base := src.Offset().Add(at)
	ids, metas := src.IDs(), src.Metas()

	n := 0
	for i, id := range ids {
		if id == block.AirID {
			continue
		}
		p := base.Add(size.Coord(i))
		chunk := w.EnsureChunk(p.ChunkCoords())
		l := p.LocalInChunk()
		chunk.Set(l.X, l.Y, l.Z, id, metas[i])
		n++
	}

	if w.observer != nil && n > 0 {
		w.observer.RegionChanged(base, base.Add(vec.Vec3{X: size.X - 1, Y: size.Y - 1, Z: size.Z - 1}))
	}
	return n
}

func (w *World) newChunk(c vec.Vec3) *schematic.Schematic {
	chunk := NewChunk(c)
	if w.masks {
		chunk.AttachMask()
	}
	return chunk
}

// insert добавляет новый чанк и расширяет границы
func (w *World) insert(c vec.Vec3, chunk *schematic.Schematic) {
	key := KeyOf(c)
	w.buckets[key] = append(w.buckets[key], bucketEntry{coord: c, chunk: chunk})
	w.count++

	if !w.hasBounds {
		w.min, w.max = c, c
		w.hasBounds = true
		return
	}
	w.min = w.min.Min(c)
	w.max = w.max.Max(c)
}

func (w *World) notifyChunk(c vec.Vec3) {
	if w.observer == nil {
		return
	}
	o := c.ChunkOrigin()
	w.observer.RegionChanged(o, o.Add(vec.Vec3{X: ChunkSize - 1, Y: ChunkSize - 1, Z: ChunkSize - 1}))
}

func compareCoords(a, b vec.Vec3) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Z, b.Z); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}
