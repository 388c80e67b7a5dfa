package world

import (
	"slices"
	"sync"

	"github.com/annel0/voxelkit/internal/vec"
)

// ChangeTracker накапливает координаты изменённых чанков между сбросами.
// Подключается к миру через WithObserver; безопасен для чтения из другой
// горутины, пока мир меняется.
type ChangeTracker struct {
	mu      sync.Mutex
	dirty   map[vec.Vec3]uint64 // координаты чанка -> версия последнего изменения
	version uint64
}

// NewChangeTracker создаёт пустой трекер
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{dirty: make(map[vec.Vec3]uint64)}
}

// BlockChanged отмечает чанк, содержащий блок pos (мировые координаты)
func (t *ChangeTracker) BlockChanged(pos vec.Vec3) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.version++
	t.dirty[pos.ChunkCoords()] = t.version
}

// RegionChanged отмечает все чанки, пересекающие включительную область
func (t *ChangeTracker) RegionChanged(min, max vec.Vec3) {
	lo := min.Min(max).ChunkCoords()
	hi := min.Max(max).ChunkCoords()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.version++
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cz := lo.Z; cz <= hi.Z; cz++ {
			for cx := lo.X; cx <= hi.X; cx++ {
				t.dirty[vec.Vec3{X: cx, Y: cy, Z: cz}] = t.version
			}
		}
	}
}

// Version возвращает номер последнего изменения
func (t *ChangeTracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Pending возвращает число изменённых чанков
func (t *ChangeTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dirty)
}

// Take забирает отсортированный список изменённых чанков и очищает трекер
func (t *ChangeTracker) Take() []vec.Vec3 {
	t.mu.Lock()
	out := make([]vec.Vec3, 0, len(t.dirty))
	for c := range t.dirty {
		out = append(out, c)
	}
	t.dirty = make(map[vec.Vec3]uint64)
	t.mu.Unlock()

	slices.SortFunc(out, compareCoords)
	return out
}
