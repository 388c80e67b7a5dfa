package world

import (
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
)

// ChunkSize длина ребра чанка в блоках
const ChunkSize = 16

// chunkDims размеры любого чанка мира
var chunkDims = vec.Dims{X: ChunkSize, Y: ChunkSize, Z: ChunkSize}

// ChunkKey пространственный хеш координаты чанка.
// Хеш не уникален: разные координаты могут совпасть, поэтому карта чанков
// хранит под одним ключом список пар (координата, чанк).
type ChunkKey int64

// KeyOf считает ChunkKey как ((5519*3779+cx)*3779+cy)*3779+cz
// с переполнением int64.
func KeyOf(c vec.Vec3) ChunkKey {
	h := int64(5519) * 3779
	h += int64(c.X)
	h *= 3779
	h += int64(c.Y)
	h *= 3779
	h += int64(c.Z)
	return ChunkKey(h)
}

// bucketEntry чанк вместе с его точной координатой
type bucketEntry struct {
	coord vec.Vec3
	chunk *schematic.Schematic
}

// NewChunk создаёт пустой чанк 16³ с привязкой к мировому началу чанка
func NewChunk(c vec.Vec3) *schematic.Schematic {
	chunk := schematic.New(chunkDims)
	chunk.SetOffset(c.ChunkOrigin())
	chunk.Identity().Format = "chunk"
	return chunk
}

// IsChunkShaped сообщает, подходит ли сетка на роль чанка
func IsChunkShaped(s *schematic.Schematic) bool {
	return s != nil && s.Size() == chunkDims
}
