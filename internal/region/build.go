package region

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/voxelkit/internal/palette"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
)

// firstDataSector первые два сектора заняты заголовком
const firstDataSector = HeaderSize / SectorSize

// BuildChunk собирает документ колонки (cx, cz) в старой раскладке
// Level.Sections со сквозной упаковкой. Пустые секции не пишутся.
// Возвращает несжатый документ.
func BuildChunk(w *world.World, cx, cz int, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	doc := legacyChunk{
		DataVersion: LegacyDataVersion,
		Level: legacyLevel{
			XPos:     int32(cx),
			ZPos:     int32(cz),
			Status:   "full",
			Sections: []legacySection{},
		},
	}

	for _, y := range w.Column(cx, cz) {
		if y < math.MinInt8 || y > math.MaxInt8 || y == absentSectionY {
			opts.Logger.Warn("⚠️ Секция (%d,%d,%d) вне диапазона формата, пропущена", cx, y, cz)
			continue
		}
		chunk := w.Chunk(vec.Vec3{X: cx, Y: y, Z: cz})
		sec, unknown := palette.Build(chunk.IDs(), chunk.Metas(), opts.Registry)
		for _, b := range unknown {
			opts.Logger.Debug("Блок %d:%d без состояния записан как воздух", b.ID, b.Meta)
		}
		if sec.IsEmpty(opts.Registry) {
			continue
		}

		words := palette.PackWords(sec.Indices, sec.BitWidth())
		doc.Level.Sections = append(doc.Level.Sections, legacySection{
			Y:           int8(y),
			Palette:     sec.Palette,
			BlockStates: palette.LongsFromWords(words),
		})
	}

	data, err := nbt.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("region: запись документа чанка (%d,%d): %w", cx, cz, err)
	}
	return data, nil
}

// chunkPayload собирает и сжимает колонку: байт метода сжатия и данные,
// то есть всё, что лежит в секторах после поля длины
func chunkPayload(w *world.World, col vec.Vec2, compression Compression, opts Options) ([]byte, error) {
	doc, err := BuildChunk(w, col.X, col.Z, opts)
	if err != nil {
		return nil, err
	}
	data, err := Compress(compression, doc)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 1+len(data))
	payload[0] = byte(compression)
	copy(payload[1:], data)
	return payload, nil
}

// BuildRegionFile собирает файл региона (rx, rz) из всех колонок мира,
// попадающих в регион. Сектора выделяются подряд после заголовка.
func BuildRegionFile(w *world.World, rx, rz int, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	compression := opts.compression()

	var h Header
	out := make([]byte, HeaderSize)
	next := firstDataSector
	now := uint32(time.Now().Unix())

	for _, col := range regionColumns(w, rx, rz) {
		payload, err := chunkPayload(w, col, compression, opts)
		if err != nil {
			return nil, err
		}

		size := 4 + len(payload)
		sectors := (size + SectorSize - 1) / SectorSize
		if sectors > MaxSectors {
			return nil, fmt.Errorf("region: чанк (%d,%d) занимает %d секторов, максимум %d", col.X, col.Z, sectors, MaxSectors)
		}

		block := make([]byte, sectors*SectorSize)
		binary.BigEndian.PutUint32(block, uint32(len(payload)))
		copy(block[4:], payload)
		out = append(out, block...)

		h[col.RegionSlot()] = Entry{Offset: uint32(next), Sectors: uint8(sectors), Timestamp: now}
		next += sectors
		opts.Metrics.ChunkWritten()
	}

	h.put(out)
	return out, nil
}

// regionColumns возвращает колонки мира внутри региона в порядке ячеек
func regionColumns(w *world.World, rx, rz int) []vec.Vec2 {
	region := vec.Vec2{X: rx, Z: rz}
	var present [Entries]bool
	for _, c := range w.ChunkCoords() {
		col := c.Column()
		if col.ToRegionCoords() == region {
			present[col.RegionSlot()] = true
		}
	}

	var cols []vec.Vec2
	for slot, ok := range present {
		if ok {
			lx, lz := SlotColumn(slot)
			cols = append(cols, vec.Vec2{X: rx*32 + lx, Z: rz*32 + lz})
		}
	}
	return cols
}

// Regions возвращает регионы, в которых у мира есть чанки
func Regions(w *world.World) []vec.Vec2 {
	seen := make(map[vec.Vec2]bool)
	var out []vec.Vec2
	for _, c := range w.ChunkCoords() {
		r := c.Column().ToRegionCoords()
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
