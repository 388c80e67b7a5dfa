package region

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/voxelkit/internal/logging"
	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/annel0/voxelkit/internal/palette"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
	"github.com/annel0/voxelkit/internal/world/block"
)

// Options зависимости чтения и записи регионов
type Options struct {
	Registry block.Registry
	// Sentinel подставляется вместо неизвестных состояний палитры
	Sentinel block.Block
	// Compression используется при записи
	Compression Compression
	Logger      *logging.Logger
	Metrics     *metrics.Collector
}

// ErrNoRegistry: в Options не задан реестр блоков
var ErrNoRegistry = errors.New("region: не задан реестр блоков")

func (o Options) validate() error {
	if o.Registry == nil {
		return ErrNoRegistry
	}
	return nil
}

// compression возвращает метод сжатия для записи, по умолчанию zlib
func (o Options) compression() Compression {
	if o.Compression == 0 {
		return CompressionZlib
	}
	return o.Compression
}

// ChunkError описывает чанк, который не удалось прочитать
type ChunkError struct {
	Slot int
	Err  error
}

func (e ChunkError) Error() string {
	lx, lz := SlotColumn(e.Slot)
	return fmt.Sprintf("чанк %d (%d,%d): %v", e.Slot, lx, lz, e.Err)
}

func (e ChunkError) Unwrap() error {
	return e.Err
}

// Summary итог чтения файла
type Summary struct {
	Succeeded       int
	MissingStates   []string // уникальные, в порядке появления
	FailedChunks    []ChunkError
	SkippedSections int
}

// Merge добавляет итог другого файла
func (s *Summary) Merge(other Summary) {
	s.Succeeded += other.Succeeded
	s.SkippedSections += other.SkippedSections
	s.FailedChunks = append(s.FailedChunks, other.FailedChunks...)

	seen := make(map[string]bool, len(s.MissingStates))
	for _, m := range s.MissingStates {
		seen[m] = true
	}
	for _, m := range other.MissingStates {
		if !seen[m] {
			seen[m] = true
			s.MissingStates = append(s.MissingStates, m)
		}
	}
}

// LoadChunk находит ячейку slot и возвращает распакованный документ чанка.
// Для пустой ячейки возвращает nil без ошибки.
func LoadChunk(data []byte, slot int) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d байт из %d", ErrTruncatedHeader, len(data), HeaderSize)
	}
	if slot < 0 || slot >= Entries {
		return nil, fmt.Errorf("region: ячейка %d вне заголовка", slot)
	}

	e := entryAt(data, slot)
	if !e.Present() {
		return nil, nil
	}

	off := e.ByteOffset()
	if off < HeaderSize || off+5 > len(data) {
		return nil, fmt.Errorf("%w: смещение %d, файл %d байт", ErrChunkOutOfFile, off, len(data))
	}

	length := int(binary.BigEndian.Uint32(data[off:]))
	if length < 1 || off+4+length > len(data) {
		return nil, fmt.Errorf("%w: длина %d по смещению %d", ErrChunkOutOfFile, length, off)
	}

	c := Compression(data[off+4])
	return Decompress(c, data[off+5:off+4+length])
}

// Decode читает все чанки файла в мир. Ошибка возвращается только для
// обрезанного заголовка или Options без реестра; сбои отдельных чанков
// попадают в Summary.
func Decode(data []byte, w *world.World, opts Options) (Summary, error) {
	var sum Summary
	if err := opts.validate(); err != nil {
		return sum, err
	}
	h, err := ParseHeader(data)
	if err != nil {
		return sum, err
	}

	seen := make(map[string]bool)
	for _, slot := range h.Populated() {
		doc, err := LoadChunk(data, slot)
		if err == nil {
			var res chunkResult
			res, err = decodeChunk(doc, w, opts)
			sum.SkippedSections += res.skipped
			for _, m := range res.missing {
				if !seen[m] {
					seen[m] = true
					sum.MissingStates = append(sum.MissingStates, m)
					opts.Logger.Debug("Неизвестное состояние блока: %s", m)
				}
			}
			opts.Metrics.MissingStates(len(res.missing))
		}
		if err != nil {
			opts.Logger.Warn("⚠️ Чанк в ячейке %d пропущен: %v", slot, err)
			opts.Metrics.ChunkFailed()
			sum.FailedChunks = append(sum.FailedChunks, ChunkError{Slot: slot, Err: err})
			continue
		}
		sum.Succeeded++
		opts.Metrics.ChunkDecoded()
	}

	return sum, nil
}

type chunkResult struct {
	missing []string
	skipped int
}

// decodeChunk разбирает документ и кладёт секции в мир. Секции сначала
// собираются целиком, чтобы ошибка не оставила чанк записанным наполовину.
func decodeChunk(doc []byte, w *world.World, opts Options) (chunkResult, error) {
	var res chunkResult
	var d chunkDocument
	if err := nbt.Unmarshal(doc, &d); err != nil {
		return res, fmt.Errorf("разбор документа: %w", err)
	}

	cx, cz, sections, legacy := d.sections()

	type built struct {
		coord vec.Vec3
		ids   []uint8
		metas []uint8
	}
	var ready []built

	for _, s := range sections {
		if (legacy && s.Y == absentSectionY) || len(s.Palette) == 0 {
			res.skipped++
			opts.Metrics.SectionSkipped()
			continue
		}

		indices, err := unpackSection(s)
		if err != nil {
			return res, fmt.Errorf("секция %d: %w", s.Y, err)
		}

		resolved, missing := palette.Resolve(s.Palette, opts.Registry, opts.Sentinel)
		res.missing = append(res.missing, missing...)

		ids := make([]uint8, palette.SectionVolume)
		metas := make([]uint8, palette.SectionVolume)
		if bad := palette.Expand(indices, resolved, ids, metas); bad > 0 {
			opts.Logger.Debug("Секция (%d,%d,%d): %d индексов вне палитры", cx, s.Y, cz, bad)
		}
		ready = append(ready, built{coord: vec.Vec3{X: cx, Y: s.Y, Z: cz}, ids: ids, metas: metas})
	}

	for _, b := range ready {
		chunk := world.NewChunk(b.coord)
		copy(chunk.IDs(), b.ids)
		copy(chunk.Metas(), b.metas)
		if err := w.PutChunk(b.coord, chunk); err != nil {
			return res, err
		}
	}
	return res, nil
}

// unpackSection выбирает раскладку индексов секции. Палитра из одной записи
// может храниться без массива данных.
func unpackSection(s section) ([]uint16, error) {
	if len(s.Data) == 0 {
		if len(s.Palette) == 1 {
			return make([]uint16, palette.SectionVolume), nil
		}
		return nil, fmt.Errorf("%w: нет данных при палитре из %d записей", palette.ErrShortBuffer, len(s.Palette))
	}

	bits := palette.BitWidth(len(s.Palette))
	words := palette.WordsFromLongs(s.Data)
	if s.Aligned {
		return palette.UnpackAligned(words, bits)
	}
	return palette.UnpackWords(words, bits)
}
