// Package schemfile читает и пишет классические файлы .schematic
// (корневой тег "Schematic": Width/Height/Length, Blocks, Data,
// Materials "Alpha"). Порядок байтов Blocks совпадает с порядком индексов
// сетки: Y, затем Z, затем X.
package schemfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// RootTag имя корневого тега документа
const RootTag = "Schematic"

// MaterialsAlpha значение Materials для блоков классического формата
const MaterialsAlpha = "Alpha"

var (
	// ErrNotSchematic документ не похож на .schematic
	ErrNotSchematic = errors.New("schemfile: не файл .schematic")
	// ErrTooLarge размер не помещается в короткие целые формата
	ErrTooLarge = errors.New("schemfile: схема больше 32767 по одной из осей")
)

type entity struct{}

type document struct {
	Width        int16             `nbt:"Width"`
	Height       int16             `nbt:"Height"`
	Length       int16             `nbt:"Length"`
	Materials    string            `nbt:"Materials"`
	Blocks       []byte            `nbt:"Blocks"`
	Data         []byte            `nbt:"Data"`
	Entities     []entity          `nbt:"Entities"`
	TileEntities []entity          `nbt:"TileEntities"`
	WEOffsetX    int32             `nbt:"WEOffsetX"`
	WEOffsetY    int32             `nbt:"WEOffsetY"`
	WEOffsetZ    int32             `nbt:"WEOffsetZ"`
	Name         string            `nbt:"Name,omitempty"`
	Author       string            `nbt:"Author,omitempty"`
	UUID         string            `nbt:"UUID,omitempty"`
	Metadata     map[string]string `nbt:"Metadata,omitempty"`
}

func headerOf(s *schematic.Schematic) (document, error) {
	size := s.Size()
	if size.X > math.MaxInt16 || size.Y > math.MaxInt16 || size.Z > math.MaxInt16 {
		return document{}, fmt.Errorf("%w: %v", ErrTooLarge, size)
	}

	id := s.Identity()
	materials := id.Materials
	if materials == "" {
		materials = MaterialsAlpha
	}
	off := s.Offset()
	return document{
		Width:        int16(size.X),
		Height:       int16(size.Y),
		Length:       int16(size.Z),
		Materials:    materials,
		Entities:     []entity{},
		TileEntities: []entity{},
		WEOffsetX:    int32(off.X),
		WEOffsetY:    int32(off.Y),
		WEOffsetZ:    int32(off.Z),
		Name:         id.Name,
		Author:       id.Author,
		UUID:         id.ID.String(),
		Metadata:     id.Extra,
	}, nil
}

// Decode разбирает .schematic: сжатый gzip или несжатый документ
func Decode(data []byte) (*schematic.Schematic, error) {
	var r io.Reader = bytes.NewReader(data)
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("schemfile: gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var doc document
	name, err := nbt.NewDecoder(bufio.NewReader(r)).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSchematic, err)
	}
	if name != RootTag {
		return nil, fmt.Errorf("%w: корневой тег %q", ErrNotSchematic, name)
	}

	size := vec.Dims{X: int(doc.Width), Y: int(doc.Height), Z: int(doc.Length)}
	if !size.Valid() {
		return nil, fmt.Errorf("%w: размер %v", ErrNotSchematic, size)
	}
	n := size.Volume()
	if len(doc.Blocks) != n {
		return nil, fmt.Errorf("%w: Blocks %d байт, ожидалось %d", ErrNotSchematic, len(doc.Blocks), n)
	}

	metas := make([]uint8, n)
	copy(metas, doc.Data)

	s, err := schematic.FromArrays(size, doc.Blocks, metas)
	if err != nil {
		return nil, err
	}
	s.SetOffset(vec.Vec3{X: int(doc.WEOffsetX), Y: int(doc.WEOffsetY), Z: int(doc.WEOffsetZ)})

	id := s.Identity()
	id.Format = "schematic"
	id.Materials = doc.Materials
	id.Name = doc.Name
	id.Author = doc.Author
	id.Extra = doc.Metadata
	if parsed, err := uuid.Parse(doc.UUID); err == nil {
		id.ID = parsed
	}
	return s, nil
}

// ReadFile читает .schematic с диска
func ReadFile(path string) (*schematic.Schematic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemfile: %w", err)
	}
	return Decode(data)
}

// WriteFile экспортирует сетку целиком и пишет результат на диск
func WriteFile(path string, s *schematic.Schematic, opts ExportOptions) error {
	data, err := Encode(s, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("schemfile: %w", err)
	}
	return nil
}
