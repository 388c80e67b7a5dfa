// Package region читает и пишет региональные файлы: заголовок из таблицы
// секторов, сжатые документы чанков и палитровые секции внутри них.
//
// Один файл покрывает 32x32 колонки чанков. Повреждённый чанк не мешает
// чтению остальных; жёсткой ошибкой считается только обрезанный заголовок.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxelkit/internal/vec"
)

const (
	// SectorSize размер сектора файла
	SectorSize = 4096
	// Entries число ячеек заголовка (32x32 колонки)
	Entries = 1024
	// HeaderSize таблица смещений плюс таблица меток времени
	HeaderSize = 2 * SectorSize
	// MaxSectors предел длины чанка: счётчик секторов занимает один байт
	MaxSectors = 255
)

var (
	// ErrTruncatedHeader файл короче заголовка
	ErrTruncatedHeader = errors.New("region: заголовок обрезан")
	// ErrChunkOutOfFile ячейка указывает за пределы файла
	ErrChunkOutOfFile = errors.New("region: данные чанка за пределами файла")
)

// Entry ячейка заголовка
type Entry struct {
	Offset    uint32 // в секторах, 0 если чанка нет
	Sectors   uint8
	Timestamp uint32 // секунды Unix
}

// Present сообщает, записан ли чанк в ячейку
func (e Entry) Present() bool {
	return e.Offset != 0
}

// ByteOffset возвращает смещение данных чанка в байтах
func (e Entry) ByteOffset() int {
	return int(e.Offset) * SectorSize
}

// Header разобранный заголовок файла
type Header [Entries]Entry

// Slot возвращает номер ячейки для колонки чанков: (cx mod 32) + (cz mod 32)*32
func Slot(cx, cz int) int {
	return vec.Vec2{X: cx, Z: cz}.RegionSlot()
}

// SlotColumn возвращает локальную колонку (0..31, 0..31) ячейки
func SlotColumn(slot int) (lx, lz int) {
	return slot & 31, slot >> 5
}

// ParseHeader читает 1024 записи смещение/длина и 1024 метки времени
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d байт из %d", ErrTruncatedHeader, len(data), HeaderSize)
	}

	h := new(Header)
	for i := range h {
		h[i] = entryAt(data, i)
	}
	return h, nil
}

// entryAt читает одну ячейку без разбора всего заголовка
func entryAt(data []byte, slot int) Entry {
	loc := binary.BigEndian.Uint32(data[slot*4:])
	return Entry{
		Offset:    loc >> 8,
		Sectors:   uint8(loc & 0xFF),
		Timestamp: binary.BigEndian.Uint32(data[SectorSize+slot*4:]),
	}
}

// Bytes сериализует заголовок в 8192 байта
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	h.put(buf)
	return buf
}

func (h *Header) put(buf []byte) {
	for i, e := range h {
		binary.BigEndian.PutUint32(buf[i*4:], e.Offset<<8|uint32(e.Sectors))
		binary.BigEndian.PutUint32(buf[SectorSize+i*4:], e.Timestamp)
	}
}

// Populated возвращает номера заполненных ячеек по возрастанию
func (h *Header) Populated() []int {
	var out []int
	for i, e := range h {
		if e.Present() {
			out = append(out, i)
		}
	}
	return out
}
