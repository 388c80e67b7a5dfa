// Package palette упаковывает индексы палитры секции чанка в 64-битные
// слова и переводит записи палитры в глобальные пары (id, meta).
//
// Поддерживаются две раскладки:
//   - сквозная (до 1.16): индексы идут непрерывным потоком бит, младшими
//     битами вперёд, и могут пересекать границу слова;
//   - выровненная (1.16+): в слово кладётся floor(64/b) индексов,
//     остаток слова не используется.
//
// Слово в байтовом буфере хранится в big-endian, поэтому поток бит читается
// с последнего байта слова к первому.
package palette

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SectionVolume количество вокселей в секции 16³
const SectionVolume = 4096

// MinBitWidth минимальная ширина индекса в формате
const MinBitWidth = 4

// ErrShortBuffer возвращается, если буфер короче, чем требует ширина индекса
var ErrShortBuffer = errors.New("palette: буфер слишком короткий")

// BitWidth возвращает ширину индекса для палитры заданного размера:
// max(4, ceil(log2(size))). Размер ищется удвоением, начиная с 2.
func BitWidth(paletteSize int) int {
	bits := 1
	for n := 2; n < paletteSize; n <<= 1 {
		bits++
	}
	return max(bits, MinBitWidth)
}

// WordsFor возвращает число слов сквозной раскладки: ceil(4096*b/64)
func WordsFor(bits int) int {
	return (SectionVolume*bits + 63) / 64
}

// AlignedWordsFor возвращает число слов выровненной раскладки
func AlignedWordsFor(bits int) int {
	perWord := 64 / bits
	return (SectionVolume + perWord - 1) / perWord
}

// Unpack раскладывает байтовый буфер сквозной раскладки в 4096 индексов
func Unpack(buf []byte, paletteSize int) ([]uint16, error) {
	bits := BitWidth(paletteSize)
	need := WordsFor(bits) * 8
	if len(buf) < need {
		return nil, fmt.Errorf("%w: %d байт при ширине %d, нужно %d", ErrShortBuffer, len(buf), bits, need)
	}
	return UnpackWords(WordsFromBytes(buf[:need]), bits)
}

// Pack обратная операция к Unpack
func Pack(indices []uint16, paletteSize int) []byte {
	return BytesFromWords(PackWords(indices, BitWidth(paletteSize)))
}

// UnpackWords читает 4096 индексов ширины bits из сквозного потока слов
func UnpackWords(words []uint64, bits int) ([]uint16, error) {
	if len(words) < WordsFor(bits) {
		return nil, fmt.Errorf("%w: %d слов при ширине %d, нужно %d", ErrShortBuffer, len(words), bits, WordsFor(bits))
	}

	mask := uint64(1)<<bits - 1
	out := make([]uint16, SectionVolume)
	for i := range out {
		bit := i * bits
		w := bit >> 6
		off := uint(bit & 63)

		v := words[w] >> off
		if int(off)+bits > 64 {
			v |= words[w+1] << (64 - off)
		}
		out[i] = uint16(v & mask)
	}
	return out, nil
}

// PackWords упаковывает индексы в сквозной поток. Лишние биты индекса
// отбрасываются, недостающие индексы считаются нулями.
func PackWords(indices []uint16, bits int) []uint64 {
	mask := uint64(1)<<bits - 1
	words := make([]uint64, WordsFor(bits))
	for i := 0; i < SectionVolume && i < len(indices); i++ {
		v := uint64(indices[i]) & mask
		bit := i * bits
		w := bit >> 6
		off := uint(bit & 63)

		words[w] |= v << off
		if int(off)+bits > 64 {
			words[w+1] |= v >> (64 - off)
		}
	}
	return words
}

// UnpackAligned читает 4096 индексов из выровненной раскладки
func UnpackAligned(words []uint64, bits int) ([]uint16, error) {
	if len(words) < AlignedWordsFor(bits) {
		return nil, fmt.Errorf("%w: %d слов при ширине %d, нужно %d", ErrShortBuffer, len(words), bits, AlignedWordsFor(bits))
	}

	perWord := 64 / bits
	mask := uint64(1)<<bits - 1
	out := make([]uint16, SectionVolume)
	for i := range out {
		w := i / perWord
		off := uint((i % perWord) * bits)
		out[i] = uint16((words[w] >> off) & mask)
	}
	return out, nil
}

// PackAligned обратная операция к UnpackAligned
func PackAligned(indices []uint16, bits int) []uint64 {
	perWord := 64 / bits
	mask := uint64(1)<<bits - 1
	words := make([]uint64, AlignedWordsFor(bits))
	for i := 0; i < SectionVolume && i < len(indices); i++ {
		off := uint((i % perWord) * bits)
		words[i/perWord] |= (uint64(indices[i]) & mask) << off
	}
	return words
}

// WordsFromBytes собирает слова из big-endian байтов. Хвост короче
// восьми байт отбрасывается.
func WordsFromBytes(buf []byte) []uint64 {
	words := make([]uint64, len(buf)/8)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(buf[i*8:])
	}
	return words
}

// BytesFromWords раскладывает слова в big-endian байты
func BytesFromWords(words []uint64) []byte {
	buf := make([]byte, len(words)*8)
	for i, w := range words {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return buf
}

// WordsFromLongs переводит массив тега LongArray в слова без изменения бит
func WordsFromLongs(longs []int64) []uint64 {
	words := make([]uint64, len(longs))
	for i, l := range longs {
		words[i] = uint64(l)
	}
	return words
}

// LongsFromWords обратная операция к WordsFromLongs
func LongsFromWords(words []uint64) []int64 {
	longs := make([]int64, len(words))
	for i, w := range words {
		longs[i] = int64(w)
	}
	return longs
}
