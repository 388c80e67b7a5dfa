// Package bitmask реализует битовую маску "один бит на воксель",
// которая накладывается на сетку тех же размеров и адресуется тем же
// линейным индексом.
package bitmask

import "math/bits"

// Mask хранит n бит, упакованных по 8 в байт (ceil(n/8) байт).
// Бит i лежит в байте i>>3 на позиции i&7.
type Mask struct {
	n    int
	data []byte
}

// New создаёт обнулённую маску на n бит
func New(n int) *Mask {
	if n < 0 {
		n = 0
	}
	return &Mask{n: n, data: make([]byte, (n+7)/8)}
}

// FromBytes восстанавливает маску из упакованных байт. Лишние байты
// отбрасываются, недостающие считаются нулевыми.
func FromBytes(n int, data []byte) *Mask {
	m := New(n)
	copy(m.data, data)
	if rem := n & 7; rem != 0 && len(m.data) > 0 {
		m.data[len(m.data)-1] &= byte(1<<rem) - 1
	}
	return m
}

// Len возвращает количество бит
func (m *Mask) Len() int {
	return m.n
}

// Get возвращает бит i; за пределами маски всегда false
func (m *Mask) Get(i int) bool {
	if i < 0 || i >= m.n {
		return false
	}
	return m.data[i>>3]&(1<<(i&7)) != 0
}

// Set устанавливает или сбрасывает бит i; за пределами маски ничего не делает
func (m *Mask) Set(i int, on bool) {
	if i < 0 || i >= m.n {
		return
	}
	if on {
		m.data[i>>3] |= 1 << (i & 7)
	} else {
		m.data[i>>3] &^= 1 << (i & 7)
	}
}

// Count возвращает количество установленных бит
func (m *Mask) Count() int {
	total := 0
	for _, b := range m.data {
		total += bits.OnesCount8(b)
	}
	return total
}

// Clone создаёт независимую копию
func (m *Mask) Clone() *Mask {
	c := &Mask{n: m.n, data: make([]byte, len(m.data))}
	copy(c.data, m.data)
	return c
}

// Bytes возвращает упакованное представление (не копию)
func (m *Mask) Bytes() []byte {
	return m.data
}
