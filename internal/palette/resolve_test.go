package palette

import (
	"testing"

	"github.com/annel0/voxelkit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentinel = block.Block{ID: 1, Meta: 0}

func TestFiveEntrySection(t *testing.T) {
	reg := block.DefaultTable()
	entries := []block.State{
		{Name: "minecraft:air"},
		{Name: "minecraft:stone"},
		{Name: "minecraft:granite"},
		{Name: "minecraft:oak_log", Properties: map[string]string{"axis": "x"}},
		{Name: "minecraft:water", Properties: map[string]string{"level": "0"}},
	}
	want := []block.Block{{ID: 0}, {ID: 1}, {ID: 1, Meta: 1}, {ID: 17, Meta: 4}, {ID: 9}}

	indices := make([]uint16, SectionVolume)
	for i := range indices {
		indices[i] = uint16((i*7 + i/16) % len(entries))
	}
	buf := Pack(indices, len(entries))
	require.Equal(t, 4, BitWidth(len(entries)))

	unpacked, err := Unpack(buf, len(entries))
	require.NoError(t, err)

	resolved, missing := Resolve(entries, reg, sentinel)
	assert.Empty(t, missing, "все записи палитры известны реестру")
	assert.Equal(t, want, resolved)

	ids := make([]uint8, SectionVolume)
	metas := make([]uint8, SectionVolume)
	assert.Equal(t, 0, Expand(unpacked, resolved, ids, metas))
	for i := range ids {
		exp := want[indices[i]]
		if !assert.Equal(t, exp, block.Block{ID: ids[i], Meta: metas[i]}, "воксель %d", i) {
			break
		}
	}
}

// Слова чередуются: 0x0123401234012340 и 0x4444444444444441, по 16
// четырёхбитных индексов в каждом, младшие биты первыми.
func knownSectionBuffer() []byte {
	wordA := []byte{0x01, 0x23, 0x40, 0x12, 0x34, 0x01, 0x23, 0x40}
	wordB := []byte{0x44, 0x44, 0x44, 0x44, 0x44, 0x44, 0x44, 0x41}
	buf := make([]byte, 0, WordsFor(4)*8)
	for len(buf) < cap(buf) {
		buf = append(buf, wordA...)
		buf = append(buf, wordB...)
	}
	return buf
}

func TestFiveEntrySectionKnownBuffer(t *testing.T) {
	reg := block.DefaultTable()
	entries := []block.State{
		{Name: "minecraft:air"},
		{Name: "minecraft:stone"},
		{Name: "minecraft:granite"},
		{Name: "minecraft:oak_log", Properties: map[string]string{"axis": "x"}},
		{Name: "minecraft:water", Properties: map[string]string{"level": "0"}},
	}
	air, stone, granite, log, water := block.Block{}, block.Block{ID: 1}, block.Block{ID: 1, Meta: 1}, block.Block{ID: 17, Meta: 4}, block.Block{ID: 9}
	patternA := []block.Block{air, water, log, granite, stone, air, water, log, granite, stone, air, water, log, granite, stone, air}
	patternB := []block.Block{stone, water, water, water, water, water, water, water, water, water, water, water, water, water, water, water}

	buf := knownSectionBuffer()
	require.Len(t, buf, 256*8)

	indices, err := Unpack(buf, len(entries))
	require.NoError(t, err)
	resolved, missing := Resolve(entries, reg, sentinel)
	require.Empty(t, missing)

	ids := make([]uint8, SectionVolume)
	metas := make([]uint8, SectionVolume)
	require.Equal(t, 0, Expand(indices, resolved, ids, metas))

	for i := range ids {
		exp := patternA[i%16]
		if (i/16)%2 == 1 {
			exp = patternB[i%16]
		}
		if !assert.Equal(t, exp, block.Block{ID: ids[i], Meta: metas[i]}, "воксель %d", i) {
			break
		}
	}

	assert.Equal(t, buf, Pack(indices, len(entries)), "упаковка восстанавливает исходный буфер")
}

func TestResolveMissing(t *testing.T) {
	reg := block.DefaultTable()
	entries := []block.State{
		{Name: "minecraft:stone"},
		{Name: "minecraft:future_block", Properties: map[string]string{"b": "2", "a": "1"}},
	}

	resolved, missing := Resolve(entries, reg, block.Block{ID: 4})

	assert.Equal(t, []block.Block{{ID: 1}, {ID: 4}}, resolved)
	assert.Equal(t, []string{"minecraft:future_block[a=1,b=2]"}, missing)
}

func TestExpandOutOfPalette(t *testing.T) {
	ids := []uint8{9, 9, 9}
	metas := []uint8{9, 9, 9}

	bad := Expand([]uint16{0, 5, 1}, []block.Block{{ID: 3, Meta: 1}, {ID: 4}}, ids, metas)

	assert.Equal(t, 1, bad)
	assert.Equal(t, []uint8{3, 0, 4}, ids)
	assert.Equal(t, []uint8{1, 0, 0}, metas)
}

func TestBuildRoundTrip(t *testing.T) {
	reg := block.DefaultTable()
	ids := make([]uint8, SectionVolume)
	metas := make([]uint8, SectionVolume)
	for i := range ids {
		switch i % 4 {
		case 1:
			ids[i] = 1
		case 2:
			ids[i], metas[i] = 17, 8
		case 3:
			ids[i], metas[i] = 35, 14
		}
	}

	sec, unknown := Build(ids, metas, reg)
	assert.Empty(t, unknown)
	assert.Len(t, sec.Palette, 4)
	assert.Equal(t, "minecraft:air", sec.Palette[0].Name)
	assert.False(t, sec.IsEmpty(reg))

	packed := Pack(sec.Indices, len(sec.Palette))
	unpacked, err := Unpack(packed, len(sec.Palette))
	require.NoError(t, err)

	resolved, missing := Resolve(sec.Palette, reg, sentinel)
	require.Empty(t, missing)

	gotIDs := make([]uint8, SectionVolume)
	gotMetas := make([]uint8, SectionVolume)
	Expand(unpacked, resolved, gotIDs, gotMetas)
	assert.Equal(t, ids, gotIDs)
	assert.Equal(t, metas, gotMetas)
}

func TestBuildUnknownBlock(t *testing.T) {
	reg := block.DefaultTable()
	ids := []uint8{250, 250, 0}
	metas := []uint8{0, 0, 0}

	sec, unknown := Build(ids, metas, reg)

	assert.Equal(t, []block.Block{{ID: 250}}, unknown)
	assert.Equal(t, "minecraft:air", sec.Palette[0].Name)
	assert.True(t, sec.IsEmpty(reg))
}
