package region

import (
	"github.com/annel0/voxelkit/internal/world/block"
)

const (
	// LegacyDataVersion версия данных, которую пишет BuildChunk (1.15.2)
	LegacyDataVersion = 2230
	// AlignedPackingVersion с этой версии индексы не пересекают границу слова
	AlignedPackingVersion = 2529
	// absentSectionY Y секции, которую формат использует как "секции нет"
	absentSectionY = -1
)

// chunkDocument покрывает обе раскладки: старую с корнем Level и новую,
// где секции лежат прямо в корне
type chunkDocument struct {
	DataVersion int32           `nbt:"DataVersion"`
	Level       levelDocument   `nbt:"Level"`
	XPos        int32           `nbt:"xPos"`
	ZPos        int32           `nbt:"zPos"`
	Sections    []modernSection `nbt:"sections"`
}

type levelDocument struct {
	XPos     int32           `nbt:"xPos"`
	ZPos     int32           `nbt:"zPos"`
	Status   string          `nbt:"Status"`
	Sections []legacySection `nbt:"Sections"`
}

type legacySection struct {
	Y           int8          `nbt:"Y"`
	Palette     []block.State `nbt:"Palette"`
	BlockStates []int64       `nbt:"BlockStates"`
}

type modernSection struct {
	Y           int8 `nbt:"Y"`
	BlockStates struct {
		Palette []block.State `nbt:"palette"`
		Data    []int64       `nbt:"data"`
	} `nbt:"block_states"`
}

// legacyChunk документ, который пишет BuildChunk
type legacyChunk struct {
	DataVersion int32       `nbt:"DataVersion"`
	Level       legacyLevel `nbt:"Level"`
}

type legacyLevel struct {
	XPos       int32           `nbt:"xPos"`
	ZPos       int32           `nbt:"zPos"`
	LastUpdate int64           `nbt:"LastUpdate"`
	Status     string          `nbt:"Status"`
	Sections   []legacySection `nbt:"Sections"`
}

// section раскладка-независимое представление секции
type section struct {
	Y       int
	Palette []block.State
	Data    []int64
	Aligned bool
}

// sections возвращает секции документа и координаты колонки
func (d *chunkDocument) sections() (cx, cz int, out []section, legacy bool) {
	aligned := d.DataVersion >= AlignedPackingVersion
	if len(d.Sections) > 0 || d.Level.Sections == nil {
		for _, s := range d.Sections {
			out = append(out, section{
				Y:       int(s.Y),
				Palette: s.BlockStates.Palette,
				Data:    s.BlockStates.Data,
				Aligned: true,
			})
		}
		return int(d.XPos), int(d.ZPos), out, false
	}

	for _, s := range d.Level.Sections {
		out = append(out, section{
			Y:       int(s.Y),
			Palette: s.Palette,
			Data:    s.BlockStates,
			Aligned: aligned,
		})
	}
	return int(d.Level.XPos), int(d.Level.ZPos), out, true
}
