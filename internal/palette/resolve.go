package palette

import (
	"github.com/annel0/voxelkit/internal/world/block"
)

// Resolve переводит каждую запись палитры в глобальную пару через реестр.
// Неизвестная запись заменяется на sentinel, а её строковое представление
// "name[k=v,...]" попадает в missing. Декодирование не прерывается.
func Resolve(entries []block.State, reg block.Registry, sentinel block.Block) (resolved []block.Block, missing []string) {
	resolved = make([]block.Block, len(entries))
	for i, e := range entries {
		b, ok := reg.Lookup(e)
		if !ok {
			resolved[i] = sentinel
			missing = append(missing, block.StateString(e))
			continue
		}
		resolved[i] = b
	}
	return resolved, missing
}

// Expand записывает блоки секции по индексам. Индекс за пределами палитры
// даёт воздух; возвращается количество таких индексов.
func Expand(indices []uint16, resolved []block.Block, ids, metas []uint8) int {
	bad := 0
	for i, idx := range indices {
		if i >= len(ids) || i >= len(metas) {
			break
		}
		if int(idx) >= len(resolved) {
			ids[i], metas[i] = block.AirID, 0
			bad++
			continue
		}
		b := resolved[idx]
		ids[i], metas[i] = b.ID, b.Meta
	}
	return bad
}

// Section палитра и индексы одной секции, готовые к упаковке
type Section struct {
	Palette []block.State
	Indices []uint16
}

// BitWidth возвращает ширину индекса для палитры секции
func (s Section) BitWidth() int {
	return BitWidth(len(s.Palette))
}

// Build строит палитру секции по массивам id/meta. Записи палитры идут в
// порядке первого появления. Блоки, для которых реестр не знает
// состояния, записываются как воздух и возвращаются в unknown.
func Build(ids, metas []uint8, reg block.Registry) (Section, []block.Block) {
	sec := Section{Indices: make([]uint16, len(ids))}
	seen := make(map[block.Block]uint16)
	var unknown []block.Block
	reported := make(map[block.Block]bool)

	air, ok := reg.State(block.Air)
	if !ok {
		air = block.State{Name: "minecraft:air"}
	}

	for i, id := range ids {
		b := block.Block{ID: id, Meta: metas[i]}
		if idx, ok := seen[b]; ok {
			sec.Indices[i] = idx
			continue
		}

		state, ok := reg.State(b)
		if !ok {
			state = air
			if !reported[b] {
				reported[b] = true
				unknown = append(unknown, b)
			}
		}

		idx := uint16(len(sec.Palette))
		sec.Palette = append(sec.Palette, state)
		seen[b] = idx
		sec.Indices[i] = idx
	}
	return sec, unknown
}

// IsEmpty сообщает, что секция целиком из воздуха
func (s Section) IsEmpty(reg block.Registry) bool {
	for _, e := range s.Palette {
		b, ok := reg.Lookup(e)
		if !ok || !b.IsAir() {
			return false
		}
	}
	return true
}
