package block

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AirID идентификатор воздуха
const AirID uint8 = 0

// Registry связывает именованные состояния внешнего формата с глобальными
// парами (id, meta) и отвечает на вопросы о поведении блока.
// Реестр используется только для чтения.
type Registry interface {
	// Lookup находит глобальную пару для состояния
	Lookup(state State) (Block, bool)
	// State возвращает каноническое состояние для глобальной пары
	State(b Block) (State, bool)
	// Tags возвращает поведенческие признаки блока
	Tags(id uint8) Tag
	// IsSolid сообщает, является ли блок твёрдым
	IsSolid(id uint8) bool
	// IsAlphaBlended сообщает, рисуется ли блок с прозрачностью
	IsAlphaBlended(id uint8) bool
	// RotateMeta поворачивает метаданные вокруг вертикальной оси на angle градусов
	RotateMeta(id, meta uint8, angle int) uint8
}

//go:embed blocks.yaml
var defaultTableYAML []byte

// tableFile формат YAML-описания таблицы блоков
type tableFile struct {
	Blocks []struct {
		ID         uint8             `yaml:"id"`
		Meta       uint8             `yaml:"meta"`
		Name       string            `yaml:"name"`
		Properties map[string]string `yaml:"properties"`
	} `yaml:"blocks"`
	Tags      map[int][]string    `yaml:"tags"`
	Rotations map[int]map[int]int `yaml:"rotations"`
}

type entry struct {
	block Block
	state State
}

// Table реализация Registry поверх статической таблицы
type Table struct {
	entries   []entry
	byName    map[string][]int // индексы entries, самые специфичные первыми
	byBlock   map[Block]int    // первая запись для пары считается канонической
	tags      [256]Tag
	rotations map[uint8]map[uint8]uint8 // поворот на 90° по часовой стрелке
}

// DefaultTable возвращает таблицу, встроенную в бинарник
func DefaultTable() *Table {
	t, err := LoadTable(bytes.NewReader(defaultTableYAML))
	if err != nil {
		panic(fmt.Sprintf("встроенная таблица блоков повреждена: %v", err))
	}
	return t
}

// LoadTable читает таблицу блоков в формате YAML
func LoadTable(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("blocks.yaml: %w", err)
	}

	t := &Table{
		byName:    make(map[string][]int),
		byBlock:   make(map[Block]int),
		rotations: make(map[uint8]map[uint8]uint8, len(f.Rotations)),
	}

	for id, rot := range f.Rotations {
		if !fitsByte(id) {
			return nil, fmt.Errorf("blocks.yaml: id поворота вне диапазона: %d", id)
		}
		m := make(map[uint8]uint8, len(rot))
		for from, to := range rot {
			if !fitsByte(from) || !fitsByte(to) {
				return nil, fmt.Errorf("blocks.yaml: meta поворота вне диапазона у блока %d", id)
			}
			m[uint8(from)] = uint8(to)
		}
		t.rotations[uint8(id)] = m
	}

	for i, b := range f.Blocks {
		if b.Name == "" {
			return nil, fmt.Errorf("blocks.yaml: запись %d без имени", i)
		}
		e := entry{
			block: Block{ID: b.ID, Meta: b.Meta},
			state: State{Name: b.Name, Properties: b.Properties},
		}
		t.entries = append(t.entries, e)
		t.byName[b.Name] = append(t.byName[b.Name], i)
		if _, exists := t.byBlock[e.block]; !exists {
			t.byBlock[e.block] = i
		}
	}

	// Более специфичные записи (больше свойств) проверяются первыми
	for name, idx := range t.byName {
		sort.SliceStable(idx, func(a, b int) bool {
			return len(t.entries[idx[a]].state.Properties) > len(t.entries[idx[b]].state.Properties)
		})
		t.byName[name] = idx
	}

	for id, names := range f.Tags {
		if !fitsByte(id) {
			return nil, fmt.Errorf("blocks.yaml: id признаков вне диапазона: %d", id)
		}
		for _, name := range names {
			switch strings.ToLower(name) {
			case "solid":
				t.tags[uint8(id)] |= TagSolid
			case "alpha":
				t.tags[uint8(id)] |= TagAlpha
			default:
				return nil, fmt.Errorf("blocks.yaml: неизвестный признак %q у блока %d", name, id)
			}
		}
	}
	for id := range t.rotations {
		t.tags[id] |= TagRotatable
	}

	return t, nil
}

func fitsByte(v int) bool {
	return v >= 0 && v <= 0xFF
}

// Len возвращает количество записей
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup ищет запись с тем же именем, все объявленные свойства которой
// совпадают со свойствами состояния. Лишние свойства состояния игнорируются.
func (t *Table) Lookup(state State) (Block, bool) {
	for _, i := range t.byName[state.Name] {
		e := t.entries[i]
		if matches(e.state.Properties, state.Properties) {
			return e.block, true
		}
	}
	return Air, false
}

func matches(declared, given map[string]string) bool {
	for k, v := range declared {
		if given[k] != v {
			return false
		}
	}
	return true
}

// State возвращает каноническое состояние; для неизвестной meta
// используется запись с meta=0 того же id
func (t *Table) State(b Block) (State, bool) {
	if i, ok := t.byBlock[b]; ok {
		return t.entries[i].state, true
	}
	if i, ok := t.byBlock[Block{ID: b.ID}]; ok {
		return t.entries[i].state, true
	}
	return State{}, false
}

// Tags возвращает признаки блока
func (t *Table) Tags(id uint8) Tag {
	return t.tags[id]
}

// IsSolid сообщает, является ли блок твёрдым
func (t *Table) IsSolid(id uint8) bool {
	return t.tags[id].Has(TagSolid)
}

// IsAlphaBlended сообщает, рисуется ли блок с прозрачностью
func (t *Table) IsAlphaBlended(id uint8) bool {
	return t.tags[id].Has(TagAlpha)
}

// RotateMeta применяет поворот на 90° столько раз, сколько укладывается
// в angle. Значения, отсутствующие в таблице поворота, не меняются.
func (t *Table) RotateMeta(id, meta uint8, angle int) uint8 {
	rot, ok := t.rotations[id]
	if !ok {
		return meta
	}
	steps := ((angle/90)%4 + 4) % 4
	for i := 0; i < steps; i++ {
		if next, ok := rot[meta]; ok {
			meta = next
		}
	}
	return meta
}

// StateString возвращает имя состояния с отсортированными свойствами:
// "minecraft:oak_log[axis=y]". Используется в диагностике.
func StateString(s State) string {
	if len(s.Properties) == 0 {
		return s.Name
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(s.Properties[k])
	}
	sb.WriteByte(']')
	return sb.String()
}
