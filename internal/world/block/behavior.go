package block

// Tag описывает набор поведенческих признаков блока.
// Вместо switch по ID в кодеках используем поиск признаков в реестре.
type Tag uint8

const (
	TagSolid     Tag = 1 << iota // Блок непрозрачен и твёрд
	TagAlpha                     // Полупрозрачный блок (стекло, листва, вода)
	TagRotatable                 // Метаданные кодируют направление
)

// Has проверяет наличие признака
func (t Tag) Has(flag Tag) bool {
	return t&flag != 0
}

// Block представляет глобальную пару (id, meta) приложения
type Block struct {
	ID   uint8
	Meta uint8
}

// Air пустой блок
var Air = Block{}

// IsAir возвращает true для воздуха. Метаданные у воздуха не учитываются.
func (b Block) IsAir() bool {
	return b.ID == AirID
}

// State именованное состояние блока во внешнем формате:
// имя и набор свойств ключ→значение.
type State struct {
	Name       string            `nbt:"Name" yaml:"name"`
	Properties map[string]string `nbt:"Properties,omitempty" yaml:"properties,omitempty"`
}
