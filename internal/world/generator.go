package world

import (
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
)

// Generator наполняет новые чанки по требованию.
// EnsureChunk сначала спрашивает CanGenerate и только потом создаёт
// пустой чанк и передаёт его в Generate.
type Generator interface {
	// CanGenerate сообщает, может ли генератор дать содержимое для координаты
	CanGenerate(c vec.Vec3) bool
	// Generate заполняет пустой чанк. Ошибки генератор обрабатывает сам:
	// чанк, который не удалось заполнить, остаётся пустым.
	Generate(c vec.Vec3, chunk *schematic.Schematic)
}

// GeneratorFunc превращает функцию в Generator, который берётся
// за любую координату
type GeneratorFunc func(c vec.Vec3, chunk *schematic.Schematic)

// CanGenerate всегда true
func (f GeneratorFunc) CanGenerate(vec.Vec3) bool {
	return true
}

// Generate вызывает функцию
func (f GeneratorFunc) Generate(c vec.Vec3, chunk *schematic.Schematic) {
	f(c, chunk)
}
