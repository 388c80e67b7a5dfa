package vec

// Vec2 представляет координаты колонки чанков (X, Z) на плоскости
type Vec2 struct {
	X, Z int
}

// ToRegionCoords преобразует координаты чанка в координаты файла региона
func (v Vec2) ToRegionCoords() Vec2 {
	return Vec2{X: v.X >> 5, Z: v.Z >> 5} // Деление на 32
}

// RegionSlot возвращает номер ячейки заголовка региона для колонки:
// (cx mod 32) + (cz mod 32)*32
func (v Vec2) RegionSlot() int {
	return (v.X & 31) + (v.Z&31)*32
}
