package vec

// Dims описывает размеры плотной сетки вокселей.
//
// Линейный индекс вычисляется как y*(X*Z) + z*X + x: сначала Y, затем Z,
// младшая ось X. Этот порядок совпадает с форматами файлов и не должен меняться.
type Dims struct {
	X, Y, Z int
}

// Volume возвращает количество ячеек
func (d Dims) Volume() int {
	return d.X * d.Y * d.Z
}

// Contains проверяет, что координата лежит в [0,X)×[0,Y)×[0,Z)
func (d Dims) Contains(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < d.X && y < d.Y && z < d.Z
}

// Index возвращает линейный индекс. Координата должна быть внутри границ.
func (d Dims) Index(x, y, z int) int {
	return y*(d.X*d.Z) + z*d.X + x
}

// Coord выполняет обратное преобразование индекса в координату
func (d Dims) Coord(i int) Vec3 {
	layer := d.X * d.Z
	y := i / layer
	rest := i % layer
	return Vec3{X: rest % d.X, Y: y, Z: rest / d.X}
}

// Clamp прижимает координату к границам сетки
func (d Dims) Clamp(v Vec3) Vec3 {
	return Vec3{
		X: clampAxis(v.X, d.X),
		Y: clampAxis(v.Y, d.Y),
		Z: clampAxis(v.Z, d.Z),
	}
}

// Valid сообщает, что все размеры не меньше 1
func (d Dims) Valid() bool {
	return d.X >= 1 && d.Y >= 1 && d.Z >= 1
}

func clampAxis(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
