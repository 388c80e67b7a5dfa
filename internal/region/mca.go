package region

import (
	"fmt"
	"os"

	mca "github.com/Tnze/go-mc/save/region"
	"github.com/annel0/voxelkit/internal/world"
)

// WriteFile пишет файл региона (rx, rz) на диск через save/region из go-mc:
// сектора выделяет библиотека, содержимое колонок то же, что у
// BuildRegionFile. Существующий файл перезаписывается. Возвращает число
// записанных колонок.
func WriteFile(path string, w *world.World, rx, rz int, opts Options) (int, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	compression := opts.compression()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return 0, fmt.Errorf("region: %w", err)
	}
	r, err := mca.CreateWriter(f) // при ошибке файл уже закрыт
	if err != nil {
		return 0, fmt.Errorf("region: заголовок %s: %w", path, err)
	}

	n := 0
	for _, col := range regionColumns(w, rx, rz) {
		payload, err := chunkPayload(w, col, compression, opts)
		if err != nil {
			r.Close()
			return n, err
		}
		lx, lz := mca.In(col.X, col.Z)
		if err := r.WriteSector(lx, lz, payload); err != nil {
			r.Close()
			return n, fmt.Errorf("region: колонка (%d,%d): %w", col.X, col.Z, err)
		}
		n++
		opts.Metrics.ChunkWritten()
	}

	if err := r.PadToFullSector(); err != nil {
		r.Close()
		return n, fmt.Errorf("region: %w", err)
	}
	if err := r.Close(); err != nil {
		return n, fmt.Errorf("region: %w", err)
	}
	opts.Logger.Info("💾 %s: %d колонок", path, n)
	return n, nil
}
