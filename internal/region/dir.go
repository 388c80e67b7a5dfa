package region

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// readParallelism ограничивает число одновременно читаемых файлов
const readParallelism = 4

// File сырые байты одного файла региона
type File struct {
	Name   string
	RX, RZ int
	Data   []byte
}

// FileName возвращает имя файла региона: r.<rx>.<rz>.mca
func FileName(rx, rz int) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

// ParseFileName разбирает имя вида r.<rx>.<rz>.mca (или .mcr)
func ParseFileName(name string) (rx, rz int, ok bool) {
	fields := strings.Split(filepath.Base(name), ".")
	if len(fields) != 4 || fields[0] != "r" || (fields[3] != "mca" && fields[3] != "mcr") {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(fields[1])
	z, errZ := strconv.Atoi(fields[2])
	if errX != nil || errZ != nil {
		return 0, 0, false
	}
	return x, z, true
}

// ReadDir параллельно читает все файлы регионов каталога. Разбор остаётся
// вызывающему: файлы передаются копиями байт, а мир заполняется в одном
// потоке. Результат отсортирован по (rx, rz).
func ReadDir(ctx context.Context, dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("region: чтение каталога %s: %w", dir, err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rx, rz, ok := ParseFileName(e.Name())
		if !ok {
			continue
		}
		files = append(files, File{Name: e.Name(), RX: rx, RZ: rz})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readParallelism)
	for i := range files {
		f := &files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, f.Name))
			if err != nil {
				return fmt.Errorf("region: %s: %w", f.Name, err)
			}
			f.Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b File) int {
		if a.RX != b.RX {
			return a.RX - b.RX
		}
		return a.RZ - b.RZ
	})
	return files, nil
}
