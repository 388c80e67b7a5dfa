package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/annel0/voxelkit/internal/config"
	"github.com/annel0/voxelkit/internal/logging"
	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/annel0/voxelkit/internal/region"
	"github.com/annel0/voxelkit/internal/schemfile"
	"github.com/annel0/voxelkit/internal/storage"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
	"github.com/annel0/voxelkit/internal/world/block"
)

type app struct {
	cfg     *config.Config
	metrics *metrics.Collector
}

func (a *app) regionOptions() (region.Options, error) {
	compression, err := region.ParseCompression(a.cfg.Region.GetCompression())
	if err != nil {
		return region.Options{}, err
	}
	id, meta := a.cfg.Palette.GetMissingBlock()
	return region.Options{
		Registry:    block.DefaultTable(),
		Sentinel:    block.Block{ID: id, Meta: meta},
		Compression: compression,
		Logger:      logging.GetRegionLogger(),
		Metrics:     a.metrics,
	}, nil
}

func (a *app) openStorage() (*storage.WorldStorage, error) {
	return storage.Open(a.cfg.Storage.GetPath(),
		storage.WithLogger(logging.GetStorageLogger()),
		storage.WithMetrics(a.metrics),
	)
}

// info печатает занятые ячейки файла региона и итог разбора
func (a *app) info(path string) error {
	if path == "" {
		return fmt.Errorf("нужен -file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h, err := region.ParseHeader(data)
	if err != nil {
		return err
	}

	populated := h.Populated()
	fmt.Printf("📄 %s: %d байт, %d чанков\n", filepath.Base(path), len(data), len(populated))
	for _, slot := range populated {
		lx, lz := region.SlotColumn(slot)
		e := h[slot]
		fmt.Printf("  [%4d] колонка (%2d,%2d) сектор %d x%d\n", slot, lx, lz, e.Offset, e.Sectors)
	}

	opts, err := a.regionOptions()
	if err != nil {
		return err
	}
	w := world.New()
	sum, err := region.Decode(data, w, opts)
	if err != nil {
		return err
	}
	printSummary(sum)
	fmt.Printf("  секций в мире: %d\n", w.Len())
	return nil
}

// importDir разбирает все файлы регионов каталога и сохраняет мир в хранилище
func (a *app) importDir(ctx context.Context, dir string) error {
	files, err := region.ReadDir(ctx, dir)
	if err != nil {
		return err
	}
	opts, err := a.regionOptions()
	if err != nil {
		return err
	}

	w := world.New()
	var total region.Summary
	for _, f := range files {
		sum, err := region.Decode(f.Data, w, opts)
		if err != nil {
			logging.Warn("⚠️ Файл %s пропущен: %v", f.Name, err)
			continue
		}
		logging.Info("📦 %s: %d чанков", f.Name, sum.Succeeded)
		total.Merge(sum)
	}
	printSummary(total)

	ws, err := a.openStorage()
	if err != nil {
		return err
	}
	defer ws.Close()

	n, err := ws.SaveWorld(w)
	if err != nil {
		return err
	}
	fmt.Printf("💾 Сохранено секций: %d\n", n)
	return nil
}

// export вырезает параллелепипед из хранилища и пишет .schematic
func (a *app) export(minArg, maxArg, out string, budget int) error {
	from, err := parseVec3(minArg)
	if err != nil {
		return fmt.Errorf("-min: %w", err)
	}
	to, err := parseVec3(maxArg)
	if err != nil {
		return fmt.Errorf("-max: %w", err)
	}
	if out == "" {
		return fmt.Errorf("нужен -out")
	}

	ws, err := a.openStorage()
	if err != nil {
		return err
	}
	defer ws.Close()

	src := ws.Source()
	w := world.New(world.WithGenerator(src))
	lo, hi := from.Min(to).ChunkCoords(), from.Max(to).ChunkCoords()
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cz := lo.Z; cz <= hi.Z; cz++ {
			for cx := lo.X; cx <= hi.X; cx++ {
				c := vec.Vec3{X: cx, Y: cy, Z: cz}
				if src.CanGenerate(c) {
					w.EnsureChunk(c)
				}
			}
		}
	}

	box := w.ExtractBox(from, to)
	box.Identity().Name = strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))

	log := logging.GetExportLogger()
	exp := schemfile.NewExporter(box, schemfile.ExportOptions{
		Compress: true,
		Metrics:  a.metrics,
		Observer: schemfile.ProgressFunc(func(percent int, label string) {
			log.Debug("⏳ %3d%% %s", percent, label)
		}),
	})
	for {
		stage, err := exp.Resume(budget)
		if err != nil {
			return err
		}
		if stage == schemfile.StageDone {
			break
		}
	}
	data, err := exp.Result()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}

	size := box.Size()
	fmt.Printf("✅ %s: %dx%dx%d, %d блоков\n", out, size.X, size.Y, size.Z, box.Count())
	return nil
}

// region собирает файл региона (rx, rz) из сохранённого мира
func (a *app) region(rx, rz int, out string) error {
	opts, err := a.regionOptions()
	if err != nil {
		return err
	}
	if out == "" {
		out = filepath.Join(a.cfg.Region.GetDir(), region.FileName(rx, rz))
	}

	ws, err := a.openStorage()
	if err != nil {
		return err
	}
	defer ws.Close()

	w := world.New()
	if _, err := ws.LoadWorld(w); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	n, err := region.WriteFile(out, w, rx, rz, opts)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %s: %d колонок\n", out, n)
	return nil
}

func printSummary(sum region.Summary) {
	fmt.Printf("  успешно: %d, с ошибками: %d, пропущено секций: %d\n",
		sum.Succeeded, len(sum.FailedChunks), sum.SkippedSections)
	for _, fc := range sum.FailedChunks {
		fmt.Printf("  ❌ %v\n", fc)
	}
	if len(sum.MissingStates) > 0 {
		fmt.Printf("  неизвестные состояния (%d):\n", len(sum.MissingStates))
		for _, s := range sum.MissingStates {
			fmt.Printf("    %s\n", s)
		}
	}
}

// parseVec3 разбирает "x,y,z"
func parseVec3(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("ожидается x,y,z: %q", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.Vec3{}, err
		}
		v[i] = n
	}
	return vec.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}
