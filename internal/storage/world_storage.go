// Package storage хранит чанки мира в BadgerDB.
//
// Каждый чанк лежит под ключом "chunk:<cx>:<cy>:<cz>" как сжатый zstd
// блок id, meta и (если есть) маски. Хранилище потокобезопасно; мир, в
// который загружаются чанки, остаётся однопоточным.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/voxelkit/internal/bitmask"
	"github.com/annel0/voxelkit/internal/logging"
	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/annel0/voxelkit/internal/vec"
	"github.com/annel0/voxelkit/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const (
	chunkPrefix  = "chunk:"
	blobVersion  = 1
	flagHasMask  = 1 << 0
	chunkVolume  = world.ChunkSize * world.ChunkSize * world.ChunkSize
	maskBytes    = chunkVolume / 8
	blobOverhead = 2
)

var (
	// ErrNotReady хранилище закрыто
	ErrNotReady = errors.New("storage: хранилище не готово")
	// ErrChunkNotFound чанка нет в хранилище
	ErrChunkNotFound = errors.New("storage: чанк не найден")
	// ErrCorruptBlob данные чанка не читаются
	ErrCorruptBlob = errors.New("storage: повреждённые данные чанка")
)

// Option настраивает WorldStorage
type Option func(*WorldStorage)

// WithLogger задаёт логгер хранилища
func WithLogger(l *logging.Logger) Option {
	return func(ws *WorldStorage) {
		ws.logger = l
	}
}

// WithMetrics задаёт коллектор метрик
func WithMetrics(m *metrics.Collector) Option {
	return func(ws *WorldStorage) {
		ws.metrics = m
	}
}

// WorldStorage хранилище чанков
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
	metrics *metrics.Collector
}

// Open открывает (или создаёт) хранилище в dataPath/chunks
func Open(dataPath string, opts ...Option) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "chunks")
	bopts := badger.DefaultOptions(dbPath)
	bopts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания zstd: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("ошибка создания zstd: %w", err)
	}

	ws := &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: enc,
		decoder: dec,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ws)
		}
	}
	ws.logger.Info("💾 Хранилище чанков открыто: %s", dbPath)
	return ws, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.decoder.Close()
	ws.encoder.Close()
	return ws.db.Close()
}

func chunkKey(c vec.Vec3) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", chunkPrefix, c.X, c.Y, c.Z))
}

func parseChunkKey(key []byte) (vec.Vec3, bool) {
	var c vec.Vec3
	if _, err := fmt.Sscanf(string(key), chunkPrefix+"%d:%d:%d", &c.X, &c.Y, &c.Z); err != nil {
		return vec.Vec3{}, false
	}
	return c, true
}

// encodeChunk упаковывает чанк: версия, флаги, zstd(ids|metas[|mask])
func (ws *WorldStorage) encodeChunk(chunk *schematic.Schematic) []byte {
	raw := make([]byte, 0, 2*chunkVolume+maskBytes)
	raw = append(raw, chunk.IDs()...)
	raw = append(raw, chunk.Metas()...)

	var flags byte
	if m := chunk.Mask(); m != nil {
		flags |= flagHasMask
		raw = append(raw, m.Bytes()...)
	}

	out := []byte{blobVersion, flags}
	return ws.encoder.EncodeAll(raw, out)
}

func (ws *WorldStorage) decodeChunk(c vec.Vec3, blob []byte) (*schematic.Schematic, error) {
	if len(blob) < blobOverhead || blob[0] != blobVersion {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, c)
	}
	flags := blob[1]

	raw, err := ws.decoder.DecodeAll(blob[blobOverhead:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrCorruptBlob, c, err)
	}

	want := 2 * chunkVolume
	if flags&flagHasMask != 0 {
		want += maskBytes
	}
	if len(raw) != want {
		return nil, fmt.Errorf("%w: %v: %d байт вместо %d", ErrCorruptBlob, c, len(raw), want)
	}

	chunk := world.NewChunk(c)
	copy(chunk.IDs(), raw[:chunkVolume])
	copy(chunk.Metas(), raw[chunkVolume:2*chunkVolume])
	if flags&flagHasMask != 0 {
		if err := chunk.SetMask(bitmask.FromBytes(chunkVolume, raw[2*chunkVolume:])); err != nil {
			return nil, err
		}
	}
	return chunk, nil
}

// SaveChunk сохраняет чанк целиком
func (ws *WorldStorage) SaveChunk(c vec.Vec3, chunk *schematic.Schematic) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}
	if !world.IsChunkShaped(chunk) {
		return fmt.Errorf("storage: чанк %v должен быть 16x16x16", c)
	}

	data := ws.encodeChunk(chunk)
	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(c), data)
	})
	ws.metrics.StorageOp("save", err)
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	ws.metrics.StorageBytes(len(data))
	return nil
}

// LoadChunk загружает чанк; отсутствующий чанк даёт ErrChunkNotFound
func (ws *WorldStorage) LoadChunk(c vec.Vec3) (*schematic.Schematic, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var data []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(c))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		ws.metrics.StorageOp("load", nil)
		return nil, fmt.Errorf("%w: %v", ErrChunkNotFound, c)
	}
	ws.metrics.StorageOp("load", err)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	return ws.decodeChunk(c, data)
}

// HasChunk сообщает, сохранён ли чанк
func (ws *WorldStorage) HasChunk(c vec.Vec3) bool {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return false
	}
	err := ws.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(chunkKey(c))
		return err
	})
	return err == nil
}

// DeleteChunk удаляет чанк
func (ws *WorldStorage) DeleteChunk(c vec.Vec3) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}
	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(c))
	})
	ws.metrics.StorageOp("delete", err)
	return err
}

// ChunkCoords возвращает координаты всех сохранённых чанков
func (ws *WorldStorage) ChunkCoords() ([]vec.Vec3, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var coords []vec.Vec3
	err := ws.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false, Prefix: []byte(chunkPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if c, ok := parseChunkKey(it.Item().Key()); ok {
				coords = append(coords, c)
			}
		}
		return nil
	})
	return coords, err
}

// SaveWorld сохраняет все чанки мира одним пакетом
func (ws *WorldStorage) SaveWorld(w *world.World) (int, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return 0, ErrNotReady
	}

	batch := ws.db.NewWriteBatch()
	defer batch.Cancel()

	n, size := 0, 0
	for _, c := range w.ChunkCoords() {
		data := ws.encodeChunk(w.Chunk(c))
		if err := batch.Set(chunkKey(c), data); err != nil {
			return n, fmt.Errorf("ошибка записи чанка %v: %w", c, err)
		}
		n++
		size += len(data)
	}
	err := batch.Flush()
	ws.metrics.StorageOp("save_world", err)
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения мира: %w", err)
	}
	ws.metrics.StorageBytes(size)
	ws.logger.Info("💾 Сохранено чанков: %d", n)
	return n, nil
}

// SaveChanges сохраняет только чанки, отмеченные трекером. Отмеченные
// координаты без чанка в мире пропускаются.
func (ws *WorldStorage) SaveChanges(w *world.World, tracker *world.ChangeTracker) (int, error) {
	n := 0
	for _, c := range tracker.Take() {
		chunk := w.Chunk(c)
		if chunk == nil {
			continue
		}
		if err := ws.SaveChunk(c, chunk); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		ws.logger.Debug("💾 Сохранено изменённых чанков: %d", n)
	}
	return n, nil
}

// LoadWorld загружает все сохранённые чанки в мир. Повреждённые чанки
// пропускаются с предупреждением.
func (ws *WorldStorage) LoadWorld(w *world.World) (int, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return 0, ErrNotReady
	}

	n := 0
	err := ws.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 64, Prefix: []byte(chunkPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			c, ok := parseChunkKey(item.Key())
			if !ok {
				continue
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			chunk, err := ws.decodeChunk(c, data)
			if err != nil {
				ws.logger.Warn("⚠️ Чанк %v пропущен: %v", c, err)
				continue
			}
			if err := w.PutChunk(c, chunk); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	ws.metrics.StorageOp("load_world", err)
	if err != nil {
		return n, fmt.Errorf("ошибка загрузки мира: %w", err)
	}
	return n, nil
}

// Source возвращает генератор, который материализует сохранённые чанки
// в мире по требованию
func (ws *WorldStorage) Source() *Source {
	return &Source{storage: ws}
}

// Source реализует world.Generator поверх хранилища
type Source struct {
	storage *WorldStorage
}

// CanGenerate сообщает, есть ли чанк в хранилище
func (s *Source) CanGenerate(c vec.Vec3) bool {
	return s.storage.HasChunk(c)
}

// Generate копирует сохранённый чанк в новый чанк мира. Ошибка чтения
// оставляет чанк пустым. Сохранённая маска заменяет маску чанка, если она у
// чанка есть.
func (s *Source) Generate(c vec.Vec3, chunk *schematic.Schematic) {
	stored, err := s.storage.LoadChunk(c)
	if err != nil {
		s.storage.logger.Warn("⚠️ Не удалось загрузить чанк %v: %v", c, err)
		return
	}
	copy(chunk.IDs(), stored.IDs())
	copy(chunk.Metas(), stored.Metas())

	// маска переносится, только если мир ведёт маски у своих чанков
	if m := stored.Mask(); m != nil && chunk.Mask() != nil {
		if err := chunk.SetMask(m); err != nil {
			s.storage.logger.Warn("⚠️ Маска чанка %v не подошла: %v", c, err)
		}
	}
}
