// Package metrics собирает Prometheus-метрики кодеков и хранилища.
// Все методы Collector безопасно вызывать у nil, поэтому кодеки принимают
// коллектор как необязательную зависимость.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxelkit/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxelkit"

// Collector хранит счётчики обработки регионов, экспорта и хранилища
type Collector struct {
	chunksDecoded   prometheus.Counter
	chunksFailed    prometheus.Counter
	chunksWritten   prometheus.Counter
	missingStates   prometheus.Counter
	sectionsSkipped prometheus.Counter
	exportStages    *prometheus.CounterVec
	storageOps      *prometheus.CounterVec
	storageBytes    prometheus.Counter
}

// New создаёт коллектор, но не регистрирует его
func New() *Collector {
	return &Collector{
		chunksDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "chunks_decoded_total",
			Help:      "Чанков, успешно прочитанных из региональных файлов.",
		}),
		chunksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "chunks_failed_total",
			Help:      "Чанков, пропущенных из-за повреждённых данных.",
		}),
		chunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "chunks_written_total",
			Help:      "Чанков, записанных в региональные файлы.",
		}),
		missingStates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "missing_states_total",
			Help:      "Записей палитры без соответствия в реестре блоков.",
		}),
		sectionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "sections_skipped_total",
			Help:      "Пустых или отсутствующих секций.",
		}),
		exportStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "stages_total",
			Help:      "Завершённых стадий экспорта по имени стадии.",
		}, []string{"stage"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Операций с хранилищем чанков по типу и результату.",
		}, []string{"op", "result"}),
		storageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "written_bytes_total",
			Help:      "Сжатых байт, записанных в хранилище.",
		}),
	}
}

// Register регистрирует все метрики в реестре
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{
		c.chunksDecoded, c.chunksFailed, c.chunksWritten, c.missingStates,
		c.sectionsSkipped, c.exportStages, c.storageOps, c.storageBytes,
	} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// ChunkDecoded отмечает успешно прочитанный чанк
func (c *Collector) ChunkDecoded() {
	if c != nil {
		c.chunksDecoded.Inc()
	}
}

// ChunkFailed отмечает повреждённый чанк
func (c *Collector) ChunkFailed() {
	if c != nil {
		c.chunksFailed.Inc()
	}
}

// ChunkWritten отмечает записанный чанк
func (c *Collector) ChunkWritten() {
	if c != nil {
		c.chunksWritten.Inc()
	}
}

// MissingStates добавляет n нераспознанных записей палитры
func (c *Collector) MissingStates(n int) {
	if c != nil && n > 0 {
		c.missingStates.Add(float64(n))
	}
}

// SectionSkipped отмечает пропущенную секцию
func (c *Collector) SectionSkipped() {
	if c != nil {
		c.sectionsSkipped.Inc()
	}
}

// ExportStage отмечает завершение стадии экспорта
func (c *Collector) ExportStage(stage string) {
	if c != nil {
		c.exportStages.WithLabelValues(stage).Inc()
	}
}

// StorageOp отмечает операцию с хранилищем
func (c *Collector) StorageOp(op string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.storageOps.WithLabelValues(op, result).Inc()
}

// StorageBytes добавляет объём записанных данных
func (c *Collector) StorageBytes(n int) {
	if c != nil && n > 0 {
		c.storageBytes.Add(float64(n))
	}
}

// Serve поднимает HTTP-эндпоинт /metrics и блокируется до отмены ctx
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		return err
	}
	return nil
}
