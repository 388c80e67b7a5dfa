package schemfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/annel0/voxelkit/internal/schematic"
	"github.com/klauspost/compress/gzip"
)

// Stage стадия экспорта
type Stage int

const (
	StageBlocks Stage = iota
	StageData
	StageEncode
	StageCompress
	StageDone
)

// String возвращает имя стадии для меток прогресса
func (s Stage) String() string {
	switch s {
	case StageBlocks:
		return "blocks"
	case StageData:
		return "data"
	case StageEncode:
		return "encode"
	case StageCompress:
		return "compress"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// границы процентов каждой стадии
var stageStart = [...]int{
	StageBlocks:   0,
	StageData:     40,
	StageEncode:   80,
	StageCompress: 90,
	StageDone:     100,
}

// ErrNotFinished результат запрошен до завершения экспорта
var ErrNotFinished = errors.New("schemfile: экспорт не завершён")

// ProgressObserver получает контрольную точку после каждого шага экспорта
type ProgressObserver interface {
	Progress(percent int, label string)
}

// ProgressFunc превращает функцию в ProgressObserver
type ProgressFunc func(percent int, label string)

// Progress вызывает функцию
func (f ProgressFunc) Progress(percent int, label string) {
	f(percent, label)
}

// ExportOptions настраивает экспорт
type ExportOptions struct {
	// Compress упаковывает документ в gzip, как это делают редакторы
	Compress bool
	Observer ProgressObserver
	Metrics  *metrics.Collector
}

// Exporter пошаговый экспорт сетки в .schematic. Хозяин цикла сам решает,
// когда вызывать Resume; между вызовами сетку изменять нельзя.
// Отмены нет: начатый экспорт либо доходит до конца, либо падает с ошибкой.
type Exporter struct {
	src    *schematic.Schematic
	opts   ExportOptions
	stage  Stage
	cursor int
	doc    document
	raw    []byte
	out    []byte
	err    error
}

// NewExporter готовит экспорт. Ошибка размера проявится на первом Resume.
func NewExporter(src *schematic.Schematic, opts ExportOptions) *Exporter {
	e := &Exporter{src: src, opts: opts}
	e.doc, e.err = headerOf(src)
	if e.err == nil {
		n := src.Size().Volume()
		e.doc.Blocks = make([]byte, n)
		e.doc.Data = make([]byte, n)
	}
	return e
}

// Stage возвращает текущую стадию
func (e *Exporter) Stage() Stage {
	return e.stage
}

// Resume выполняет не больше budget вокселей работы в стадиях копирования
// (при budget <= 0 без ограничения) или одну стадию кодирования/сжатия целиком,
// сообщает прогресс и возвращает стадию, с которой продолжится работа.
func (e *Exporter) Resume(budget int) (Stage, error) {
	if e.err != nil {
		return e.stage, e.err
	}
	if e.stage == StageDone {
		return StageDone, nil
	}

	switch e.stage {
	case StageBlocks:
		e.copyStep(e.src.IDs(), e.doc.Blocks, budget)
	case StageData:
		e.copyStep(e.src.Metas(), e.doc.Data, budget)
	case StageEncode:
		e.encode()
	case StageCompress:
		e.compress()
	}
	if e.err != nil {
		return e.stage, e.err
	}

	e.report()
	return e.stage, nil
}

// Result возвращает байты файла после StageDone
func (e *Exporter) Result() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.stage != StageDone {
		return nil, fmt.Errorf("%w: стадия %s", ErrNotFinished, e.stage)
	}
	return e.out, nil
}

func (e *Exporter) copyStep(src, dst []byte, budget int) {
	end := len(src)
	if budget > 0 && e.cursor+budget < end {
		end = e.cursor + budget
	}
	copy(dst[e.cursor:end], src[e.cursor:end])
	e.cursor = end
	if e.cursor >= len(src) {
		e.advance()
	}
}

func (e *Exporter) encode() {
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(e.doc, RootTag); err != nil {
		e.err = fmt.Errorf("schemfile: кодирование: %w", err)
		return
	}
	e.raw = buf.Bytes()
	e.advance()
}

func (e *Exporter) compress() {
	if !e.opts.Compress {
		e.out = e.raw
		e.advance()
		return
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(e.raw); err != nil {
		e.err = fmt.Errorf("schemfile: gzip: %w", err)
		return
	}
	if err := zw.Close(); err != nil {
		e.err = fmt.Errorf("schemfile: gzip: %w", err)
		return
	}
	e.out = buf.Bytes()
	e.advance()
}

func (e *Exporter) advance() {
	e.opts.Metrics.ExportStage(e.stage.String())
	e.stage++
	e.cursor = 0
}

// report сообщает процент внутри текущей стадии
func (e *Exporter) report() {
	if e.opts.Observer == nil {
		return
	}
	percent := stageStart[e.stage]
	if e.stage == StageBlocks || e.stage == StageData {
		span := stageStart[e.stage+1] - stageStart[e.stage]
		if n := len(e.doc.Blocks); n > 0 {
			percent += span * e.cursor / n
		}
	}
	e.opts.Observer.Progress(percent, e.stage.String())
}

// Encode выполняет экспорт целиком
func Encode(s *schematic.Schematic, opts ExportOptions) ([]byte, error) {
	e := NewExporter(s, opts)
	for {
		stage, err := e.Resume(0)
		if err != nil {
			return nil, err
		}
		if stage == StageDone {
			return e.Result()
		}
	}
}
