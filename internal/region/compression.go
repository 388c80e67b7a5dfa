package region

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression байт метода сжатия перед данными чанка
type Compression byte

const (
	CompressionGzip Compression = 1
	CompressionZlib Compression = 2
	CompressionNone Compression = 3
)

// String возвращает имя метода
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionNone:
		return "none"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

// ParseCompression разбирает имя метода из конфигурации
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "gzip":
		return CompressionGzip, nil
	case "zlib", "":
		return CompressionZlib, nil
	case "none", "raw":
		return CompressionNone, nil
	}
	return 0, fmt.Errorf("region: неизвестный метод сжатия %q", s)
}

// Decompress распаковывает данные чанка. Неизвестный метод считается
// уже распакованными данными.
func Decompress(c Compression, data []byte) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch c {
	case CompressionGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case CompressionZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("region: %s: %w", c, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("region: распаковка %s: %w", c, err)
	}
	return out, nil
}

// Compress сжимает документ чанка выбранным методом
func Compress(c Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZlib:
		w = zlib.NewWriter(&buf)
	case CompressionNone:
		return data, nil
	default:
		return nil, fmt.Errorf("region: запись методом %s не поддерживается", c)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("region: сжатие %s: %w", c, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("region: сжатие %s: %w", c, err)
	}
	return buf.Bytes(), nil
}
