package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации voxelkit.
// Пустые поля заменяются значениями из окружения или дефолтами в геттерах.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Region  RegionConfig  `yaml:"region"`
	Palette PaletteConfig `yaml:"palette"`
	Export  ExportConfig  `yaml:"export"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type RegionConfig struct {
	Dir         string `yaml:"dir"`
	Compression string `yaml:"compression"`
}

// BlockRef пара id/meta в конфиге
type BlockRef struct {
	ID   *int `yaml:"id"`
	Meta *int `yaml:"meta"`
}

type PaletteConfig struct {
	MissingBlock BlockRef `yaml:"missing_block"`
}

type ExportConfig struct {
	StageBudget int `yaml:"stage_budget"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default возвращает пустую конфигурацию: все значения берутся из env или дефолтов
func Default() *Config {
	return &Config{}
}

// GetLevel возвращает уровень логирования
func (l *LogConfig) GetLevel() string {
	return getStringWithEnvFallback(l.Level, "VOXELKIT_LOG_LEVEL", "INFO")
}

// GetDir возвращает каталог файловых логов
func (l *LogConfig) GetDir() string {
	return getStringWithEnvFallback(l.Dir, "VOXELKIT_LOG_DIR", "logs")
}

// GetPath возвращает путь к хранилищу чанков
func (s *StorageConfig) GetPath() string {
	return getStringWithEnvFallback(s.Path, "VOXELKIT_STORAGE_PATH", "data")
}

// GetDir возвращает каталог region-файлов
func (r *RegionConfig) GetDir() string {
	return getStringWithEnvFallback(r.Dir, "VOXELKIT_REGION_DIR", "region")
}

// GetCompression возвращает имя сжатия для записи region-файлов
func (r *RegionConfig) GetCompression() string {
	return strings.ToLower(getStringWithEnvFallback(r.Compression, "VOXELKIT_REGION_COMPRESSION", "zlib"))
}

// GetMissingBlock возвращает блок-заглушку для неизвестных состояний палитры.
// По умолчанию камень (1:0).
func (p *PaletteConfig) GetMissingBlock() (id, meta uint8) {
	id = uint8(getIntWithEnvFallback(p.MissingBlock.ID, "VOXELKIT_MISSING_BLOCK_ID", 1))
	meta = uint8(getIntWithEnvFallback(p.MissingBlock.Meta, "VOXELKIT_MISSING_BLOCK_META", 0) & 0x0F)
	return id, meta
}

// GetStageBudget возвращает бюджет шагов экспорта за один вызов, 0 означает без ограничения
func (e *ExportConfig) GetStageBudget() int {
	if e.StageBudget > 0 {
		return e.StageBudget
	}
	if envVal := os.Getenv("VOXELKIT_EXPORT_STAGE_BUDGET"); envVal != "" {
		if n, err := strconv.Atoi(envVal); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// GetAddr возвращает адрес эндпоинта метрик; пустая строка отключает его
func (m *MetricsConfig) GetAddr() string {
	return getStringWithEnvFallback(m.Addr, "VOXELKIT_METRICS_ADDR", "")
}

// getStringWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// getIntWithEnvFallback то же для чисел; nil в конфиге означает "не задано"
func getIntWithEnvFallback(configVal *int, envVar string, defaultVal int) int {
	if configVal != nil && *configVal >= 0 {
		return *configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if n, err := strconv.Atoi(envVal); err == nil && n >= 0 {
			return n
		}
	}
	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXELKIT_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXELKIT_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
