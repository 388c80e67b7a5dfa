package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Компоненты с отдельными файлами логов
const (
	ComponentRegion  = "region"
	ComponentStorage = "storage"
	ComponentExport  = "export"
)

// LoggerManager выдаёт по одному логгеру на компонент
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[string]*Logger)}
	})
	return globalManager
}

func (lm *LoggerManager) lookup(component string) (*Logger, bool) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	l, ok := lm.loggers[component]
	return l, ok
}

// GetLogger возвращает файловый логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	if l, ok := lm.lookup(component); ok {
		return l, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l, nil
	}
	l, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	lm.loggers[component] = l
	return l, nil
}

// MustGetLogger возвращает логгер компонента. Если файл открыть не удалось,
// компонент получает консольный логгер, и он же переиспользуется дальше.
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	l, err := lm.GetLogger(component)
	if err == nil {
		return l
	}

	settingsMu.RLock()
	level := consoleLevel
	settingsMu.RUnlock()

	fallback := NewConsoleLogger(component, level)
	fallback.Warn("⚠️ Файловый лог недоступен: %v", err)

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if existing, ok := lm.loggers[component]; ok {
		return existing
	}
	lm.loggers[component] = fallback
	return fallback
}

// CloseAll закрывает все логгеры и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// ListComponents возвращает имена компонентов по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// SetLogLevel меняет уровни уже созданного логгера
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	l, ok := lm.lookup(component)
	if !ok {
		return fmt.Errorf("логгер %s не найден", component)
	}
	l.minConsoleLevel = consoleLevel
	l.minFileLevel = fileLevel
	return nil
}

// GetComponentLogger логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetRegionLogger() *Logger {
	return GetComponentLogger(ComponentRegion)
}

func GetStorageLogger() *Logger {
	return GetComponentLogger(ComponentStorage)
}

func GetExportLogger() *Logger {
	return GetComponentLogger(ComponentExport)
}
