package common

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger, falling back to a bare console logger
// if SetupLogger hasn't run yet (e.g. in a test binary).
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		defer loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriterConfig(""))
	}
	return globalLogger
}

// SetupLogger builds the process logger from Config and installs it globally.
func SetupLogger(cfg *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	hasFile, hasConsole := false, false
	for _, out := range cfg.Logging.Output {
		switch out {
		case "file":
			hasFile = true
		case "stdout", "console":
			hasConsole = true
		}
	}

	if hasFile {
		logger = logger.WithFileWriter(consoleWriterConfig("anycrawl.log"))
	}
	if hasConsole || !hasFile {
		logger = logger.WithConsoleWriter(consoleWriterConfig(""))
	}

	logger = logger.WithLevelFromString(cfg.Logging.Level)

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()

	return logger
}

func consoleWriterConfig(fileName string) models.WriterConfiguration {
	writerType := models.LogWriterTypeConsole
	if fileName != "" {
		writerType = models.LogWriterTypeFile
	}
	return models.WriterConfiguration{
		Type:       writerType,
		FileName:   fileName,
		TimeFormat: "15:04:05.000",
		MaxSize:    100 * 1024 * 1024,
		MaxBackups: 3,
	}
}
