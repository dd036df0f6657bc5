// Package logging builds the service-wide lecho logger. Output goes to
// stdout unless a log file path is configured, in which case every run
// writes its own timestamped file.
package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/ziflex/lecho/v3"
)

func Logger(logFilePath string) *lecho.Logger {
	logger := lecho.New(
		os.Stdout,
		lecho.WithLevel(log.DEBUG),
		lecho.WithTimestamp(),
	)
	if logFilePath == "" {
		return logger
	}

	file, err := OpenLogFile(logFilePath)
	if err != nil {
		logger.Errorf("Failed to open log file, keeping stdout: %v", err)
		return logger
	}
	logger.SetOutput(file)
	return logger
}

// OpenLogFile creates the log file with the start time stamped into its
// name, before the extension when there is one.
func OpenLogFile(path string) (*os.File, error) {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	if ext := filepath.Ext(path); ext != "" {
		path = strings.TrimSuffix(path, ext) + "-" + stamp + ext
	} else {
		path = path + "-" + stamp
	}
	return os.Create(path)
}
