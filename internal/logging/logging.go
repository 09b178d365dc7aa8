package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds the per-session log file path, e.g.
// logs/boatsync.20240131_154500.log.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.UTC().Format("20060102_150405")),
	)
}
