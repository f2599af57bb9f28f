package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwiater/physbench/internal/util"
)

// maxPayloadRunes caps request/response bodies written to the log.
const maxPayloadRunes = 2000

var (
	mu      sync.Mutex
	logFile *os.File
	debug   bool
	runID   string
)

// Init routes the standard logger to stdout and, when logPath is set, to an append-only log file.
func Init(logPath string, debugEnabled bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	debug = debugEnabled

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// SetRunID tags every subsequent log line with the given run identifier.
func SetRunID(id string) {
	mu.Lock()
	defer mu.Unlock()
	runID = strings.TrimSpace(id)
}

func LogEvent(format string, args ...any) {
	log.Println(withRun(fmt.Sprintf(format, args...)))
}

// Debugf logs only when debug logging is enabled.
func Debugf(format string, args ...any) {
	if !DebugEnabled() {
		return
	}
	LogEvent("[DEBUG] "+format, args...)
}

func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

// LogRequest records one request or response body exchanged with a model endpoint.
// Payloads are only written in debug mode.
func LogRequest(direction, host, model string, payload any) {
	if !DebugEnabled() {
		return
	}
	log.Println(withRun(buildRequestMessage(direction, host, model, payload)))
}

func withRun(msg string) string {
	mu.Lock()
	id := runID
	mu.Unlock()
	if id == "" {
		return msg
	}
	return "run=" + id + " " + msg
}

func buildRequestMessage(direction, host, model string, payload any) string {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	hostValue := strings.TrimSpace(host)
	if hostValue == "" {
		hostValue = "unknown"
	}
	modelValue := strings.TrimSpace(model)
	if modelValue == "" {
		modelValue = "unknown"
	}
	parts := []string{
		fmt.Sprintf("[%s]", dir),
		fmt.Sprintf("host=%s", hostValue),
		fmt.Sprintf("model=%s", modelValue),
		fmt.Sprintf("payload=%s", util.TruncateRunes(formatPayload(payload), maxPayloadRunes)),
	}
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
