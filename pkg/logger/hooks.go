package logger

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// levelOf recovers the LogLevel stored on an entry. Entries logged straight
// through logrus (e.g. by a library) fall back to a level derived from logrus.
func levelOf(entry *logrus.Entry) LogLevel {
	if lvl, ok := entry.Data[fieldLevel].(LogLevel); ok {
		return lvl
	}
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return LevelCritical
	case logrus.ErrorLevel:
		return LevelError
	case logrus.WarnLevel:
		return LevelWarn
	case logrus.DebugLevel, logrus.TraceLevel:
		return LevelDebug
	default:
		return LevelInfo
	}
}

func prefixOf(entry *logrus.Entry) string {
	if p, ok := entry.Data[fieldPrefix].(string); ok {
		return p
	}
	return "-"
}

// consoleFormatter renders "[time] [LEVEL] [prefix]: message".
type consoleFormatter struct {
	colors bool
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := levelOf(entry)
	tag := level.String()
	if f.colors {
		tag = level.Color() + tag + colorReset
	}
	line := fmt.Sprintf("[%s] [%s] [%s]: %s\n",
		entry.Time.Format(timestampFormat),
		tag,
		prefixOf(entry),
		entry.Message,
	)
	return []byte(line), nil
}

// fileHook appends every entry to combined.log and errors to error.log.
type fileHook struct {
	mu        sync.Mutex
	combined  *os.File
	errors    *os.File
	formatter *consoleFormatter
}

func newFileHook(dir string) *fileHook {
	h := &fileHook{formatter: &consoleFormatter{}}

	var err error
	h.combined, err = os.OpenFile(filepath.Join(dir, "combined.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Printf("Error opening combined log file: %v\n", err)
	}
	h.errors, err = os.OpenFile(filepath.Join(dir, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Printf("Error opening error log file: %v\n", err)
	}
	return h
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.combined != nil {
		_, _ = h.combined.Write(line)
	}
	if levelOf(entry) <= LevelError && h.errors != nil {
		_, _ = h.errors.Write(line)
	}
	return nil
}

func (h *fileHook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.combined != nil {
		_ = h.combined.Close()
		h.combined = nil
	}
	if h.errors != nil {
		_ = h.errors.Close()
		h.errors = nil
	}
}

// webhookHook mirrors entries to Discord webhooks as embeds. Errors go to the
// error webhook, everything else to the logs webhook.
type webhookHook struct {
	errorURL string
	logsURL  string
	client   *http.Client
}

func newWebhookHook(errorURL, logsURL string) *webhookHook {
	return &webhookHook{
		errorURL: errorURL,
		logsURL:  logsURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (h *webhookHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *webhookHook) Fire(entry *logrus.Entry) error {
	level := levelOf(entry)
	url := h.logsURL
	if level <= LevelError {
		url = h.errorURL
	}
	if url == "" {
		return nil
	}
	go h.send(url, level, prefixOf(entry), entry.Message)
	return nil
}

func (h *webhookHook) send(url string, level LogLevel, prefix, message string) {
	payload := map[string]any{
		"embeds": []any{
			map[string]any{
				"title":       fmt.Sprintf("[%s] %s", level.String(), prefix),
				"description": fmt.Sprintf("```%s```", message),
				"color":       level.DiscordColor(),
				"timestamp":   time.Now().Format(time.RFC3339),
				"footer": map[string]string{
					"text": "PancyStudio | App Commands",
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}
