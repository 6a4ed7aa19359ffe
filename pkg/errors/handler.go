// Package errors counts dispatch failures and recovered panics and shuts the
// process down when they pile up faster than they are reset.
package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/PancyStudios/appcommands/pkg/logger"
	"github.com/goccy/go-json"
)

// ErrorHandler manages error counting and reporting
type ErrorHandler struct {
	errorCount    int32
	panicCount    int64
	webhookURL    string
	client        *http.Client
	stopOnce      sync.Once
	stopChan      chan struct{}
	shutdownFunc  func()
	exit          func(code int)
	maxErrors     int32
	resetInterval time.Duration
	checkInterval time.Duration
}

// ReportErrorOptions contains options for reporting an error
type ReportErrorOptions struct {
	Error   string
	Message string
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler and starts its watchdog
func Init(webhookURL string, shutdownFunc func()) *ErrorHandler {
	once.Do(func() {
		handler = NewErrorHandler(webhookURL, shutdownFunc)
		handler.Start()
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return handler
}

// NewErrorHandler creates a new ErrorHandler instance. The watchdog is not
// running until Start is called.
func NewErrorHandler(webhookURL string, shutdownFunc func()) *ErrorHandler {
	return &ErrorHandler{
		webhookURL:    webhookURL,
		client:        &http.Client{Timeout: 10 * time.Second},
		stopChan:      make(chan struct{}),
		shutdownFunc:  shutdownFunc,
		exit:          os.Exit,
		maxErrors:     15,
		resetInterval: 5 * time.Second,
		checkInterval: 1 * time.Second,
	}
}

// Start begins the reset and check loops
func (h *ErrorHandler) Start() {
	go func() {
		ticker := time.NewTicker(h.resetInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				atomic.StoreInt32(&h.errorCount, 0)
			case <-h.stopChan:
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(h.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.check()
			case <-h.stopChan:
				return
			}
		}
	}()
}

// check shuts the process down when the error count is over the limit.
func (h *ErrorHandler) check() bool {
	if atomic.LoadInt32(&h.errorCount) <= h.maxErrors {
		return false
	}

	start := time.Now()
	logger.Warn("Se detectó un número demasiado alto de errores", "CRITICAL")
	logger.Warn("Apagando...", "CRITICAL")

	h.Report(context.Background(), ReportErrorOptions{
		Error:   "Critical Error",
		Message: "Número inusual de errores en comandos. Apagando...",
	})

	if h.shutdownFunc != nil {
		h.shutdownFunc()
	}

	logger.Warn(fmt.Sprintf("Finalizando proceso... Tiempo total: %v", time.Since(start)), "CRITICAL")
	h.exit(1)
	return true
}

// Stop stops the watchdog
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// IncrementError increments the error count
func (h *ErrorHandler) IncrementError() {
	count := atomic.AddInt32(&h.errorCount, 1)
	logger.Debug(fmt.Sprintf("Error count: %d", count), "AntiCrash")
}

// ErrorCount returns the errors counted since the last reset
func (h *ErrorHandler) ErrorCount() int {
	return int(atomic.LoadInt32(&h.errorCount))
}

// PanicCount returns every panic handled since start
func (h *ErrorHandler) PanicCount() int64 {
	return atomic.LoadInt64(&h.panicCount)
}

// HandlePanic handles a recovered panic. It matches Dispatcher.OnPanic.
func (h *ErrorHandler) HandlePanic(recovered any) {
	atomic.AddInt64(&h.panicCount, 1)
	h.IncrementError()
	logger.Debug("Unhandled Panic/Catch", "AntiCrash")
	logger.Error(fmt.Sprintf("%v", recovered), "SYS")
}

// DispatchHook logs a failed command and counts it. It matches
// Dispatcher.OnError; check failures are expected and not counted.
func (h *ErrorHandler) DispatchHook(ctx *discord.CommandContext, err error) {
	discord.DefaultErrorHook(ctx, err)
	if IsCheckFailure(err) {
		return
	}
	h.IncrementError()
}

// IsCheckFailure reports whether err came from a failed check.
func IsCheckFailure(err error) bool {
	return stderrors.Is(err, discord.ErrCheckFailure)
}

// Report sends an error report to the Discord webhook
func (h *ErrorHandler) Report(ctx context.Context, data ReportErrorOptions) {
	if h.webhookURL == "" {
		return
	}

	embed := map[string]any{
		"author": map[string]string{
			"name": fmt.Sprintf("Error %s", data.Error),
		},
		"description": data.Message,
		"color":       0xFF0000,
		"footer": map[string]string{
			"text": "appcommands",
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(map[string]any{"embeds": []any{embed}})
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to marshal error report: %v", err), "AntiCrash")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to create webhook request: %v", err), "AntiCrash")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send error report: %v", err), "AntiCrash")
		return
	}
	defer resp.Body.Close()

	logger.Warn(fmt.Sprintf("Sent ErrorReport to Webhook, Status: %d", resp.StatusCode), "AntiCrash")
}

// RecoverMiddleware returns a recovery function for use in deferred calls
func RecoverMiddleware() func() {
	return func() {
		if r := recover(); r != nil {
			if handler != nil {
				handler.HandlePanic(r)
			} else {
				logger.Error(fmt.Sprintf("Panic recovered (no handler): %v", r), "AntiCrash")
			}
		}
	}
}
