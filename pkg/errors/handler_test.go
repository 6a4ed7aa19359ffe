package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PancyStudios/appcommands/pkg/discord"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestDispatchHookCountsFailures(t *testing.T) {
	h := NewErrorHandler("", nil)
	ctx := &discord.CommandContext{TraceID: "trace"}

	h.DispatchHook(ctx, stderrors.New("boom"))
	h.DispatchHook(ctx, fmt.Errorf("%w: pre-check of ping", discord.ErrCheckFailure))

	require.Equal(t, 1, h.ErrorCount())
}

func TestHandlePanic(t *testing.T) {
	h := NewErrorHandler("", nil)
	h.HandlePanic("kaboom")
	h.HandlePanic(stderrors.New("nil map"))

	require.Equal(t, int64(2), h.PanicCount())
	require.Equal(t, 2, h.ErrorCount())
}

func TestCheckShutsDownOverLimit(t *testing.T) {
	var shutdown bool
	var code int
	h := NewErrorHandler("", func() { shutdown = true })
	h.exit = func(c int) { code = c }
	h.maxErrors = 2

	h.IncrementError()
	h.IncrementError()
	require.False(t, h.check())
	require.False(t, shutdown)

	h.IncrementError()
	require.True(t, h.check())
	require.True(t, shutdown)
	require.Equal(t, 1, code)
}

func TestReportPostsEmbed(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := NewErrorHandler(srv.URL, nil)
	h.Report(context.Background(), ReportErrorOptions{Error: "Test", Message: "something broke"})

	embeds, ok := body["embeds"].([]any)
	require.True(t, ok)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	require.Equal(t, "something broke", embed["description"])
	require.Equal(t, "Error Test", embed["author"].(map[string]any)["name"])
}

func TestReportWithoutWebhookIsNoop(t *testing.T) {
	h := NewErrorHandler("", nil)
	require.NotPanics(t, func() {
		h.Report(context.Background(), ReportErrorOptions{Error: "x"})
	})
}

func TestRecoverMiddleware(t *testing.T) {
	require.NotPanics(t, func() {
		defer RecoverMiddleware()()
		panic("recovered")
	})
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewErrorHandler("", nil)
	h.Start()
	h.Stop()
	require.NotPanics(t, h.Stop)
}
