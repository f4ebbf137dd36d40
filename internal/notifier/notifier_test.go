package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ZoneBacktester/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = url
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1}}`)
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).Send(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
}

func TestNotify_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Notify(context.Background(), "x"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotify_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	n.MaxRetries = 2
	err := n.Notify(context.Background(), "x")
	assert.ErrorContains(t, err, "gave up after 3 attempts")
	assert.ErrorContains(t, err, "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotify_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	n.Backoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Notify(ctx, "x")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListen(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		if polls.Add(1) == 1 {
			fmt.Fprint(w, `{"ok":true,"result":[`+
				`{"update_id":7,"message":{"text":" /help ","chat":{"id":42}}},`+
				`{"update_id":8,"message":{"text":"/run","chat":{"id":99}}},`+
				`{"update_id":9}]}`)
			return
		}
		assert.Equal(t, float64(10), p["offset"])
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		replies = append(replies, p["text"].(string))
		mu.Unlock()
		fmt.Fprint(w, `{"ok":true}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var commands []string
	go func() {
		testNotifier(srv.URL).Listen(ctx, func(cmd string) string {
			commands = append(commands, cmd)
			return "pong"
		})
		close(done)
	}()

	require.Eventually(t, func() bool { return polls.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"/help"}, commands)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pong"}, replies)
}

func TestFormatRunReport(t *testing.T) {
	s := report.Summary{
		Symbol: "AUDUSD", RiskReward: 2.45, InitialBalance: 10000, FinalBalance: 10245,
		ReturnPct: 2.45, Trades: 3, Wins: 2, Losses: 1, WinRate: 66.7, Degenerate: 1,
	}
	msg := FormatRunReport("abc-123", s, []string{"output/a_trades.csv"})
	assert.Contains(t, msg, "<b>AUDUSD backtest</b> | RR 2.45")
	assert.Contains(t, msg, "<code>abc-123</code>")
	assert.Contains(t, msg, "2 TP / 1 SL")
	assert.Contains(t, msg, "zero-range")
	assert.Contains(t, msg, "output/a_trades.csv")
}

func TestFormatError(t *testing.T) {
	msg := FormatError("collect", errors.New("bad <row>"))
	assert.Contains(t, msg, "collect")
	assert.Contains(t, msg, "bad &lt;row&gt;")
}
