package sensor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheusHen/lwcfb/lwcfb/block"
	"github.com/TheusHen/lwcfb/lwcfb/relay/memory"
)

func newTestHandler(t *testing.T) (http.Handler, *Producer, *memory.Bus) {
	t.Helper()
	bus := memory.New()
	t.Cleanup(func() { _ = bus.Close() })
	p := NewProducer(newSession(t, block.Feistel), bus, "", zerolog.Nop())
	return NewHandler(p, zerolog.Nop()), p, bus
}

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postJSON(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSendForm(t *testing.T) {
	h, p, bus := newTestHandler(t)
	ch, err := bus.Subscribe(context.Background(), p.Topic())
	require.NoError(t, err)

	w := postForm(h, url.Values{"reading": {"23.50"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var sub Submission
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, "23.5", sub.Reading)
	assert.Equal(t, DefaultTopic, sub.Topic)

	m := <-ch
	assert.Equal(t, sub.Encoded, m.Payload)
	assert.Equal(t, sub.ID, m.ID)
}

func TestSendLegacyField(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := postForm(h, url.Values{"suhu": {"30"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reading":"30.0"`)
}

func TestSendJSON(t *testing.T) {
	h, _, _ := newTestHandler(t)
	for body, want := range map[string]string{
		`{"reading": 21.75}`:   "21.75",
		`{"reading": "18"}`:    "18.0",
		`{"suhu": 1e16}`:       "1e+16",
		`{"reading": "-0.00"}`: "-0.0",
	} {
		w := postJSON(h, body)
		require.Equal(t, http.StatusOK, w.Code, body)
		var sub Submission
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
		assert.Equal(t, want, sub.Reading, body)
	}
}

func TestSendRejectsBadInput(t *testing.T) {
	h, _, bus := newTestHandler(t)
	ch, err := bus.Subscribe(context.Background(), DefaultTopic)
	require.NoError(t, err)

	for _, w := range []*httptest.ResponseRecorder{
		postForm(h, url.Values{}),
		postForm(h, url.Values{"reading": {"hot"}}),
		postForm(h, url.Values{"reading": {"NaN"}}),
		postJSON(h, `{"reading": true}`),
		postJSON(h, `{"reading":`),
		postJSON(h, `{}`),
	} {
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body["error"], "sensor: invalid")
	}

	select {
	case m := <-ch:
		t.Fatalf("invalid input was published: %+v", m)
	default:
	}
}

func TestSendPublishFailure(t *testing.T) {
	p := NewProducer(newSession(t, block.Feistel), failingPublisher{}, "", zerolog.Nop())
	h := NewHandler(p, zerolog.Nop())

	w := postForm(h, url.Values{"reading": {"22"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "publish failed")
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","topic":"suhu/secure"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/send", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
