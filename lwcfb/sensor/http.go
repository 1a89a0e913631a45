package sensor

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 4 << 10

type handler struct {
	producer *Producer
	logger   zerolog.Logger
}

// NewHandler returns the HTTP API in front of p:
//
//	POST /send    form field "reading" (or "suhu"), or JSON {"reading": ...}
//	GET  /health
func NewHandler(p *Producer, logger zerolog.Logger) http.Handler {
	h := &handler{producer: p, logger: logger.With().Str("component", "http").Logger()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	h.RegisterRoutes(r)
	return r
}

func (h *handler) RegisterRoutes(r chi.Router) {
	r.Post("/send", h.send)
	r.Get("/health", h.health)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "topic": h.producer.Topic()})
}

func (h *handler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	raw, err := readingFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sub, err := h.producer.Submit(r.Context(), raw)
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// readingFromRequest accepts a JSON body or a urlencoded/multipart form.
func readingFromRequest(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body struct {
			Reading json.RawMessage `json:"reading"`
			Suhu    json.RawMessage `json:"suhu"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", &InvalidInputError{Reason: "malformed JSON body"}
		}
		raw := body.Reading
		if len(raw) == 0 {
			raw = body.Suhu
		}
		return jsonScalar(raw)
	}

	v := r.FormValue("reading")
	if v == "" {
		v = r.FormValue("suhu")
	}
	return v, nil
}

// jsonScalar returns a JSON number verbatim or the contents of a JSON string.
func jsonScalar(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", &InvalidInputError{Reason: "malformed JSON string"}
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", &InvalidInputError{Input: string(raw), Reason: "not a number"}
	}
	return n.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
