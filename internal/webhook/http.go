package webhook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// MaxBodyBytes caps the size of a delivery accepted by the HTTP adapters.
const MaxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("webhook body exceeds limit")

// Handler returns a single-endpoint http.Handler. Non-POST requests get 405 and processing
// failures get 500.
func (p *Processor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			p.writeJSON(w, Response{
				Status: http.StatusMethodNotAllowed,
				Body:   map[string]string{"error": "Method not allowed"},
			})
			return
		}

		body, err := readBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			p.writeJSON(w, Response{Status: status, Body: map[string]string{"error": err.Error()}})
			return
		}

		resp, err := p.HandleRequest(r.Context(), body, r.Header)
		if err != nil {
			p.logger.Error("webhook processing failed", zap.Error(err))
			p.writeJSON(w, Response{
				Status: http.StatusInternalServerError,
				Body:   map[string]string{"error": "Internal server error"},
			})
			return
		}
		p.writeJSON(w, resp)
	})
}

// Middleware answers POST deliveries itself and hands everything else to next. When processing
// fails the request, with its body restored, falls through to next.
func (p *Processor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		body, err := readBody(r)
		if err == nil {
			var resp Response
			resp, err = p.HandleRequest(r.Context(), body, r.Header)
			if err == nil {
				p.writeJSON(w, resp)
				return
			}
		}

		p.logger.Debug("webhook middleware passing request on", zap.Error(err))
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (p *Processor) writeJSON(w http.ResponseWriter, resp Response) {
	data, err := resp.MarshalBody()
	if err != nil {
		p.logger.Error("encode webhook response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if _, err := w.Write(data); err != nil {
		p.logger.Warn("write webhook response", zap.Error(err))
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read webhook body: %w", err)
	}
	if len(data) > MaxBodyBytes {
		return nil, errBodyTooLarge
	}
	return data, nil
}
