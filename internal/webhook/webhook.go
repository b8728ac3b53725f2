// Package webhook verifies Notion webhook deliveries and dispatches their events to handlers.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

const (
	// SignatureHeader carries the "v0=<hex>" HMAC of the delivery.
	SignatureHeader = "X-Notion-Signature"
	// TimestampHeader carries the timestamp included in the signed string.
	TimestampHeader = "X-Notion-Timestamp"

	signatureVersion = "v0"
)

// Handler reacts to one event. A returned error stops dispatch of that event.
type Handler func(ctx context.Context, event Event) error

// Subscription identifies one registration of a Handler so it can be removed with Off.
type Subscription struct {
	handler Handler
}

// Config seeds a Processor with a secret and optional convenience handlers.
type Config struct {
	OnPageUpdate     Handler
	OnPageCreate     Handler
	OnPageDelete     Handler
	OnDatabaseUpdate Handler
	OnAnyEvent       Handler
	Secret           string
}

// Processor verifies and dispatches webhook deliveries. It is safe for concurrent use.
type Processor struct {
	handlers map[EventType][]*Subscription
	logger   *zap.Logger
	secret   []byte
	mu       sync.RWMutex
}

// Option customizes a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds a Processor, registering any convenience handlers set in cfg.
func New(cfg Config, opts ...Option) *Processor {
	p := &Processor{
		handlers: make(map[EventType][]*Subscription),
		logger:   zap.NewNop(),
		secret:   []byte(cfg.Secret),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.OnPageUpdate != nil {
		p.On(PageContentUpdated, cfg.OnPageUpdate)
		p.On(PagePropertiesUpdated, cfg.OnPageUpdate)
	}
	if cfg.OnPageCreate != nil {
		p.On(PageCreated, cfg.OnPageCreate)
	}
	if cfg.OnPageDelete != nil {
		p.On(PageDeleted, cfg.OnPageDelete)
	}
	if cfg.OnDatabaseUpdate != nil {
		p.On(DatabaseContentUpdated, cfg.OnDatabaseUpdate)
		p.On(DatabasePropertiesUpdated, cfg.OnDatabaseUpdate)
	}
	if cfg.OnAnyEvent != nil {
		p.On(Wildcard, cfg.OnAnyEvent)
	}
	return p
}

// On appends handler to the handlers for eventType and returns its subscription.
func (p *Processor) On(eventType EventType, handler Handler) *Subscription {
	sub := &Subscription{handler: handler}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], sub)
	return sub
}

// Off removes sub from the handlers for eventType. Unknown subscriptions are ignored.
func (p *Processor) Off(eventType EventType, sub *Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.handlers[eventType]
	for i, s := range subs {
		if s == sub {
			p.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// VerifySignature reports whether signature is "v0=" followed by the hex HMAC-SHA256 of
// "v0:<timestamp>:<payload>" under the shared secret.
func (p *Processor) VerifySignature(payload []byte, signature, timestamp string) bool {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(payload)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleRequest verifies and dispatches one delivery.
//
// url_verification payloads are answered with their challenge without a signature check.
// Other payloads are verified only when both signature headers are present. Event handlers run
// serially, specific ones first and then wildcard ones; the first handler error aborts
// dispatch and is returned.
func (p *Processor) HandleRequest(ctx context.Context, body []byte, headers http.Header) (Response, error) {
	var msg payload
	if err := json.Unmarshal(body, &msg); err != nil {
		return Response{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	if msg.Type == payloadURLVerification {
		return Response{Status: http.StatusOK, Body: map[string]string{"challenge": msg.VerificationToken}}, nil
	}

	signature := headers.Get(SignatureHeader)
	timestamp := headers.Get(TimestampHeader)
	if signature != "" && timestamp != "" {
		if !p.VerifySignature(body, signature, timestamp) {
			p.logger.Warn("webhook signature mismatch", zap.String("timestamp", timestamp))
			return Response{Status: http.StatusUnauthorized, Body: map[string]string{"error": "Invalid signature"}}, nil
		}
	}

	if msg.Type == payloadEvent && msg.Event != nil {
		if err := p.dispatch(ctx, *msg.Event); err != nil {
			return Response{}, err
		}
	}
	return Response{Status: http.StatusOK, Body: map[string]bool{"ok": true}}, nil
}

func (p *Processor) dispatch(ctx context.Context, event Event) error {
	p.mu.RLock()
	subs := make([]*Subscription, 0, len(p.handlers[event.Type])+len(p.handlers[Wildcard]))
	subs = append(subs, p.handlers[event.Type]...)
	if event.Type != Wildcard {
		subs = append(subs, p.handlers[Wildcard]...)
	}
	p.mu.RUnlock()

	p.logger.Debug("dispatching webhook event",
		zap.String("type", string(event.Type)),
		zap.Bool("known", event.Type.Known()),
		zap.Int("handlers", len(subs)),
	)
	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil {
			return fmt.Errorf("handle %s event: %w", event.Type, err)
		}
	}
	return nil
}

// HeadersFromMap converts a plain header map into an http.Header with canonical keys.
func HeadersFromMap(m map[string]string) http.Header {
	headers := make(http.Header, len(m))
	for k, v := range m {
		headers.Set(k, v)
	}
	return headers
}
