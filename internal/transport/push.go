package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	handshakeTimeout    = 10 * time.Second
	initialReconnect    = time.Second
	maxReconnect        = 30 * time.Second
	tokenRefreshHeadway = time.Minute
)

// PushSubscriber maintains a WebSocket subscription to the backend's push
// channel and delivers alert envelopes to a handler callback. Malformed
// messages are dropped without touching state.
type PushSubscriber struct {
	url    string
	tokens TokenSource
	logger zerolog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	done       chan struct{}
	doneClosed bool
	onEnvelope func(Envelope)
}

// NewPushSubscriber creates a subscriber for the given ws:// or wss:// URL.
func NewPushSubscriber(url string, tokens TokenSource, logger zerolog.Logger) *PushSubscriber {
	return &PushSubscriber{
		url:    url,
		tokens: tokens,
		logger: logger.With().Str("component", "push").Logger(),
		done:   make(chan struct{}),
	}
}

// SetEnvelopeHandler sets the callback for incoming envelopes. Must be called
// before Run.
func (s *PushSubscriber) SetEnvelopeHandler(handler func(Envelope)) {
	s.onEnvelope = handler
}

// Run connects and reads envelopes until ctx is cancelled or Close is called,
// reconnecting with exponential backoff. When the bearer token is a JWT, the
// connection is recycled shortly before the token expires so the server never
// drops us mid-session.
func (s *PushSubscriber) Run(ctx context.Context) {
	backoff := initialReconnect
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		deadline, err := s.connect(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("push connect failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
			if backoff *= 2; backoff > maxReconnect {
				backoff = maxReconnect
			}
			continue
		}

		backoff = initialReconnect
		s.readLoop(deadline)
	}
}

// connect dials the push endpoint. It returns the time at which the
// connection should be recycled, or the zero time for no deadline.
func (s *PushSubscriber) connect(ctx context.Context) (time.Time, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	header := http.Header{}
	var deadline time.Time
	if s.tokens != nil {
		token, err := s.tokens.Token()
		if err != nil {
			return time.Time{}, err
		}
		header.Set("Authorization", "Bearer "+token)
		if exp := TokenExpiry(token); !exp.IsZero() {
			deadline = exp.Add(-tokenRefreshHeadway)
		}
	}

	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logger.Info().Str("url", s.url).Msg("push channel connected")
	return deadline, nil
}

// readLoop reads envelopes until the connection drops, Close is called, or
// the recycle deadline passes.
func (s *PushSubscriber) readLoop(deadline time.Time) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	defer conn.Close()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if !deadline.IsZero() {
			if time.Now().After(deadline) {
				s.logger.Info().Msg("recycling push connection before token expiry")
				return
			}
			_ = conn.SetReadDeadline(deadline)
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("push read error")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Debug().Err(&ValidationError{Reason: err.Error()}).Msg("dropping malformed push message")
			continue
		}
		if env.Type == "" {
			s.logger.Debug().Err(&ValidationError{Reason: "missing type"}).Msg("dropping malformed push message")
			continue
		}

		if s.onEnvelope != nil {
			s.onEnvelope(env)
		}
	}
}

// Close stops the subscriber and closes any open connection.
func (s *PushSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.doneClosed {
		close(s.done)
		s.doneClosed = true
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
