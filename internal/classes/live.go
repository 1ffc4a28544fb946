package classes

import (
	"context"
	"fmt"
	"net/http"

	"gymgo/internal/token"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AvailabilityUpdate is one live spots-left change for a class.
type AvailabilityUpdate struct {
	ClassID   string `json:"class_id"`
	SpotsLeft int    `json:"spots_left"`
}

// LiveFeed streams class availability over a websocket so screens can
// refresh spot counts without polling.
type LiveFeed struct {
	url    string
	dialer *websocket.Dialer
	tokens token.Store
	logger *zap.Logger
}

func NewLiveFeed(url string, tokens token.Store, logger *zap.Logger) *LiveFeed {
	return &LiveFeed{
		url:    url,
		dialer: websocket.DefaultDialer,
		tokens: tokens,
		logger: logger.With(zap.String("component", "live_feed")),
	}
}

// Subscribe connects and streams updates until the context is cancelled
// or the server closes the connection. The returned channel is closed
// when the stream ends.
func (f *LiveFeed) Subscribe(ctx context.Context) (<-chan AvailabilityUpdate, error) {
	header := http.Header{}
	bearer, err := f.tokens.Token(ctx)
	if err != nil {
		f.logger.Warn("failed to read stored token", zap.Error(err))
	}
	if bearer != "" {
		header.Set("Authorization", "Bearer "+bearer)
	}

	conn, _, err := f.dialer.DialContext(ctx, f.url, header)
	if err != nil {
		return nil, fmt.Errorf("could not connect to live feed: %w", err)
	}

	updates := make(chan AvailabilityUpdate)
	go func() {
		defer close(updates)
		defer conn.Close()

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		for {
			var update AvailabilityUpdate
			if err := conn.ReadJSON(&update); err != nil {
				if ctx.Err() == nil {
					f.logger.Warn("live feed closed", zap.Error(err))
				}
				return
			}
			select {
			case updates <- update:
			case <-ctx.Done():
				return
			}
		}
	}()

	f.logger.Info("Live feed connected", zap.String("url", f.url))
	return updates, nil
}
