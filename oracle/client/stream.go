package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GPTx-global/oraclelink/app"
	"github.com/GPTx-global/oraclelink/oracle/log"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// Stream delivers committed events after seq to handle, reconnecting with
// backoff whenever the connection drops. Events already handled are skipped
// after a reconnect. Stream returns when ctx is done or handle fails.
func (c *Client) Stream(ctx context.Context, after uint64, handle func(app.Event) error) error {
	backoff := time.Second
	for {
		last, err := c.streamOnce(ctx, after, handle)
		if last > after {
			after = last
			backoff = time.Second
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		var handleErr handlerError
		if errors.As(err, &handleErr) {
			return handleErr.err
		}
		log.Errorf("event stream interrupted after seq %d: %v, reconnecting in %v", after, err, backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

type handlerError struct{ err error }

func (h handlerError) Error() string { return h.err.Error() }

func (c *Client) streamURL(after uint64) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.base.Path + "/v1/events/ws"
	u.RawQuery = url.Values{"after": []string{strconv.FormatUint(after, 10)}}.Encode()
	return u.String()
}

// streamOnce runs a single connection and returns the last sequence handled.
func (c *Client) streamOnce(ctx context.Context, after uint64, handle func(app.Event) error) (uint64, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL(after), nil)
	if err != nil {
		return after, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	log.Infof("event stream connected, resuming after seq %d", after)

	// unblock ReadJSON on cancellation
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	last := after
	for {
		var ev app.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return last, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if ev.Seq <= last {
			continue
		}
		if err := handle(ev); err != nil {
			return last, handlerError{err: err}
		}
		last = ev.Seq
	}
}
