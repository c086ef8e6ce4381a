package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"todolist/backend/internal/api"
)

// Watch opens an update channel and calls fn for every update until ctx is
// done, the server closes the channel, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(api.Update) error) error {
	ch, err := c.OpenChannel(ctx)
	if err != nil {
		return err
	}

	u := c.endpoint("/channel/connect")
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{api.ParamToken: {ch.Token}}.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("connect update channel: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		var update api.Update
		if err := conn.ReadJSON(&update); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("read update: %w", err)
		}
		if err := fn(update); err != nil {
			return err
		}
	}
}
