// Package stream consumes the server event feed over websocket and
// hands raw frames to the session's ingress. There is no reconnect: if
// the feed drops, the session keeps its last known state.
package stream

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/domain"
)

type Dialer struct {
	base string
}

func NewDialer(baseURL string) *Dialer {
	return &Dialer{base: baseURL}
}

func (d *Dialer) Dial(ctx context.Context, meeting domain.MeetingID, user domain.UserID, sink func([]byte)) (io.Closer, error) {
	u, err := url.Parse(d.base)
	if err != nil {
		return nil, fmt.Errorf("event feed url: %w", err)
	}
	q := u.Query()
	q.Set("meeting", string(meeting))
	q.Set("user", string(user))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("event feed dial: %w", err)
	}
	f := &feed{conn: conn, meeting: meeting}
	go f.readPump(sink)
	log.Info().Str("module", "stream").Str("meeting", string(meeting)).Msg("event feed connected")
	return f, nil
}

type feed struct {
	conn    *websocket.Conn
	meeting domain.MeetingID
	once    sync.Once
}

func (f *feed) readPump(sink func([]byte)) {
	defer f.Close()
	for {
		_, data, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "stream").Str("meeting", string(f.meeting)).Msg("event feed read error")
			}
			return
		}
		sink(data)
	}
}

func (f *feed) Close() error {
	f.once.Do(func() {
		_ = f.conn.Close()
	})
	return nil
}
