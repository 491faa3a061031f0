package background

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todo-app/common"
	"todo-app/entity"
	"todo-app/notifier"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const pushReconnectDelay = 5 * time.Second

// PushListener follows the server websocket. task_due events become
// notifications; every event triggers OnChange so a view can reload.
type PushListener struct {
	url      string
	token    func() string
	platform notifier.Platform
	dialer   *websocket.Dialer
	log      *zap.Logger

	OnChange func(common.WSMessage)
}

// NewPushListener derives the websocket URL from the API base URL, so
// http://host:8080 becomes ws://host:8080/ws.
func NewPushListener(baseURL string, token func() string, platform notifier.Platform, log *zap.Logger) (*PushListener, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("push listener: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/api") + "/ws"
	if log == nil {
		log = zap.NewNop()
	}
	return &PushListener{
		url:      u.String(),
		token:    token,
		platform: platform,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      log,
	}, nil
}

func (p *PushListener) URL() string { return p.url }

// Run keeps a connection open until ctx is done, reconnecting after
// failures.
func (p *PushListener) Run(ctx context.Context) {
	for {
		if err := p.listen(ctx); err != nil && ctx.Err() == nil {
			p.log.Warn("push connection lost", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pushReconnectDelay):
		}
	}
}

func (p *PushListener) listen(ctx context.Context) error {
	q := url.Values{"token": {p.token()}}
	conn, resp, err := p.dialer.DialContext(ctx, p.url+"?"+q.Encode(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("push listener: unauthorized")
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	p.log.Info("push connected", zap.String("url", p.url))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		p.Handle(data)
	}
}

// Handle processes one pushed frame.
func (p *PushListener) Handle(data []byte) {
	var msg common.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		p.log.Debug("ignore push frame", zap.Error(err))
		return
	}
	if msg.Event == entity.NotificationTaskDue && p.platform.Permission() == notifier.PermissionGranted {
		n := notifier.DueNotification(entity.Task{ID: msg.TaskID, Title: msg.Title})
		if err := p.platform.Show(n); err != nil {
			p.log.Warn("show pushed notification", zap.Int("task_id", msg.TaskID), zap.Error(err))
			notifier.Observe("push", 0, 1)
		} else {
			notifier.Observe("push", 1, 0)
		}
	}
	if p.OnChange != nil {
		p.OnChange(msg)
	}
}
