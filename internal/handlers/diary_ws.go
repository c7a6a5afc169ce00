package handlers

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/services"
	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
	wsWriteWait  = 10 * time.Second
)

var diaryUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS layer
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DiaryWebSocket streams the caller's diary events (entry_created,
// like_toggled) so open views can refresh. Auth is the session token, as a
// Bearer header or ?token= for browser clients.
func DiaryWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionOwner(r, true)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}
	ownerID := userID.String()

	conn, err := diaryUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := services.DefaultDiaryHub().Subscribe(ownerID)
	defer unsubscribe()

	// only this goroutine writes to conn
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case ev, open := <-events:
				if !open {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// client messages carry nothing; reading drives pongs and close detection
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}
