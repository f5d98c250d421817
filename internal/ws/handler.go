package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/lobby"
	"github.com/DoyleJ11/veto-backend/internal/store"
	"github.com/DoyleJ11/veto-backend/internal/types"
	"github.com/DoyleJ11/veto-backend/internal/veto"
)

const writeTimeout = 3 * time.Second

// Handler streams a series' snapshots to the client: one on connect and one
// after every committed operation. Operations themselves go over HTTP.
func Handler(svc *veto.Service, originPatterns []string, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.URL.Query().Get("series"), 10, 64)
		if err != nil || id == 0 {
			http.Error(w, "missing or invalid series", http.StatusBadRequest)
			return
		}

		lb, err := svc.Lobby(r.Context(), uint(id))
		switch {
		case errors.Is(err, store.ErrSeriesNotFound):
			http.Error(w, "series not found", http.StatusNotFound)
			return
		case errors.Is(err, veto.ErrUnavailable):
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		case err != nil:
			log.Error("lobby lookup failed", zap.Uint64("series_id", id), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		// Catalog edits don't pass through the lobby, so joins carry a fresh copy.
		cat, err := svc.Catalog(r.Context())
		if err != nil {
			log.Error("catalog load failed", zap.Uint64("series_id", id), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		// Streams outlive the server's request timeouts.
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		clog := log.With(zap.Uint64("series_id", id), zap.String("client_id", clientID))

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out, Catalog: &cat}:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "series closed")
			return
		}
		clog.Debug("client joined")
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
			clog.Debug("client left")
		}()

		// Writer goroutine. The outbox is closed when the client leaves, is
		// dropped for being slow, or the lobby stops.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer conn.Close(websocket.StatusGoingAway, "series closed")
			for snap := range out {
				msg := types.NewSnapshotMessage(snap.Version, snap.Series, snap.Catalog)
				if err := write(writeCtx, conn, msg); err != nil {
					clog.Debug("write failed", zap.Error(err))
					return
				}
			}
		}()

		// Reader loop: the stream is read-only, so any message gets an error.
		for {
			_, _, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read failed", zap.Error(err))
				}
				return
			}
			_ = write(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Error: "stream is read-only; use the HTTP API"})
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
