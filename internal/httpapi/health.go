package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/hub"
)

type healthCounts struct {
	Maps   int64 `json:"maps"`
	Modes  int64 `json:"modes"`
	Series int64 `json:"series"`
	Rounds int64 `json:"rounds"`
	Bans   int64 `json:"bans"`
}

type healthResponse struct {
	Status    string        `json:"status"`
	Service   string        `json:"service"`
	Timestamp time.Time     `json:"timestamp"`
	Counts    *healthCounts `json:"counts,omitempty"`
	Lobbies   int           `json:"lobbies"`
	Error     string        `json:"error,omitempty"`
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Service:   "veto-backend",
		Timestamp: time.Now().UTC(),
		Lobbies:   a.lobbyCount(r),
	}

	c, err := a.catalog.Counts(r.Context())
	if err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Error = "database unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Counts = &healthCounts{Maps: c.Maps, Modes: c.Modes, Series: c.Series, Rounds: c.Rounds, Bans: c.Bans}
	writeJSON(w, http.StatusOK, resp)
}

// lobbyCount returns the number of live lobbies, or -1 when the hub is gone.
func (a *api) lobbyCount(r *http.Request) int {
	reply := make(chan int, 1)
	select {
	case a.hub.Inbox() <- hub.CountLobbies{Reply: reply}:
	case <-a.hub.Done():
		return -1
	case <-r.Context().Done():
		return -1
	}
	select {
	case n := <-reply:
		return n
	case <-a.hub.Done():
		return -1
	case <-r.Context().Done():
		return -1
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
