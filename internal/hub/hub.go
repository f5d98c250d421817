package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/engine"
	"github.com/DoyleJ11/veto-backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	SeriesID uint
	Reply    chan *lobby.Lobby
}

// EnsureLobby returns the series' lobby, starting one from Series and
// Catalog if none is running.
type EnsureLobby struct {
	SeriesID uint
	Series   engine.Series
	Catalog  engine.Catalog
	Reply    chan *lobby.Lobby
}

// RemoveLobby stops the series' lobby and forgets it.
type RemoveLobby struct {
	SeriesID uint
}

type CountLobbies struct {
	Reply chan int
}

type ShutdownHub struct{}

func (GetLobby) isHubMsg()     {}
func (EnsureLobby) isHubMsg()  {}
func (RemoveLobby) isHubMsg()  {}
func (CountLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[uint]*lobby.Lobby
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[uint]*lobby.Lobby),
		ctx:     ctx,
		cancel:  cancel,
		log:     log.Named("hub"),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.live(msg.SeriesID) // May be nil

			case EnsureLobby:
				if lb := h.live(msg.SeriesID); lb != nil {
					msg.Reply <- lb
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.Series, msg.Catalog, h.log)
				h.lobbies[msg.SeriesID] = lb
				h.log.Debug("lobby started", zap.Uint("series_id", msg.SeriesID))
				msg.Reply <- lb

			case RemoveLobby:
				if lb := h.lobbies[msg.SeriesID]; lb != nil {
					stop(lb)
					delete(h.lobbies, msg.SeriesID)
				}

			case CountLobbies:
				msg.Reply <- len(h.lobbies)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// live returns the running lobby for id, forgetting it if it has stopped.
func (h *Hub) live(id uint) *lobby.Lobby {
	lb := h.lobbies[id]
	if lb == nil {
		return nil
	}
	select {
	case <-lb.Done():
		delete(h.lobbies, id)
		return nil
	default:
		return lb
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		stop(lb)
	}
	clear(h.lobbies)
	h.cancel()
}

func stop(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}
