package lobby

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/veto-backend/internal/engine"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

// Op is one unit of work against the series. It returns the committed series
// and the catalog it was validated against.
type Op func(ctx context.Context) (engine.Series, engine.Catalog, error)

// Execute runs Op in turn with every other operation on this series.
// Reply must be buffered.
type Execute struct {
	Ctx   context.Context
	Op    Op
	Reply chan Result
}

func (Execute) isLobbyMsg() {}

type Result struct {
	Snapshot Snapshot
	Err      error
}

type Join struct {
	ClientID string
	Outbox   chan Snapshot   // buffered; closed when the client is dropped
	Catalog  *engine.Catalog // if set, replaces the lobby's catalog before the join snapshot
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Snapshot struct {
	Version int
	Series  engine.Series
	Catalog engine.Catalog
}

type View struct {
	Version    int
	NumClients int
	Series     engine.Series
}

type Lobby struct {
	inbox   chan Msg
	series  engine.Series
	catalog engine.Catalog
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
}

func NewLobby(parent context.Context, initial engine.Series, cat engine.Catalog, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		series:  initial,
		catalog: cat,
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
		log:     log.With(zap.Uint("series_id", initial.ID)),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				if msg.Catalog != nil {
					l.catalog = *msg.Catalog
				}
				l.clients[msg.ClientID] = msg.Outbox
				l.send(msg.ClientID, msg.Outbox, l.snapshot())

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case Execute:
				msg.Reply <- l.execute(msg)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Series:     l.series,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// execute skips operations whose caller already gave up. Once started an
// operation runs to completion even if the caller cancels.
func (l *Lobby) execute(msg Execute) Result {
	if err := msg.Ctx.Err(); err != nil {
		return Result{Err: err}
	}

	series, cat, err := msg.Op(context.WithoutCancel(msg.Ctx))
	if err != nil {
		return Result{Err: err}
	}

	l.series, l.catalog = series, cat
	l.version++
	snap := l.snapshot()
	l.broadcast(snap)
	return Result{Snapshot: snap}
}

func (l *Lobby) snapshot() Snapshot {
	return Snapshot{Version: l.version, Series: l.series.Clone(), Catalog: l.catalog}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.send(id, ch, snap)
	}
}

func (l *Lobby) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		// Client is slow/full - drop them.
		l.log.Debug("dropping slow client", zap.String("client_id", id), zap.Int("version", snap.Version))
		close(ch)
		delete(l.clients, id)
	}
}

// Execute queues op behind every earlier operation on this series and waits
// for its result.
func (l *Lobby) Execute(ctx context.Context, op Op) (Snapshot, error) {
	reply := make(chan Result, 1)
	select {
	case l.inbox <- Execute{Ctx: ctx, Op: op, Reply: reply}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-l.ctx.Done():
		return Snapshot{}, ErrClosed
	}

	select {
	case r := <-reply:
		return r.Snapshot, r.Err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-l.ctx.Done():
		return Snapshot{}, ErrClosed
	}
}

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Expose the inbox so the hub and WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }
