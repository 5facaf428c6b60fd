package hub

import (
	"context"

	"github.com/DoyleJ11/video-overlay/internal/overlay"
	"github.com/DoyleJ11/video-overlay/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

// CreateSession starts a new overlay session. ID is generated when empty.
type CreateSession struct {
	ID     string
	Config overlay.Config
	Reply  chan *session.Session
}

type GetSession struct {
	ID    string
	Reply chan *session.Session
}

// RemoveSession shuts the session down and forgets it.
type RemoveSession struct {
	ID string
}

type ListSessions struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ListSessions) isHubMsg()  {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
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
			case CreateSession:
				id := msg.ID
				if id == "" {
					id = uuid.NewString()
				}
				if s := h.sessions[id]; s != nil {
					msg.Reply <- s
					break
				}
				s := session.NewSession(h.ctx, id, msg.Config, h.log)
				h.sessions[id] = s
				h.log.Info("session created", zap.String("session", id), zap.Int("sessions", len(h.sessions)))
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[msg.ID] // May be nil

			case RemoveSession:
				if s := h.sessions[msg.ID]; s != nil {
					_ = s.Send(h.ctx, session.Shutdown{})
					delete(h.sessions, msg.ID)
				}

			case ListSessions:
				ids := make([]string, 0, len(h.sessions))
				for id := range h.sessions {
					ids = append(ids, id)
				}
				msg.Reply <- ids

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		_ = s.Send(context.Background(), session.Shutdown{})
	}
	clear(h.sessions)
	h.cancel()
}
