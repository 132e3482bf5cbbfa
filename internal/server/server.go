// Package server exposes the broadcast log, the live event list, and each
// user's notifications over HTTP, and owns the per-user sessions that keep
// notifications synchronized.
package server

import (
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/alfredjeanlab/parish/internal/broadcast"
	"github.com/alfredjeanlab/parish/internal/events"
	"github.com/alfredjeanlab/parish/internal/live"
	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/notify"
	"github.com/alfredjeanlab/parish/internal/schedule"
	"github.com/alfredjeanlab/parish/internal/session"
	"github.com/alfredjeanlab/parish/internal/store"
	notifsync "github.com/alfredjeanlab/parish/internal/sync"
	"github.com/alfredjeanlab/parish/internal/tracker"
)

// Deps are the collaborators of a Server. Store is required.
type Deps struct {
	Store     store.Store
	Locks     *store.KeyMutex
	Scheduler schedule.Scheduler
	Publisher events.Publisher
	Logger    *slog.Logger
	Sync      notifsync.Config
}

// Server serves the HTTP API.
type Server struct {
	store     store.Store
	locks     *store.KeyMutex
	sched     schedule.Scheduler
	publisher events.Publisher
	logger    *slog.Logger
	syncCfg   notifsync.Config

	log      *broadcast.Log
	board    *live.Board
	sessions *session.Registry
	schema   *jsonschema.Schema
}

// New builds a Server and its broadcast log, live board, and session
// registry. Changes to the live board are forwarded to every session.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if deps.Locks == nil {
		deps.Locks = store.NewKeyMutex()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = schedule.Real{}
	}
	if deps.Publisher == nil {
		deps.Publisher = &events.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	sch, err := compileBroadcastSchema()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:     deps.Store,
		locks:     deps.Locks,
		sched:     deps.Scheduler,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		syncCfg:   deps.Sync,
		schema:    sch,
	}
	s.log = broadcast.NewLog(deps.Store, deps.Locks, deps.Scheduler, deps.Publisher, deps.Logger)
	s.board = live.NewBoard(deps.Store, deps.Locks, deps.Publisher, deps.Logger)
	s.sessions = session.New(s.newWorker, deps.Scheduler, deps.Publisher, deps.Logger)
	s.board.OnChange(s.sessions.EventsChanged)
	return s, nil
}

// Log returns the broadcast log.
func (s *Server) Log() *broadcast.Log { return s.log }

// Board returns the live event list.
func (s *Server) Board() *live.Board { return s.board }

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry { return s.sessions }

// newWorker builds the synchronizer for one user session.
func (s *Server) newWorker(user model.User) (session.Worker, error) {
	return notifsync.New(s.syncCfg, notifsync.Deps{
		Store:     s.store,
		Locks:     s.locks,
		Log:       s.log,
		Events:    s.board,
		User:      notifsync.StaticUser(user),
		Scheduler: s.sched,
		Publisher: s.publisher,
		Logger:    s.logger.With("user_id", user.ID),
	})
}

func (s *Server) center(userID string) *notify.Center {
	return notify.NewCenter(s.store, s.locks, s.sched, s.publisher, s.logger, userID)
}

func (s *Server) tracker(userID string) *tracker.Tracker {
	return tracker.New(s.store, s.locks, userID, s.logger)
}
