package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/poco-ai/poco-console/internals/conf"
	"github.com/poco-ai/poco-console/internals/env"
	"github.com/poco-ai/poco-console/internals/simulator"
	"github.com/poco-ai/poco-console/internals/timeouts"
)

type Server struct {
	Config *conf.Config
	Env    *env.EnvStruct
	Logger *slog.Logger

	store   *sessionStore
	sim     *simulator.Simulator
	replies *replyWorker
	now     func() time.Time

	mu           sync.Mutex
	httpServer   *http.Server
	shuttingDown bool

	idMu   sync.Mutex
	lastID int64

	closeOnce sync.Once
}

// New opens the session database under the configured data dir and wires
// the simulator and reply worker.
func New(ctx context.Context, config *conf.Config, envs *env.EnvStruct, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dbPath := filepath.Join(config.Server.DataDir, "db", "poco.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return newWithDB(ctx, config, envs, logger, dbPath)
}

func newWithDB(ctx context.Context, config *conf.Config, envs *env.EnvStruct, logger *slog.Logger, dbPath string) (*Server, error) {
	store, err := newSessionStore(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &Server{
		Config:  config,
		Env:     envs,
		Logger:  logger,
		store:   store,
		sim:     simulator.New(config.Simulator.MinStep, config.Simulator.MaxStep),
		replies: newReplyWorker(store, logger, config.Server.ReplyDelayDuration()),
		now:     time.Now,
	}, nil
}

// Start serves on the configured listen address until Shutdown.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

func (s *Server) Serve(listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: timeouts.SecondDefault,
	}
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return listener.Close()
	}
	s.httpServer = server
	s.mu.Unlock()

	s.Logger.Info("Server listening", slog.String("addr", listener.Addr().String()), slog.String("version", s.Config.Version))
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, drops pending reply completions and
// closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shuttingDown = true
	httpServer := s.httpServer
	s.mu.Unlock()

	var errs []error
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.Close())
	return errors.Join(errs...)
}

func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.replies.Stop()
		err = s.store.Close()
	})
	return err
}

// nextSessionID returns a millisecond timestamp, bumped when two sessions
// are created within the same millisecond.
func (s *Server) nextSessionID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
