package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/auth"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/chat"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/job"
)

// Server defines fields used in HTTP processing
type Server struct {
	logger        *zap.SugaredLogger
	httpServer    *http.Server
	afterShutdown []func()
}

// Deps bundles the services handlers dispatch into.
type Deps struct {
	Auth *auth.Service
	Jobs *job.Service
	Chat *chat.Service
}

// NewServer wires handlers, middlewares and routes into an http.Server.
// POST endpoints go through enforcePOSTJSON; everything except registration
// and login also goes through authenticate; the two /ws endpoints skip the
// POST middleware since they upgrade GET requests.
func NewServer(logger *zap.SugaredLogger, cfg EnvConfig, deps Deps, opts ...Option) (*Server, error) {
	h := &handler{
		logger: logger,
		auth:   deps.Auth,
		jobs:   deps.Jobs,
		chat:   deps.Chat,
		parsers: parsers{
			registerPool:          fastjson.ParserPool{},
			loginPool:             fastjson.ParserPool{},
			createJobPool:         fastjson.ParserPool{},
			getJobPool:            fastjson.ParserPool{},
			listJobsPool:          fastjson.ParserPool{},
			startConversationPool: fastjson.ParserPool{},
			sendMessagePool:       fastjson.ParserPool{},
			markReadPool:          fastjson.ParserPool{},
			typingPool:            fastjson.ParserPool{},
		},
	}

	desugared := logger.Desugar()

	public := func(hf http.HandlerFunc) http.Handler {
		return logRequests(enforcePOSTJSON(hf), desugared)
	}
	protected := func(hf http.HandlerFunc) http.Handler {
		return logRequests(enforcePOSTJSON(authenticate(hf, deps.Auth)), desugared)
	}
	ws := func(hf http.HandlerFunc) http.Handler {
		return logRequests(authenticate(hf, deps.Auth), desugared)
	}

	mux := http.NewServeMux()
	mux.Handle("/auth/register", public(h.register))
	mux.Handle("/auth/login", public(h.login))
	mux.Handle("/jobs/add", protected(h.createJob))
	mux.Handle("/jobs/get", public(h.getJob))
	mux.Handle("/jobs/list", public(h.listJobs))
	mux.Handle("/conversations/start", protected(h.startConversation))
	mux.Handle("/messages/send", protected(h.sendMessage))
	mux.Handle("/messages/read", protected(h.markRead))
	mux.Handle("/typing/set", protected(h.setTyping))
	mux.Handle("/ws/conversations", ws(h.conversationsWS))
	mux.Handle("/ws/messages", ws(h.messagesWS))

	httpServer := &http.Server{
		Addr:    cfg.Host + ":" + strconv.FormatUint(uint64(cfg.Port), 10),
		Handler: mux,
	}

	for _, opt := range opts {
		opt.apply(httpServer)
	}

	return &Server{
		logger:     logger,
		httpServer: httpServer,
	}, nil
}

// RegisterAfterShutdown registers a function to call after http.Server shutdown
// f will not be called in a separate goroutine
func (s *Server) RegisterAfterShutdown(f func()) {
	s.afterShutdown = append(s.afterShutdown, f)
}

// Start calls ListenAndServe on http.Server instance inside Server struct
// and implements graceful shutdown via goroutine waiting for signals
func (s *Server) Start() error {
	idleConnsClosed := make(chan struct{})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		s.logger.Info("Shutting down HTTP server")

		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("srv.Shutdown: %v", err)
		}
		s.logger.Info("HTTP server is stopped")

		close(idleConnsClosed)
	}()

	s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("s.httpServer.ListenAndServe: %v", err)
	}

	<-idleConnsClosed

	for _, f := range s.afterShutdown {
		f()
	}

	return nil
}
