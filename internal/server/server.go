// Package server implements the HTTP API over the orchestrator, including
// the websocket stream of lifecycle events.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/topic"

	"github.com/montage-ui/guideflow/internal/backend"
	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/internal/responder"
	"github.com/montage-ui/guideflow/internal/store"
	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/log"
	"github.com/montage-ui/guideflow/pkg/util"
)

type (
	// Server exposes the orchestrator over HTTP. The orchestrator itself
	// is single-threaded by design, so every handler serializes through
	// the server's mutex.
	Server struct {
		orch      *flow.Orchestrator
		snapshots *store.Snapshots
		archiver  *store.Archiver
		matcher   *responder.Matcher
		backend   *backend.Simulator
		events    topic.Topic[*api.FlowEvent]
		producer  topic.Producer[*api.FlowEvent]
		sockets   util.Set[*Client]
		mu        sync.Mutex
		sockMu    sync.Mutex
	}

	// Options carries the optional collaborators a server can run without
	Options struct {
		Snapshots *store.Snapshots
		Archiver  *store.Archiver
	}
)

// NewServer creates an API server over the orchestrator. Lifecycle events
// are bridged onto a fan-out topic so each websocket client receives its
// own ordered feed.
func NewServer(orch *flow.Orchestrator, opts Options) *Server {
	events := caravan.NewTopic[*api.FlowEvent]()
	s := &Server{
		orch:      orch,
		snapshots: opts.Snapshots,
		archiver:  opts.Archiver,
		matcher:   responder.New(),
		events:    events,
		producer:  events.NewProducer(),
		sockets:   util.Set[*Client]{},
	}

	s.orch.Bus().OnAll(func(ev *api.FlowEvent) {
		s.producer.Send() <- ev
	})
	s.orch.On(api.EventTypeFlowCompleted, s.archiveCompleted)
	return s
}

// AttachBackend wires the simulated backend so auto-advance steps progress
// on their own. Continuations dispatch through the server mutex.
func (s *Server) AttachBackend(sim *backend.Simulator) {
	s.backend = sim
	sim.Attach()
}

// Dispatch runs fn under the server's request mutex
func (s *Server) Dispatch(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// SetupRoutes configures and returns the HTTP router with all API
// endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)
	router.POST("/respond", s.handleRespond)

	fl := router.Group("/flows")
	{
		fl.GET("", s.listFlows)
		fl.POST("/:flowID/start", s.startFlow)
	}

	cur := router.Group("/flow")
	{
		cur.GET("", s.currentState)
		cur.POST("/complete", s.completeStep)
		cur.POST("/action", s.handleAction)
		cur.POST("/reset", s.resetFlow)
		cur.GET("/suggested", s.suggestedActions)
		cur.GET("/locks/:stepID", s.stepLock)
		cur.GET("/state", s.getState)
		cur.POST("/state", s.saveState)
		cur.POST("/restore", s.restoreState)
	}

	router.GET("/ws", s.handleWebSocket)
	return router
}

// archiveCompleted writes the completed flow's record to the archive
// bucket, when one is configured
func (s *Server) archiveCompleted(ev *api.FlowEvent) {
	if s.archiver == nil {
		return
	}
	data, ok := ev.Payload.(api.FlowCompletedEvent)
	if !ok {
		return
	}

	rec := &store.ArchiveRecord{
		FlowID:      data.FlowID,
		StepData:    data.StepData,
		CompletedAt: ev.Timestamp,
	}
	if err := s.archiver.Put(context.Background(), rec); err != nil {
		slog.Error("Failed to archive completed flow",
			log.FlowID(data.FlowID),
			log.Error(err))
	}
}

func (s *Server) registerWebSocket(c *Client) {
	s.sockMu.Lock()
	defer s.sockMu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.sockMu.Lock()
	defer s.sockMu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active websocket connections
func (s *Server) CloseWebSockets() {
	s.sockMu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.sockMu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
