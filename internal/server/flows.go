package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/internal/store"
	"github.com/montage-ui/guideflow/pkg/api"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listFlows(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.orch.Flows())
}

func (s *Server) startFlow(c *gin.Context) {
	flowID := api.FlowID(c.Param("flowID"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orch.StartFlow(flowID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) currentState(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) completeStep(c *gin.Context) {
	var req api.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validation failures surface as a synchronous event, so a scoped
	// subscription captures them for the HTTP response
	var violations []*api.Violation
	sub := s.orch.On(api.EventTypeValidationFailed,
		func(ev *api.FlowEvent) {
			if data, ok := ev.Payload.(api.ValidationFailedEvent); ok {
				violations = data.Violations
			}
		})
	defer s.orch.Off(sub)

	if err := s.orch.CompleteCurrentStep(req.Data); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &api.CompleteResponse{
		Advanced:   len(violations) == 0,
		Violations: violations,
		State:      s.stateResponse(),
	})
}

func (s *Server) handleAction(c *gin.Context) {
	var req api.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orch.HandleAction(req.ActionID, req.StepID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) resetFlow(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orch.ResetFlow()
	c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) suggestedActions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.orch.SuggestedActions())
}

func (s *Server) stepLock(c *gin.Context) {
	stepID := api.StepID(c.Param("stepID"))

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"step_id": stepID,
		"locked":  s.orch.IsStepLocked(stepID),
	})
}

func (s *Server) getState(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.orch.FlowState()
	if state == nil {
		abortWithError(c, flow.ErrNoActiveFlow)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) saveState(c *gin.Context) {
	if s.snapshots == nil {
		abortUnavailable(c, "snapshot store not configured")
		return
	}

	s.mu.Lock()
	state := s.orch.FlowState()
	s.mu.Unlock()

	if state == nil {
		abortWithError(c, flow.ErrNoActiveFlow)
		return
	}
	if err := s.snapshots.Save(c.Request.Context(), state); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) restoreState(c *gin.Context) {
	var state *api.FlowContext

	if c.Request.ContentLength > 0 {
		state = &api.FlowContext{}
		if err := c.ShouldBindJSON(state); err != nil {
			abortBadRequest(c, err)
			return
		}
	} else {
		if s.snapshots == nil {
			abortUnavailable(c, "snapshot store not configured")
			return
		}
		flowID := api.FlowID(c.Query("flow_id"))
		loaded, err := s.snapshots.Load(c.Request.Context(), flowID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		state = loaded
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orch.RestoreFlowState(state); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) handleRespond(c *gin.Context) {
	var req api.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, &api.RespondResponse{
		Suggestions: s.matcher.Match(req.Text),
	})
}

// stateResponse snapshots the orchestrator's position. Callers must hold
// the server mutex.
func (s *Server) stateResponse() *api.FlowStateResponse {
	return &api.FlowStateResponse{
		Flow:    s.orch.CurrentFlow(),
		Step:    s.orch.CurrentStep(),
		Context: s.orch.FlowState(),
	}
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, flow.ErrFlowNotFound),
		errors.Is(err, flow.ErrStepNotFound),
		errors.Is(err, store.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, flow.ErrNoActiveFlow),
		errors.Is(err, flow.ErrNoActiveStep),
		errors.Is(err, flow.ErrFlowExists):
		status = http.StatusConflict
	}
	c.AbortWithStatusJSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

func abortBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{
		Error:  err.Error(),
		Status: http.StatusBadRequest,
	})
}

func abortInternal(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
		Error:  err.Error(),
		Status: http.StatusInternalServerError,
	})
}

func abortUnavailable(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, api.ErrorResponse{
		Error:  msg,
		Status: http.StatusServiceUnavailable,
	})
}
