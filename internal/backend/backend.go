// Package backend simulates the remote calls a flow appears to make:
// canned success payloads delivered after a fixed delay. Continuations are
// guarded by the orchestrator's generation counter so a reset discards any
// response that arrives late.
package backend

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/events"
	"github.com/montage-ui/guideflow/pkg/log"
)

type (
	// Simulator produces canned backend responses and drives auto-advance
	// steps forward once their simulated work "finishes"
	Simulator struct {
		orch     *flow.Orchestrator
		dispatch Dispatch
		delay    time.Duration
	}

	// Dispatch runs a continuation under whatever serialization the
	// orchestrator's owner requires. The HTTP server passes one that takes
	// its request mutex.
	Dispatch func(func())

	// Response is a canned backend result
	Response struct {
		RefID   string      `json:"ref_id"`
		Success bool        `json:"success"`
		Message string      `json:"message,omitempty"`
		Data    api.Payload `json:"data,omitempty"`
	}
)

// New creates a simulator over the orchestrator. A nil dispatch runs
// continuations directly.
func New(orch *flow.Orchestrator, delay time.Duration, d Dispatch) *Simulator {
	if d == nil {
		d = func(fn func()) { fn() }
	}
	return &Simulator{
		orch:     orch,
		dispatch: d,
		delay:    delay,
	}
}

// Call schedules a canned response for the named operation. The callback
// fires after the configured delay unless the flow context has been reset
// or replaced in the meantime.
func (s *Simulator) Call(
	op string, req api.Payload, fn func(*Response),
) {
	s.orch.After(s.delay, func() {
		s.dispatch(func() {
			fn(&Response{
				RefID:   uuid.New().String(),
				Success: true,
				Message: op + " completed",
				Data:    req,
			})
		})
	})
}

// Attach subscribes to step:started and auto-completes any step of type
// auto-advance after the simulated round-trip
func (s *Simulator) Attach() *events.Subscription {
	return s.orch.On(api.EventTypeStepStarted, func(ev *api.FlowEvent) {
		step := s.orch.CurrentStep()
		if step == nil || step.Type != api.StepTypeAutoAdvance {
			return
		}

		stepID := step.ID
		s.orch.After(s.delay, func() {
			s.dispatch(func() {
				current := s.orch.CurrentStep()
				if current == nil || current.ID != stepID {
					return
				}
				if err := s.orch.CompleteCurrentStep(nil); err != nil {
					slog.Warn("Auto-advance failed",
						log.StepID(stepID),
						log.Error(err))
				}
			})
		})
	})
}
