// Package flow implements the guided-flow orchestrator: a small state
// machine that executes declarative step and transition definitions,
// owning the single active flow context and emitting ordered lifecycle
// events.
package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/montage-ui/guideflow/internal/flow/script"
	"github.com/montage-ui/guideflow/internal/form"
	"github.com/montage-ui/guideflow/pkg/api"
	"github.com/montage-ui/guideflow/pkg/events"
	"github.com/montage-ui/guideflow/pkg/log"
)

// Orchestrator is the top-level flow state machine. It owns the event bus,
// the flow registry, and the one active FlowContext.
//
// Every operation is synchronous and runs to completion; lifecycle events
// are delivered inline at precisely the point the documented ordering
// requires. The orchestrator is not internally synchronized: callers that
// share an instance across goroutines must serialize access, as the HTTP
// server does.
type Orchestrator struct {
	registry   *Registry
	bus        *events.Bus
	scripts    *script.Registry
	clock      func() time.Time
	flow       *api.FlowDefinition
	ctx        *api.FlowContext
	generation atomic.Int64
}

var (
	ErrFlowNotFound = errors.New("flow not found")
	ErrFlowExists   = errors.New("flow exists")
	ErrStepNotFound = errors.New("step not in flow")
	ErrNoActiveFlow = errors.New("no active flow")
	ErrNoActiveStep = errors.New("no active step")
)

// New creates an orchestrator with an empty registry, a fresh event bus,
// and the default script registry for custom lock predicates
func New() *Orchestrator {
	return &Orchestrator{
		registry: NewRegistry(),
		bus:      events.NewBus(),
		scripts:  script.NewRegistry(),
		clock:    time.Now,
	}
}

// On subscribes a handler to a lifecycle event type
func (o *Orchestrator) On(
	t api.EventType, h events.Handler,
) *events.Subscription {
	return o.bus.On(t, h)
}

// Off removes a subscription
func (o *Orchestrator) Off(s *events.Subscription) {
	o.bus.Off(s)
}

// Bus exposes the event bus for infrastructure that needs to fan events
// out, such as the websocket bridge
func (o *Orchestrator) Bus() *events.Bus {
	return o.bus
}

// RegisterFlow adds a definition to the registry. Beyond id uniqueness no
// validation is performed here.
func (o *Orchestrator) RegisterFlow(def *api.FlowDefinition) error {
	return o.registry.Register(def)
}

// RegisterFlows adds multiple definitions, stopping at the first failure
func (o *Orchestrator) RegisterFlows(defs ...*api.FlowDefinition) error {
	for _, def := range defs {
		if err := o.RegisterFlow(def); err != nil {
			return err
		}
	}
	return nil
}

// Flows returns every registered definition ordered by id
func (o *Orchestrator) Flows() []*api.FlowDefinition {
	return o.registry.All()
}

// CurrentFlow returns the active flow definition, or nil when idle
func (o *Orchestrator) CurrentFlow() *api.FlowDefinition {
	return o.flow
}

// CurrentStep returns the active step definition, or nil when no step is
// active
func (o *Orchestrator) CurrentStep() *api.StepDefinition {
	if o.flow == nil || o.ctx == nil || o.ctx.Current == "" {
		return nil
	}
	return o.flow.Step(o.ctx.Current)
}

// StartFlow begins executing the identified flow. Any currently active
// flow is cancelled and its context discarded. A flow with at least one
// step transitions immediately to its first step.
func (o *Orchestrator) StartFlow(id api.FlowID) error {
	def, ok := o.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}

	o.cancelActive()
	o.generation.Add(1)

	now := o.clock()
	o.flow = def
	o.ctx = api.NewFlowContext(id, uuid.New().String(), now)

	if first := def.First(); first != nil {
		o.enterStep(first.ID)
	}

	o.emit(api.EventTypeFlowStarted, "", api.FlowStartedEvent{
		FlowID: id,
		ExecID: o.ctx.ExecID,
	})

	slog.Info("Flow started",
		log.FlowID(id))
	return nil
}

// TransitionToStep moves the flow to the named step. The outgoing step, if
// any, is marked completed and its step:completed event is emitted
// strictly before the incoming step:started. Leaving a step marks it
// completed regardless of whether its data was ever validated.
func (o *Orchestrator) TransitionToStep(id api.StepID) error {
	if o.flow == nil || o.ctx == nil {
		return ErrNoActiveFlow
	}
	if o.flow.Step(id) == nil {
		return fmt.Errorf("%w: %s", ErrStepNotFound, id)
	}

	if current := o.ctx.Current; current != "" {
		o.leaveStep(current, nil)
	}
	o.enterStep(id)
	return nil
}

// CompleteCurrentStep validates the submitted data against the active
// step's declared rules and, on success, stores it and advances the flow.
// Validation failures emit a single validation:failed event carrying every
// violated field and leave the step current.
func (o *Orchestrator) CompleteCurrentStep(data api.Payload) error {
	if o.flow == nil || o.ctx == nil {
		return ErrNoActiveFlow
	}
	current := o.ctx.Current
	if current == "" {
		return ErrNoActiveStep
	}
	step := o.flow.Step(current)

	if violations := validatePayload(step.Validation, data); len(violations) > 0 {
		o.emit(api.EventTypeValidationFailed, current,
			api.ValidationFailedEvent{
				FlowID:     o.ctx.FlowID,
				StepID:     current,
				Violations: violations,
			})
		return nil
	}

	if data != nil {
		o.ctx = o.ctx.SetStepData(current, data).
			SetLastUpdated(o.clock())
	}

	next, ok := resolveCompletion(step)
	if !ok {
		// Known design gap: with no resolvable transition the flow
		// silently stays on the current step.
		slog.Debug("No transition resolved for completed step",
			log.FlowID(o.ctx.FlowID),
			log.StepID(current))
		return nil
	}

	if next == api.StepComplete {
		o.completeFlow(current, data)
		return nil
	}
	return o.TransitionToStep(next)
}

// ResetFlow cancels any active flow and returns the orchestrator to idle
func (o *Orchestrator) ResetFlow() {
	o.cancelActive()
	o.generation.Add(1)
	o.flow = nil
	o.ctx = nil
}

// enterStep makes the step current and emits step:started
func (o *Orchestrator) enterStep(id api.StepID) {
	o.ctx = o.ctx.SetCurrent(id).SetLastUpdated(o.clock())
	o.emit(api.EventTypeStepStarted, id, api.StepStartedEvent{
		FlowID: o.ctx.FlowID,
		StepID: id,
	})
}

// leaveStep adds the step to the completed set and emits step:completed
// before the context's current pointer moves anywhere else
func (o *Orchestrator) leaveStep(id api.StepID, data api.Payload) {
	o.ctx = o.ctx.SetCompleted(id).SetLastUpdated(o.clock())
	o.emit(api.EventTypeStepCompleted, id, api.StepCompletedEvent{
		FlowID: o.ctx.FlowID,
		StepID: id,
		Data:   data,
	})
}

// completeFlow finishes the terminal step and emits step:completed then
// flow:completed, in that order, before returning to idle
func (o *Orchestrator) completeFlow(current api.StepID, data api.Payload) {
	o.leaveStep(current, data)
	o.ctx = o.ctx.SetCurrent("")

	flowID := o.ctx.FlowID
	stepData := o.ctx.StepData
	o.emit(api.EventTypeFlowCompleted, "", api.FlowCompletedEvent{
		FlowID:   flowID,
		StepData: stepData,
	})

	slog.Info("Flow completed",
		log.FlowID(flowID))

	o.generation.Add(1)
	o.flow = nil
	o.ctx = nil
}

// cancelActive emits flow:cancelled for the active flow, if any, and
// discards its context
func (o *Orchestrator) cancelActive() {
	if o.ctx == nil {
		return
	}
	o.emit(api.EventTypeFlowCancelled, o.ctx.Current,
		api.FlowCancelledEvent{
			FlowID: o.ctx.FlowID,
			StepID: o.ctx.Current,
		})

	slog.Info("Flow cancelled",
		log.FlowID(o.ctx.FlowID))

	o.flow = nil
	o.ctx = nil
}

func (o *Orchestrator) emit(t api.EventType, stepID api.StepID, payload any) {
	ev := &api.FlowEvent{
		Type:      t,
		StepID:    stepID,
		Payload:   payload,
		Timestamp: o.clock(),
	}
	if o.ctx != nil {
		ev.FlowID = o.ctx.FlowID
	}
	o.bus.Emit(ev)
}

// validatePayload runs every declared rule against the submitted data and
// collects the full list of violations, ordered by field id. A declared
// required rule implies the field is required at submission.
func validatePayload(
	rules api.ValidationRules, data api.Payload,
) []*api.Violation {
	var res []*api.Violation

	ids := make([]api.FieldID, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		field := &api.Field{ID: id, Required: true}
		var value any
		if data != nil {
			value = data[string(id)]
		}
		if v := form.Validate(field, value, rules[id]); v != nil {
			res = append(res, v)
		}
	}
	return res
}
