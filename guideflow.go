// Package guideflow identifies the guided-flow service. The engine itself
// lives under internal/flow and internal/form; the shared data model is in
// pkg/api.
package guideflow

const (
	// Name is the service name stamped into structured logs
	Name = "guideflow"

	// Version is the service version stamped into structured logs
	Version = "0.1.0"
)
