// Package api defines the core data types for the guided-flow engine
//
// This package contains all the shared types used across the orchestrator,
// including flow and step definitions, the flow context, form fields and
// sections, validation rules, derivation targets, and lifecycle events
package api
