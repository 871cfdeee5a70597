package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montage-ui/guideflow/pkg/api"
)

func TestFlowContextSetters(t *testing.T) {
	as := assert.New(t)
	now := time.Now()
	ctx := api.NewFlowContext("f", "exec-1", now)

	next := ctx.SetCurrent("a").
		SetCompleted("a").
		SetStepData("a", api.Payload{"k": "v"})

	// the original is untouched
	as.Equal(api.StepID(""), ctx.Current)
	as.Equal(0, ctx.Completed.Len())
	as.Empty(ctx.StepData)

	as.Equal(api.StepID("a"), next.Current)
	as.True(next.Completed.Contains("a"))
	as.Equal(api.Payload{"k": "v"}, next.StepData["a"])
	as.Equal(ctx.ExecID, next.ExecID)
}

func TestFlowContextClone(t *testing.T) {
	as := assert.New(t)
	ctx := api.NewFlowContext("f", "exec-1", time.Now()).
		SetCompleted("a").
		SetStepData("a", api.Payload{"k": "v"})

	clone := ctx.Clone()
	clone.Completed.Add("b")
	clone.StepData["b"] = api.Payload{}

	as.False(ctx.Completed.Contains("b"))
	as.NotContains(ctx.StepData, api.StepID("b"))
}

func TestFlowContextJSONRoundTrip(t *testing.T) {
	as := assert.New(t)
	ctx := api.NewFlowContext("f", "exec-1", time.Now().UTC()).
		SetCurrent("b").
		SetCompleted("a").
		SetStepData("a", api.Payload{"name": "Initech"})

	data, err := json.Marshal(ctx)
	require.NoError(t, err)

	var restored api.FlowContext
	require.NoError(t, json.Unmarshal(data, &restored))

	as.Equal(ctx.FlowID, restored.FlowID)
	as.Equal(ctx.ExecID, restored.ExecID)
	as.Equal(ctx.Current, restored.Current)
	as.True(restored.Completed.Contains("a"))
	as.Equal("Initech", restored.StepData["a"]["name"])
	as.True(ctx.StartedAt.Equal(restored.StartedAt))
}
