package flow_test

import (
	"testing"

	testify "github.com/stretchr/testify/assert"

	"github.com/montage-ui/guideflow/internal/assert/helpers"
	"github.com/montage-ui/guideflow/internal/flow"
	"github.com/montage-ui/guideflow/pkg/api"
)

func TestRegisterFlow(t *testing.T) {
	as := testify.New(t)
	o := flow.New()

	as.NoError(o.RegisterFlow(helpers.LinearFlow("one", "a")))
	as.ErrorIs(
		o.RegisterFlow(helpers.LinearFlow("one", "x")),
		flow.ErrFlowExists,
	)
}

func TestFlowsSortedByID(t *testing.T) {
	as := testify.New(t)
	o := flow.New()

	as.NoError(o.RegisterFlows(
		helpers.LinearFlow("zebra", "a"),
		helpers.LinearFlow("apple", "a"),
		helpers.LinearFlow("mango", "a"),
	))

	all := o.Flows()
	ids := make([]api.FlowID, len(all))
	for i, def := range all {
		ids[i] = def.ID
	}
	as.Equal([]api.FlowID{"apple", "mango", "zebra"}, ids)
}

func TestRegisterFlowsStopsAtFirstFailure(t *testing.T) {
	as := testify.New(t)
	o := flow.New()

	err := o.RegisterFlows(
		helpers.LinearFlow("one", "a"),
		helpers.LinearFlow("one", "b"),
		helpers.LinearFlow("two", "c"),
	)
	as.ErrorIs(err, flow.ErrFlowExists)
	as.Len(o.Flows(), 1)
}
