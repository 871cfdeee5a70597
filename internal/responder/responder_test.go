package responder_test

import (
	"testing"

	testify "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montage-ui/guideflow/internal/responder"
	"github.com/montage-ui/guideflow/pkg/api"
)

func TestMatchSingle(t *testing.T) {
	as := testify.New(t)
	m := responder.New()

	actions := m.Match("I need to set up a new client")
	require.NotEmpty(t, actions)
	as.Equal(api.ActionID("start-client-setup"), actions[0].ID)
	as.Equal(api.FlowID("client-setup"), actions[0].Flow)
}

func TestMatchRanksByHits(t *testing.T) {
	as := testify.New(t)
	m := responder.New()

	actions := m.Match("bulk upload a spreadsheet of client accounts")
	require.Len(t, actions, 2)
	as.Equal(api.ActionID("start-bulk-upload"), actions[0].ID)
	as.Equal(api.ActionID("start-client-setup"), actions[1].ID)
}

func TestMatchCaseInsensitive(t *testing.T) {
	as := testify.New(t)
	m := responder.New()

	actions := m.Match("BULK UPLOAD please")
	require.NotEmpty(t, actions)
	as.Equal(api.ActionID("start-bulk-upload"), actions[0].ID)
}

func TestMatchNoHits(t *testing.T) {
	as := testify.New(t)
	m := responder.New()

	as.Empty(m.Match("what's the weather like"))
}

func TestMatchTiesKeepRegistrationOrder(t *testing.T) {
	as := testify.New(t)
	m := &responder.Matcher{}
	m.Add([]string{"alpha"}, &api.SuggestedAction{ID: "first"})
	m.Add([]string{"alpha"}, &api.SuggestedAction{ID: "second"})

	actions := m.Match("alpha")
	require.Len(t, actions, 2)
	as.Equal(api.ActionID("first"), actions[0].ID)
	as.Equal(api.ActionID("second"), actions[1].ID)
}
