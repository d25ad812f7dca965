package intent

import (
	"testing"

	"flowmanager/pkg/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalDocument_RoundTrip(t *testing.T) {
	priority := uint16(10)
	m := Map{
		flow.DPID("00:00:00:00:00:00:00:01"): {
			FlowList: []Entry{
				{Command: flow.CommandAdd, Flow: flow.Description{Priority: &priority}},
			},
		},
	}

	data, err := MarshalDocument(m)
	require.NoError(t, err)

	back, err := UnmarshalDocument(data)
	require.NoError(t, err)

	si, ok := back[flow.DPID("00:00:00:00:00:00:00:01")]
	require.True(t, ok)
	require.Len(t, si.FlowList, 1)
	assert.Equal(t, flow.CommandAdd, si.FlowList[0].Command)
	require.NotNil(t, si.FlowList[0].Flow.Priority)
	assert.Equal(t, priority, *si.FlowList[0].Flow.Priority)
}

func TestUnmarshalDocument_StripsReservedIDKey(t *testing.T) {
	data := []byte(`{"id":"flow_persistence"}`)
	m, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Len(t, m, 0)
}

func TestMapClone_IsIndependentOfSource(t *testing.T) {
	m := Map{
		flow.DPID("dpid-1"): {FlowList: []Entry{{Command: flow.CommandAdd}}},
	}
	cloned := m.Clone()
	cloned[flow.DPID("dpid-1")].FlowList[0].Command = flow.CommandDelete

	assert.Equal(t, flow.CommandAdd, m[flow.DPID("dpid-1")].FlowList[0].Command)
}
