package homee

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Unmarshal(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`{"id":3,"name":"Window%20Sensor","available":1,"profile":2002}`), &n)
	require.NoError(t, err)

	assert.Equal(t, Node{ID: 3, Name: "Window%20Sensor", Available: 1}, n)
}

func TestNode_UnmarshalMissingField(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`{"id":3,"name":"Lamp"}`), &n)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), `"available"`)
}

func TestNode_UnmarshalWrongType(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`{"id":"three","name":"Lamp","available":1}`), &n)
	assert.Error(t, err)
}

func TestHomeegram_Unmarshal(t *testing.T) {
	var h Homeegram
	err := json.Unmarshal([]byte(`{"id":12,"name":"Good%20Night","active":1,"state":0,"play":0}`), &h)
	require.NoError(t, err)

	assert.Equal(t, Homeegram{ID: 12, Name: "Good%20Night", Active: 1, State: 0}, h)
}

func TestHomeegram_UnmarshalMissingField(t *testing.T) {
	for _, field := range []string{"id", "name", "active", "state"} {
		t.Run(field, func(t *testing.T) {
			full := map[string]any{"id": 1, "name": "x", "active": 1, "state": 1}
			delete(full, field)
			data, err := json.Marshal(full)
			require.NoError(t, err)

			var h Homeegram
			err = json.Unmarshal(data, &h)
			assert.ErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestDecodeNodes(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"id":1,"name":"a","available":1}`),
		json.RawMessage(`{"id":2,"name":"b","available":0}`),
	}
	nodes, err := DecodeNodes(raw)
	require.NoError(t, err)
	assert.Equal(t, []Node{{1, "a", 1}, {2, "b", 0}}, nodes)

	raw = append(raw, json.RawMessage(`{"id":3}`))
	_, err = DecodeNodes(raw)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "entry 2")
}

func TestDecodeHomeegrams_Empty(t *testing.T) {
	grams, err := DecodeHomeegrams(nil)
	require.NoError(t, err)
	assert.Empty(t, grams)
}

func TestDecodeFrame(t *testing.T) {
	members, err := decodeFrame([]byte(`{"nodes":[],"user":{}}`))
	require.NoError(t, err)
	assert.Len(t, members, 2)

	for _, bad := range []string{``, `nope`, `null`, `[]`, `"nodes"`, `42`} {
		_, err := decodeFrame([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestDecodeList(t *testing.T) {
	nodes, err := decodeList[Node]([]byte(`{"nodes":[{"id":1,"name":"a","available":1}]}`), KeyNodes)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	nodes, err = decodeList[Node]([]byte(`{"groups":[]}`), KeyNodes)
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)

	_, err = decodeList[Node]([]byte(`{"nodes":{}}`), KeyNodes)
	assert.Error(t, err)

	_, err = decodeList[Node]([]byte(`{"nodes":[{"id":1}]}`), KeyNodes)
	assert.ErrorIs(t, err, ErrMissingField)
}
