package codec

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
)

func sampleGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC)
	g := aggregates.NewGraph(config.DefaultDomainConfig(), aggregates.WithClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}))

	_, err := g.CreateThought(aggregates.NewThoughtParams{ID: "a", Title: "Alpha", Content: "hello", Tags: []valueobjects.TagID{"work"}})
	require.NoError(t, err)
	_, err = g.CreateThought(aggregates.NewThoughtParams{ID: "b", Content: "see [a] with ünïcode", Tags: []valueobjects.TagID{"work", "home"}})
	require.NoError(t, err)
	_, err = g.CreateThought(aggregates.NewThoughtParams{ID: "c"})
	require.NoError(t, err)
	_, err = g.AddReference("c", "a", "because")
	require.NoError(t, err)
	_, err = g.AddTag("unused", "nobody holds this")
	require.NoError(t, err)
	return g
}

func frame(body []byte, version uint16) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic)
	binary.BigEndian.PutUint16(buf[4:6], version)
	binary.BigEndian.PutUint64(buf[8:16], uint64(len(body)))
	binary.BigEndian.PutUint64(buf[16:24], xxhash.Sum64(body))
	return append(buf, body...)
}

func TestRoundTrip(t *testing.T) {
	g := sampleGraph(t)

	data, err := EncodeGraph(g)
	require.NoError(t, err)
	assert.Equal(t, Magic, string(data[:4]))

	restored, err := DecodeGraph(data, g.Config())
	require.NoError(t, err)
	require.NoError(t, restored.Validate())

	assert.Empty(t, cmp.Diff(g.Snapshot(), restored.Snapshot(), cmpopts.EquateEmpty()))

	for _, id := range []valueobjects.ThoughtID{"a", "b", "c"} {
		want, err := g.Incoming(id)
		require.NoError(t, err)
		got, err := restored.Incoming(id)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(want, got, cmpopts.EquateEmpty()), "incoming %s", id)
	}
	assert.Equal(t, g.ThoughtsWithTag("work"), restored.ThoughtsWithTag("work"))

	again, err := EncodeGraph(restored)
	require.NoError(t, err)
	assert.Equal(t, data, again, "re-encoding a decoded store is byte-identical")
}

func TestEmptyGraph(t *testing.T) {
	data, err := EncodeGraph(aggregates.NewGraph(nil))
	require.NoError(t, err)

	g, err := DecodeGraph(data, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, g.ThoughtCount())
	assert.Empty(t, g.Tags())
}

func TestEncodeIsDeterministic(t *testing.T) {
	first, err := EncodeGraph(sampleGraph(t))
	require.NoError(t, err)
	second, err := EncodeGraph(sampleGraph(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFailedMutationLeavesEncodingUnchanged(t *testing.T) {
	g := sampleGraph(t)
	before, err := EncodeGraph(g)
	require.NoError(t, err)

	_, err = g.AddReference("a", "a", "")
	require.Error(t, err)
	_, err = g.CreateThought(aggregates.NewThoughtParams{ID: "a"})
	require.Error(t, err)
	require.Error(t, g.DeleteThought("missing"))
	_, err = g.AddReference("a", "missing", "")
	require.Error(t, err)

	after, err := EncodeGraph(g)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	valid, err := EncodeGraph(sampleGraph(t))
	require.NoError(t, err)

	mutate := func(f func(b []byte) []byte) []byte {
		c := append([]byte(nil), valid...)
		return f(c)
	}

	garbage := []byte{0xc1, 0xc1, 0xc1}
	dangling, err := msgpack.Marshal(&payload{
		Thoughts:   []thoughtRecord{{ID: "a", CreatedAt: 1, UpdatedAt: 1}},
		References: []referenceRecord{{From: "a", To: "ghost", CreatedAt: 1}},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		wantType pkgerrors.ErrorType
		graph    bool
	}{
		{"empty", nil, pkgerrors.ErrorTypeCorruptData, false},
		{"truncated header", valid[:10], pkgerrors.ErrorTypeCorruptData, false},
		{"truncated payload", valid[:len(valid)-1], pkgerrors.ErrorTypeCorruptData, false},
		{"trailing bytes", append(append([]byte(nil), valid...), 0), pkgerrors.ErrorTypeCorruptData, false},
		{"bad magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), pkgerrors.ErrorTypeCorruptData, false},
		{"future version", mutate(func(b []byte) []byte { binary.BigEndian.PutUint16(b[4:6], 2); return b }), pkgerrors.ErrorTypeVersionMismatch, false},
		{"unknown flags", mutate(func(b []byte) []byte { b[7] = 1; return b }), pkgerrors.ErrorTypeCorruptData, false},
		{"flipped payload bit", mutate(func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }), pkgerrors.ErrorTypeCorruptData, false},
		{"checksummed garbage", frame(garbage, FormatVersion), pkgerrors.ErrorTypeCorruptData, false},
		{"dangling reference", frame(dangling, FormatVersion), pkgerrors.ErrorTypeCorruptData, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.graph {
				var g *aggregates.Graph
				g, err = DecodeGraph(tt.data, nil)
				assert.Nil(t, g)
			} else {
				_, err = Decode(tt.data)
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, pkgerrors.TypeOf(err))
		})
	}
}
