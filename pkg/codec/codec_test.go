package codec

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/democrat/pkg/democrat"
)

var goldenTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func testOptions(sched democrat.Scheduler) []democrat.Option {
	return []democrat.Option{
		democrat.WithScheduler(sched),
		democrat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

var leaf = democrat.NewComponent("Leaf", func(h *democrat.Hooks, _ struct{}) string {
	v, _ := democrat.UseState(h, "x")
	return v
})

var recordTree = democrat.NewComponent("Record", func(h *democrat.Hooks, _ struct{}) int {
	n, _ := democrat.UseState(h, 3)
	democrat.UseEffect(h, func() democrat.Cleanup { return nil }, democrat.Deps{})
	democrat.UseChildren[map[string]any](h, map[string]any{
		"a": leaf.Create(struct{}{}),
		"b": nil,
	})
	return n
})

type itemState struct {
	Count int
	Set   *democrat.Setter[int]
}

var item = democrat.NewComponent("Item", func(h *democrat.Hooks, _ struct{}) itemState {
	count, set := democrat.UseState(h, 0)
	return itemState{Count: count, Set: set}
})

var listTree = democrat.NewComponent("List", func(h *democrat.Hooks, _ struct{}) []itemState {
	democrat.UseState(h, "outer")
	return democrat.UseChildren[[]itemState](h, []*democrat.Element{item.Create(struct{}{})})
})

func TestGolden_Snapshot(t *testing.T) {
	s := democrat.CreateStore[int](recordTree.Create(struct{}{}), testOptions(democrat.NewManualScheduler())...)
	env := &Envelope{Store: "golden", CreatedAt: goldenTime, Snapshot: s.GetSnapshot()}

	data, err := Marshal(FormatJSON, env)
	require.NoError(t, err)
	newGolden(t).Assert(t, "snapshot", data)
}

func TestGolden_Patches(t *testing.T) {
	sched := democrat.NewManualScheduler()
	s := democrat.CreateStore[[]itemState](listTree.Create(struct{}{}), testOptions(sched)...)
	var patches []democrat.Patch
	s.SubscribePatches(func(ps []democrat.Patch) { patches = append(patches, ps...) })
	s.GetState()[0].Set.Set(5)
	sched.Flush()
	require.Len(t, patches, 1)

	env := &Envelope{Store: "golden", CreatedAt: goldenTime, Patches: patches}
	data, err := Marshal(FormatJSON, env)
	require.NoError(t, err)
	newGolden(t).Assert(t, "patches", data)
}

func TestConvert_ThroughEveryFormat(t *testing.T) {
	for _, name := range []string{"snapshot", "patches"} {
		t.Run(name, func(t *testing.T) {
			g := newGolden(t)
			original := g.GoldenFileName(t, name)
			data := readFile(t, original)

			yamlData, err := Convert(data, FormatJSON, FormatYAML)
			require.NoError(t, err)
			packed, err := Convert(yamlData, FormatYAML, FormatMsgPack)
			require.NoError(t, err)
			back, err := Convert(packed, FormatMsgPack, FormatJSON)
			require.NoError(t, err)

			assert.Equal(t, string(data), string(back))
		})
	}
}

type tallyState struct {
	Total int
	Add   *democrat.Setter[int]
	Tags  *democrat.Setter[[]string]
	Items *democrat.Map
}

var counter = democrat.NewComponent("Counter", func(h *democrat.Hooks, _ struct{}) itemState {
	count, set := democrat.UseState(h, 0)
	return itemState{Count: count, Set: set}
})

var tally = democrat.NewComponent("Tally", func(h *democrat.Hooks, _ struct{}) tallyState {
	total, add := democrat.UseState(h, 0)
	_, tags := democrat.UseState(h, []string{})
	children := democrat.NewMap()
	for _, id := range []int{10, 20} {
		children.Set(id, counter.Create(struct{}{}))
	}
	items := democrat.UseChildren[*democrat.Map](h, children)
	return tallyState{Total: total, Add: add, Tags: tags, Items: items}
})

func itemAt(m *democrat.Map, key any) itemState {
	v, _ := m.Get(key)
	return v.(itemState)
}

func TestSnapshot_RestoreThroughEveryFormat(t *testing.T) {
	sched := democrat.NewManualScheduler()
	source := democrat.CreateStore[tallyState](tally.Create(struct{}{}), testOptions(sched)...)
	source.GetState().Add.Set(7)
	itemAt(source.GetState().Items, 20).Set.Set(4)
	sched.Flush()

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			data, err := EncodeSnapshot(f, source.Name(), source.GetSnapshot())
			require.NoError(t, err)
			snap, err := DecodeSnapshot(f, data)
			require.NoError(t, err)

			restored := democrat.CreateStore[tallyState](tally.Create(struct{}{}),
				append(testOptions(democrat.NewManualScheduler()), democrat.WithSnapshot(snap))...)
			st := restored.GetState()
			assert.Equal(t, 7, st.Total)
			assert.Equal(t, 4, itemAt(st.Items, 20).Count)
			assert.Equal(t, 0, itemAt(st.Items, 10).Count)
		})
	}
}

type todoAction struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type todoState struct {
	Todos    []string
	Dispatch *democrat.Dispatcher[todoAction]
}

var todos = democrat.NewComponent("Todos", func(h *democrat.Hooks, _ struct{}) todoState {
	list, dispatch := democrat.UseReducer(h, func(list []string, a todoAction) []string {
		if a.Type == "add" {
			return append(append([]string(nil), list...), a.Text)
		}
		return list
	}, []string{})
	return todoState{Todos: list, Dispatch: dispatch}
})

func TestPatches_ReplayThroughEveryFormat(t *testing.T) {
	sched := democrat.NewManualScheduler()
	source := democrat.CreateStore[todoState](todos.Create(struct{}{}), testOptions(sched)...)
	var patches []democrat.Patch
	source.SubscribePatches(func(ps []democrat.Patch) { patches = append(patches, ps...) })
	source.GetState().Dispatch.Dispatch(todoAction{Type: "add", Text: "milk"})
	source.GetState().Dispatch.Dispatch(todoAction{Type: "add", Text: "eggs"})
	sched.Flush()
	require.Len(t, patches, 2)

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			data, err := EncodePatches(f, "todos", patches)
			require.NoError(t, err)
			decoded, err := DecodePatches(f, data)
			require.NoError(t, err)
			require.Len(t, decoded, 2)

			targetSched := democrat.NewManualScheduler()
			target := democrat.CreateStore[todoState](todos.Create(struct{}{}), testOptions(targetSched)...)
			target.ApplyPatches(decoded)
			targetSched.Flush()
			assert.Equal(t, []string{"milk", "eggs"}, target.GetState().Todos)
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"yml", FormatYAML},
		{".yaml", FormatYAML},
		{"mpk", FormatMsgPack},
		{"msgpack", FormatMsgPack},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := FormatForPath("/tmp/state.snapshot.yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = FormatForPath("state")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, ".msgpack", FormatMsgPack.Ext())
	assert.True(t, FormatMsgPack.Binary())
	assert.Equal(t, "application/yaml", FormatYAML.ContentType())
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := Unmarshal(FormatJSON, []byte(`{"version": 99}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Unmarshal(FormatJSON, []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Unmarshal(FormatYAML, []byte("version: [unclosed"))
	assert.Error(t, err)

	_, err = Unmarshal(Format("xml"), nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Marshal(Format("xml"), &Envelope{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	data, err := EncodePatches(FormatJSON, "s", nil)
	require.NoError(t, err)
	_, err = DecodeSnapshot(FormatJSON, data)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestNormalize(t *testing.T) {
	got := normalize(map[any]any{
		1:     "one",
		"two": []any{map[any]any{true: 2}},
	})
	assert.Equal(t, map[string]any{
		"1":   "one",
		"two": []any{map[string]any{"true": 2}},
	}, got)
}
