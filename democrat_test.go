package democrat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/democrat"
)

type greeting struct {
	Text    string
	SetName *democrat.Setter[string]
}

var language = democrat.CreateContext("en").Named("Language")

var greeter = democrat.NewComponent("Greeter", func(h *democrat.Hooks, props struct{ Name string }) greeting {
	lang := democrat.UseContext(h, language)
	name, setName := democrat.UseState(h, props.Name)
	text := democrat.UseMemo(h, func() string {
		if lang == "fr" {
			return "bonjour " + name
		}
		return "hello " + name
	}, democrat.Deps{lang, name})
	return greeting{Text: text, SetName: setName}
})

func TestFacade_Store(t *testing.T) {
	sched := democrat.NewManualScheduler()
	store := democrat.CreateStore[map[string]any](
		language.Provider("fr", map[string]any{
			"a": greeter.Create(struct{ Name string }{"ana"}),
		}),
		democrat.WithScheduler(sched),
	)
	defer store.Destroy()

	g := store.GetState()["a"].(greeting)
	assert.Equal(t, "bonjour ana", g.Text)

	var patches []democrat.Patch
	store.SubscribePatches(func(ps []democrat.Patch) { patches = append(patches, ps...) })
	g.SetName.Set("bob")
	sched.Flush()

	assert.Equal(t, "bonjour bob", store.GetState()["a"].(greeting).Text)
	require.Len(t, patches, 1)
	assert.Equal(t, democrat.PatchState, patches[0].Kind)
	assert.Equal(t, "bob", patches[0].Value)
}
