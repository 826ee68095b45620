package layout

import (
	"testing"

	"github.com/piwi3910/SolarRack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorUndoRedo(t *testing.T) {
	e := NewEditor(testConfig())

	e.Fill(0, 0, 3, 1)
	e.Toggle(1, 1)
	assert.Equal(t, "###\n.#.", e.Configuration().Grid.String())

	require.True(t, e.Undo())
	assert.Equal(t, "###\n...", e.Configuration().Grid.String())

	require.True(t, e.Undo())
	assert.Equal(t, "...\n...", e.Configuration().Grid.String())
	assert.False(t, e.Undo(), "nothing left to undo")

	require.True(t, e.Redo())
	require.True(t, e.Redo())
	assert.Equal(t, "###\n.#.", e.Configuration().Grid.String())
	assert.False(t, e.Redo())
}

func TestEditorDoesNotMutateInput(t *testing.T) {
	cfg := testConfig()
	e := NewEditor(cfg)
	e.Fill(0, 0, 3, 2)

	assert.Equal(t, 0, cfg.Grid.SelectedCount())
	out := e.Configuration()
	out.Grid.Set(0, 0, false)
	assert.Equal(t, 6, e.Configuration().Grid.SelectedCount(), "returned copy is independent")
}

func TestEditorToggleOutsideIgnored(t *testing.T) {
	e := NewEditor(testConfig())
	e.Toggle(7, 7)
	assert.False(t, e.History().CanUndo(), "no-op edits are not recorded")
}

func TestEditorResizeRotateAndOptions(t *testing.T) {
	e := NewEditor(testConfig())
	e.Fill(0, 0, 3, 2)
	e.Resize(1, 2)
	e.Rotate()
	e.SetOptions(model.AccessoryOptions{SolarCable: true})

	cfg := e.Configuration()
	assert.Equal(t, "##", cfg.Grid.String())
	assert.Equal(t, model.OrientationVertical, cfg.Dimensions.Orientation)
	assert.True(t, cfg.Options.SolarCable)

	e.Undo()
	e.Undo()
	e.Undo()
	cfg = e.Configuration()
	assert.Equal(t, 2, cfg.Grid.Rows)
	assert.Equal(t, model.OrientationHorizontal, cfg.Dimensions.Orientation)
	assert.False(t, cfg.Options.SolarCable)
}

func TestEditorApply(t *testing.T) {
	e := NewEditor(testConfig())

	for _, cmd := range []string{"fill 0,0,2,2", "toggle 0,1", "resize 2,4", "toggle 3 0", "rotate"} {
		require.NoError(t, e.Apply(cmd), cmd)
	}
	cfg := e.Configuration()
	assert.Equal(t, "##.#\n.#..", cfg.Grid.String())
	assert.Equal(t, model.OrientationVertical, cfg.Dimensions.Orientation)

	require.NoError(t, e.Apply("undo"))
	require.NoError(t, e.Apply("clear"))
	assert.Equal(t, 0, e.Configuration().Grid.SelectedCount())
}

func TestEditorApplyErrors(t *testing.T) {
	e := NewEditor(testConfig())
	for _, cmd := range []string{"paint 1,1", "toggle 1", "fill a,b,c,d", "resize -1,2", "resize 100000,100000"} {
		assert.Error(t, e.Apply(cmd), cmd)
	}
}
