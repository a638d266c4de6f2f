package keymaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKeyMapDefaults(t *testing.T) {
	km := BuildKeyMap(nil)
	assert.Equal(t, []string{"t"}, km.StartPause.Keys())
	assert.Equal(t, []string{"/", "ctrl+f"}, km.SearchTasks.Keys())
	assert.Equal(t, "complete/reopen task", km.ToggleStatus.Help().Desc)
}

func TestBuildKeyMapOverridesIgnoreCase(t *testing.T) {
	km := BuildKeyMap(map[string]string{
		"startpause": "enter, ctrl+s",
		"QuitApp":    "ctrl+q",
		"AddTask":    " , ",
	})
	assert.Equal(t, []string{"enter", "ctrl+s"}, km.StartPause.Keys())
	assert.Equal(t, "enter", km.StartPause.Help().Key)
	assert.Equal(t, []string{"ctrl+q"}, km.QuitApp.Keys())
	assert.Equal(t, []string{"a"}, km.AddTask.Keys())
}

func TestEveryActionIsBound(t *testing.T) {
	km := BuildKeyMap(nil)
	fields := km.fields()
	assert.Len(t, fields, len(KeyDefinitions))
	for _, action := range Actions() {
		binding, ok := fields[action]
		if assert.True(t, ok, action) {
			assert.NotEmpty(t, binding.Keys(), action)
		}
	}
	assert.Equal(t, len(KeyDefinitions), len(GetDefaultKeyMappings()))
}

func TestSpaceMatchesBlank(t *testing.T) {
	km := BuildKeyMap(nil)
	assert.Equal(t, []string{"space", " "}, km.ToggleStatus.Keys())
	assert.Equal(t, "space", km.ToggleStatus.Help().Key)
}
