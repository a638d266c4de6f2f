package keymaps

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyDefinition struct {
	DefaultKey string
	Help       string
}

var KeyDefinitions = map[string]KeyDefinition{
	"ShowHelp":        {"?", "show/hide commands"},
	"QuitApp":         {"q", "quit"},
	"ToggleStatus":    {"space", "complete/reopen task"},
	"AddTask":         {"a", "add task"},
	"EditTask":        {"e", "edit task"},
	"DeleteTask":      {"d", "delete task"},
	"MoveTaskUp":      {"K,shift+up", "move task up"},
	"MoveTaskDown":    {"J,shift+down", "move task down"},
	"CyclePriority":   {"p", "cycle task priority"},
	"ShowDoneTasks":   {"ctrl+d", "show only done tasks"},
	"ShowUndoneTasks": {"ctrl+u", "show only pending tasks"},
	"FilterPriority":  {"f", "cycle priority filter"},
	"SearchTasks":     {"/,ctrl+f", "search tasks"},
	"ToggleSortBy":    {"s", "cycle sort by"},
	"ToggleGroupBy":   {"g", "cycle group by"},
	"ToggleSortOrder": {"o", "toggle sort order"},
	"StartPause":      {"t", "start/pause timer"},
	"StopTimer":       {"x", "stop timer"},
	"FocusMode":       {"1", "focus mode"},
	"ShortBreakMode":  {"2", "short break mode"},
	"LongBreakMode":   {"3", "long break mode"},
	"ToggleStats":     {"v", "show/hide statistics"},
}

type KeyMap struct {
	ShowHelp        key.Binding
	QuitApp         key.Binding
	ToggleStatus    key.Binding
	AddTask         key.Binding
	EditTask        key.Binding
	DeleteTask      key.Binding
	MoveTaskUp      key.Binding
	MoveTaskDown    key.Binding
	CyclePriority   key.Binding
	ShowDoneTasks   key.Binding
	ShowUndoneTasks key.Binding
	FilterPriority  key.Binding
	SearchTasks     key.Binding
	ToggleSortBy    key.Binding
	ToggleGroupBy   key.Binding
	ToggleSortOrder key.Binding
	StartPause      key.Binding
	StopTimer       key.Binding
	FocusMode       key.Binding
	ShortBreakMode  key.Binding
	LongBreakMode   key.Binding
	ToggleStats     key.Binding
}

func (km *KeyMap) fields() map[string]*key.Binding {
	return map[string]*key.Binding{
		"ShowHelp":        &km.ShowHelp,
		"QuitApp":         &km.QuitApp,
		"ToggleStatus":    &km.ToggleStatus,
		"AddTask":         &km.AddTask,
		"EditTask":        &km.EditTask,
		"DeleteTask":      &km.DeleteTask,
		"MoveTaskUp":      &km.MoveTaskUp,
		"MoveTaskDown":    &km.MoveTaskDown,
		"CyclePriority":   &km.CyclePriority,
		"ShowDoneTasks":   &km.ShowDoneTasks,
		"ShowUndoneTasks": &km.ShowUndoneTasks,
		"FilterPriority":  &km.FilterPriority,
		"SearchTasks":     &km.SearchTasks,
		"ToggleSortBy":    &km.ToggleSortBy,
		"ToggleGroupBy":   &km.ToggleGroupBy,
		"ToggleSortOrder": &km.ToggleSortOrder,
		"StartPause":      &km.StartPause,
		"StopTimer":       &km.StopTimer,
		"FocusMode":       &km.FocusMode,
		"ShortBreakMode":  &km.ShortBreakMode,
		"LongBreakMode":   &km.LongBreakMode,
		"ToggleStats":     &km.ToggleStats,
	}
}

// BuildKeyMap applies config overrides on top of the default bindings.
// Action names match case-insensitively since viper lowercases map keys.
func BuildKeyMap(configOverrides map[string]string) KeyMap {
	overrides := make(map[string]string, len(configOverrides))
	for action, keys := range configOverrides {
		overrides[strings.ToLower(action)] = keys
	}

	km := KeyMap{}
	fields := km.fields()
	for action, def := range KeyDefinitions {
		keyStr := def.DefaultKey
		if override, exists := overrides[strings.ToLower(action)]; exists && override != "" {
			keyStr = override
		}
		if field, ok := fields[action]; ok {
			*field = parseKeyBinding(keyStr, def.DefaultKey, def.Help)
		}
	}
	return km
}

func parseKeyBinding(keyStr, defaultKey, helpText string) key.Binding {
	if strings.TrimSpace(keyStr) == "" {
		keyStr = defaultKey
	}

	// Handle multiple keys separated by commas
	var keys []string
	for _, k := range strings.Split(keyStr, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return parseKeyBinding(defaultKey, defaultKey, helpText)
	}

	// the space bar arrives as a literal blank
	matchKeys := keys
	for _, k := range keys {
		if k == "space" {
			matchKeys = append(append([]string{}, keys...), " ")
			break
		}
	}

	return key.NewBinding(
		key.WithKeys(matchKeys...),
		key.WithHelp(keys[0], helpText),
	)
}

// GetDefaultKeyMappings returns the default key mappings for configuration
func GetDefaultKeyMappings() map[string]string {
	keyMappings := make(map[string]string)
	for action, def := range KeyDefinitions {
		keyMappings[action] = def.DefaultKey
	}
	return keyMappings
}

// Actions returns the action names in alphabetical order
func Actions() []string {
	actions := make([]string, 0, len(KeyDefinitions))
	for action := range KeyDefinitions {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}
