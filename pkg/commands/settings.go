package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"focusflow/pkg/database"
)

// SettingsFormatFor picks the settings file format from an explicit name or extension
func SettingsFormatFor(filename, explicit string) (string, error) {
	format := strings.ToLower(explicit)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	}
	switch format {
	case "yml", "yaml":
		return "yaml", nil
	case "json", "toml":
		return format, nil
	}
	return "", fmt.Errorf("unknown settings format %q (json, yaml or toml)", format)
}

func encodeSettings(w io.Writer, settings database.Settings, format string) error {
	patch := database.PatchFrom(settings)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(patch)
	case "toml":
		return toml.NewEncoder(w).Encode(patch)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(patch)
	}
}

func decodeSettings(content []byte, format string) (database.SettingsPatch, error) {
	var patch database.SettingsPatch
	var err error
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		err = dec.Decode(&patch)
	case "toml":
		var meta toml.MetaData
		meta, err = toml.Decode(string(content), &patch)
		if err == nil {
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %q", undecoded[0].String())
			}
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		err = dec.Decode(&patch)
		if err == io.EOF {
			err = nil
		}
	}
	if err != nil {
		return database.SettingsPatch{}, fmt.Errorf("%w: parse %s: %v", database.ErrInvalidSettings, format, err)
	}
	return patch, nil
}

// HandleSettingsShow prints the current settings
func HandleSettingsShow(env *Env, format string) error {
	if format == "" {
		format = "yaml"
	}
	format, err := SettingsFormatFor("", format)
	if err != nil {
		return err
	}
	return encodeSettings(env.out(), env.Session.Settings(), format)
}

// HandleSettingsSet applies key=value assignments using the yaml key names,
// for example focus_minutes=50 auto_start_breaks=false
func HandleSettingsSet(ctx context.Context, env *Env, assignments []string) (database.Settings, error) {
	if len(assignments) == 0 {
		return database.Settings{}, fmt.Errorf("%w: nothing to set", database.ErrInvalidSettings)
	}

	var doc strings.Builder
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return database.Settings{}, fmt.Errorf("%w: expected key=value, got %q", database.ErrInvalidSettings, assignment)
		}
		fmt.Fprintf(&doc, "%s: %s\n", key, strings.TrimSpace(value))
	}

	patch, err := decodeSettings([]byte(doc.String()), "yaml")
	if err != nil {
		return database.Settings{}, err
	}
	settings, err := env.Session.ApplySettings(ctx, patch)
	if err != nil {
		return database.Settings{}, err
	}
	fmt.Fprintln(env.out(), "Settings saved.")
	return settings, nil
}

// HandleSettingsReset restores the factory settings
func HandleSettingsReset(ctx context.Context, env *Env) (database.Settings, error) {
	settings, err := env.Session.ResetSettings(ctx)
	if err != nil {
		return database.Settings{}, err
	}
	fmt.Fprintln(env.out(), "Settings reset to defaults.")
	return settings, nil
}

// HandleSettingsExport writes the settings to filename
func HandleSettingsExport(env *Env, filename, format string) error {
	format, err := SettingsFormatFor(filename, format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := encodeSettings(&buf, env.Session.Settings(), format); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	fmt.Fprintf(env.out(), "Exported settings to %s\n", filename)
	return nil
}

// HandleSettingsImport merges the settings found in filename over the current ones
func HandleSettingsImport(ctx context.Context, env *Env, filename, format string) (database.Settings, error) {
	format, err := SettingsFormatFor(filename, format)
	if err != nil {
		return database.Settings{}, err
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return database.Settings{}, fmt.Errorf("read %s: %w", filename, err)
	}
	patch, err := decodeSettings(content, format)
	if err != nil {
		return database.Settings{}, err
	}
	settings, err := env.Session.ApplySettings(ctx, patch)
	if err != nil {
		return database.Settings{}, err
	}
	fmt.Fprintf(env.out(), "Imported settings from %s\n", filename)
	return settings, nil
}
