// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/airfeed/airfeed/color"
	"github.com/airfeed/airfeed/constant"
	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Airfeed + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlaylistMode, "normal", "Playlist traversal mode.\nAvailable options are: normal, randomize, random")
	register(key.PlaylistReloadAmount, 0, "Reload the playlist contents every that many rounds or seconds.\n0 disables reloading")
	register(key.PlaylistReloadUnit, "rounds", "Unit for playlist.reload_amount.\nAvailable options are: rounds, seconds")
	register(key.PlaylistMimeType, "", "MIME type of the playlist document.\nLeave empty to autodetect the format")
	register(key.PlaylistPrefix, "", "Prefix prepended to every URI resolved from the playlist")
	register(key.PlaylistSafe, false, "Require at least one valid entry at load time.\nConstruction fails otherwise")
	register(key.PrefetchTargetSeconds, 10.0, "Amount of buffered playable time (seconds) the feeder tries to maintain")
	register(key.PrefetchDefaultDuration, 30.0, "Duration (seconds) assumed for media that reports no duration metadata")
	register(key.PrefetchTimeout, 20.0, "Timeout (seconds) for resolving a single media request")
	register(key.PrefetchConservative, false, "Do not count the currently playing item towards the buffer target")
	register(key.CacheDurationHints, true, "Remember resolved media durations across runs to improve buffer estimates")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliNextN, 10, "How many upcoming entries the next command lists by default")
	register(key.CliVersionCheck, true, "Check if new version is available")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd, plain")
	register(key.HistorySave, true, "Remember played playlist URIs")
	register(key.HistorySuggestions, true, "Suggest previously played playlist URIs when none is given")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
