package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	DefaultTrue  = []string{"1", "yes", "true", "on"}  // DefaultTrue are the values considered "true" when using [Bool], and can be changed.
	DefaultFalse = []string{"0", "no", "false", "off"} // DefaultFalse are the values considered "false" when using [Bool], and can be changed.
)

// Vars reads configuration defaults from environment variables that share a prefix.
// The zero value reads variables without a prefix.
//
// Keys are compared case-insensitive, and values are trimmed.
// An unset or empty variable, or one that can't be parsed as the requested type, yields the default value.
type Vars struct {
	prefix string
}

// Prefixed returns a [Vars] that reads variables named PREFIX_NAME.
// This is intended for applications that allow overriding flag defaults, like EBUSBENCH_EVENTS for an --events flag.
func Prefixed(prefix string) Vars {
	return Vars{prefix: strings.TrimSuffix(prefix, "_")}
}

// Key returns the full variable name for name.
// Dashes are translated to underscores, so flag names can be used directly.
func (v Vars) Key(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	if len(v.prefix) == 0 {
		return strings.ToUpper(name)
	}
	return strings.ToUpper(v.prefix + "_" + name)
}

func (v Vars) lookup(name string) (string, bool) {
	key := v.Key(name)
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val), len(strings.TrimSpace(val)) > 0
	}
	for _, kv := range os.Environ() {
		k, val, found := strings.Cut(kv, "=")
		if !found || !strings.EqualFold(k, key) {
			continue
		}
		val = strings.TrimSpace(val)
		return val, len(val) > 0
	}
	return "", false
}

// Val returns the value of the variable, or defaultVal if it's unset or empty.
func (v Vars) Val(name string, defaultVal string) string {
	if val, ok := v.lookup(name); ok {
		return val
	}
	return defaultVal
}

// BoolIf translates the variable to a boolean using the given translation map.
// It's expected for the user to populate translation with a set of strings that relate to the map key.
// A whitelist for one particular value can be created by setting either the true or false slice to be empty.
func (v Vars) BoolIf(name string, defaultVal bool, translation map[bool][]string) bool {
	val, ok := v.lookup(name)
	if !ok || translation == nil {
		return defaultVal
	}
	for _, candidate := range []bool{true, false} {
		for _, s := range translation[candidate] {
			if strings.EqualFold(val, s) {
				return candidate
			}
		}
	}
	return defaultVal
}

// Bool translates the variable with [DefaultTrue] and [DefaultFalse].
func (v Vars) Bool(name string, defaultVal bool) bool {
	return v.BoolIf(name, defaultVal, map[bool][]string{
		true:  DefaultTrue,
		false: DefaultFalse,
	})
}

func (v Vars) Int(name string, defaultVal int) int {
	return parsed(v, name, defaultVal, strconv.Atoi)
}

func (v Vars) Float(name string, defaultVal float64) float64 {
	return parsed(v, name, defaultVal, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (v Vars) Duration(name string, defaultVal time.Duration) time.Duration {
	return parsed(v, name, defaultVal, time.ParseDuration)
}

// Choice returns the variable's value if it's one of allowed, compared case-insensitive.
// Otherwise, defaultVal is returned.
func (v Vars) Choice(name string, defaultVal string, allowed ...string) string {
	val, ok := v.lookup(name)
	if !ok {
		return defaultVal
	}
	for _, a := range allowed {
		if strings.EqualFold(val, a) {
			return a
		}
	}
	return defaultVal
}

func parsed[T any](v Vars, name string, defaultVal T, parse func(string) (T, error)) T {
	val, ok := v.lookup(name)
	if !ok {
		return defaultVal
	}
	result, err := parse(val)
	if err != nil {
		return defaultVal
	}
	return result
}

// Val will attempt to get an environment variable value using the given key.
// If the variable isn't set, or is empty, then the defaultVal will be returned.
// Note that keys are compared case-insensitive.
func Val(key string, defaultVal string) string {
	return Vars{}.Val(key, defaultVal)
}

// BoolIf is the same as [Vars.BoolIf] without a prefix.
func BoolIf(key string, defaultVal bool, translation map[bool][]string) bool {
	return Vars{}.BoolIf(key, defaultVal, translation)
}

// Bool interprets an environment variable as a boolean, using [DefaultTrue] and [DefaultFalse].
func Bool(key string, defaultVal bool) bool {
	return Vars{}.Bool(key, defaultVal)
}

// Int will attempt to interpret an environment variable as an integer, returning the defaultVal if the environment variable isn't found or can't be a valid integer.
func Int(key string, defaultVal int) int {
	return Vars{}.Int(key, defaultVal)
}

func Float(key string, defaultVal float64) float64 {
	return Vars{}.Float(key, defaultVal)
}

func Duration(key string, defaultVal time.Duration) time.Duration {
	return Vars{}.Duration(key, defaultVal)
}
