package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

// Context holds the key/value pairs of one loaded profile. It is built once
// by a Loader and passed by reference to every step builder; nothing mutates
// it afterwards.
type Context struct {
	profile string
	values  map[string]any
}

// Profile returns the name of the loaded profile.
func (c *Context) Profile() string { return c.profile }

// Len returns the number of merged keys.
func (c *Context) Len() int { return len(c.values) }

// Keys returns the merged keys in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string value for key.
func (c *Context) Get(key string) (string, bool) {
	raw, ok := c.values[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}

// Value returns the string value for key, or fallback when absent.
func (c *Context) Value(key, fallback string) string {
	if value, ok := c.Get(key); ok {
		return value
	}
	return fallback
}

// Require returns the string value for key or a configuration error.
func (c *Context) Require(key string) (string, error) {
	value, ok := c.Get(key)
	if !ok {
		return "", &Error{Reason: ReasonMissingKey, Profile: c.profile, Key: key}
	}
	return value, nil
}

// StringList returns the list value for key, or nil when absent or not a
// list of strings.
func (c *Context) StringList(key string) []string {
	raw, ok := c.values[key]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			value, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, value)
		}
		return out
	}
	return nil
}

// NewContext builds a Context directly from values. Step builders normally
// receive a Context produced by a Loader; tests and programmatic callers use
// this constructor.
func NewContext(profile string, values map[string]any) *Context {
	copied := make(map[string]any, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return &Context{profile: profile, values: copied}
}

// Loader reads a profile document (YAML or JSON: a mapping from profile name
// to key/value pairs) and merges one named profile into a Context. Loading
// is idempotent: after the first successful load, further calls return the
// same Context without touching the document again.
type Loader struct {
	path   string
	logger *slog.Logger
	loaded bool
	ctx    *Context
}

func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: logger,
	}
}

// Load reads the document and selects the named profile.
func (l *Loader) Load(profile string) (*Context, error) {
	if profile == "" {
		return nil, &Error{Reason: ReasonMissingProfileName, Path: l.path}
	}
	if l.loaded {
		l.logger.Debug("Profile already loaded", "profile", l.ctx.profile)
		return l.ctx, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, &Error{Reason: ReasonMissingFile, Path: l.path, Err: err}
	}

	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, &Error{Reason: ReasonMalformed, Path: l.path, Err: err}
	}

	raw, ok := document[profile]
	if !ok {
		return nil, &Error{Reason: ReasonMissingProfile, Path: l.path, Profile: profile}
	}
	values, ok := raw.(map[string]any)
	if !ok {
		err := fmt.Errorf("profile is %T, expected a mapping", raw)
		return nil, &Error{Reason: ReasonMalformed, Path: l.path, Profile: profile, Err: err}
	}

	ctx := &Context{
		profile: profile,
		values:  make(map[string]any, len(values)),
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	l.logger.Info("Using configuration profile", "profile", profile, "document", l.path)
	for _, key := range keys {
		ctx.values[key] = values[key]
		l.logger.Info("Merged profile value", "key", key, "value", values[key])
	}

	l.ctx = ctx
	l.loaded = true
	return l.ctx, nil
}
