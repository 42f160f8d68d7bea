// Package locale holds the user-facing text templates loaded from a YAML file.
package locale

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/rosterbot/core/logger"
)

// Store is an immutable key -> template mapping. The zero value is usable and empty.
type Store struct {
	texts map[string]string
}

// New builds a store from an in-memory mapping.
func New(texts map[string]string) *Store {
	cp := make(map[string]string, len(texts))
	for k, v := range texts {
		cp[k] = v
	}
	return &Store{texts: cp}
}

// Load reads the YAML file at path. Any failure yields an empty store and a
// logged warning so the bot still answers with raw keys.
func Load(ctx context.Context, path string) *Store {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn(ctx, "locale", "locale.load",
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return New(nil)
	}
	s, err := Parse(raw)
	if err != nil {
		logger.Warn(ctx, "locale", "locale.load",
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return New(nil)
	}
	logger.Info(ctx, "locale", "locale.load",
		slog.String("path", path),
		slog.Int("keys", s.Len()),
	)
	return s
}

// Parse decodes YAML into a store. Nested mappings are flattened by leaf key;
// sequences are joined with newlines.
func Parse(raw []byte) (*Store, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse locale: %w", err)
	}
	texts := make(map[string]string, len(doc))
	flatten(doc, texts)
	return &Store{texts: texts}, nil
}

func flatten(node map[string]any, out map[string]string) {
	for k, v := range node {
		switch val := v.(type) {
		case map[string]any:
			flatten(val, out)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, "\n")
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
}

// Len reports the number of loaded keys.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.texts)
}

// Get returns the template for key, or key itself when it is not defined.
func (s *Store) Get(key string) string {
	if s != nil {
		if v, ok := s.texts[key]; ok {
			return v
		}
	}
	return key
}

// Format renders the template for key with vars.
func (s *Store) Format(key string, vars map[string]any) string {
	return Render(s.Get(key), vars)
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render substitutes {name} placeholders. Unknown names are left as written.
func Render(template string, vars map[string]any) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vars[name]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}
