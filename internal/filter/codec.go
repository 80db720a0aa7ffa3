package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

// Format is a filter state encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension, YAML by default
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// EncodeState serializes a filter state
func EncodeState(state models.FilterState, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(state, "", "  ")
	case FormatYAML:
		return yaml.Marshal(state)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// DecodeState parses a filter state and revalidates every rule. Rules
// without an id get a generated one.
func DecodeState(data []byte, format Format) (models.FilterState, error) {
	var state models.FilterState
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &state)
	case FormatYAML:
		err = yaml.Unmarshal(data, &state)
	default:
		return state, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return models.FilterState{}, fmt.Errorf("failed to decode filter state: %w", err)
	}

	for i := range state.Rules {
		if err := revalidate(&state.Rules[i]); err != nil {
			return models.FilterState{}, err
		}
	}
	if state.Advanced != nil {
		if err := revalidateGroup(state.Advanced); err != nil {
			return models.FilterState{}, err
		}
	}
	if state.Unread == "" {
		state.Unread = models.UnreadAll
	}
	if state.LastMessage == "" {
		state.LastMessage = models.WindowAll
	}
	return state, nil
}

func revalidate(r *models.Rule) error {
	if r.ID == "" {
		fresh, err := models.NewRule(r.Field, r.Operator, r.Value)
		if err != nil {
			return invalid(*r, err)
		}
		*r = fresh
		return nil
	}
	if err := r.Validate(); err != nil {
		return invalid(*r, err)
	}
	return nil
}

func revalidateGroup(g *models.RuleGroup) error {
	if g.Condition == "" {
		g.Condition = models.ConditionAnd
	}
	if g.Condition != models.ConditionAnd {
		return &ValidationError{Err: fmt.Errorf("%w: %s", ErrUnsupportedCondition, g.Condition)}
	}
	for i := range g.Rules {
		if err := revalidate(&g.Rules[i]); err != nil {
			return err
		}
	}
	for i := range g.Groups {
		if err := revalidateGroup(&g.Groups[i]); err != nil {
			return err
		}
	}
	return nil
}

// LoadState reads a filter state file
func LoadState(path string) (models.FilterState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FilterState{}, fmt.Errorf("failed to read filter state: %w", err)
	}
	return DecodeState(data, FormatFromPath(path))
}

// SaveState writes a filter state file
func SaveState(path string, state models.FilterState) error {
	data, err := EncodeState(state, FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to encode filter state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write filter state: %w", err)
	}
	return nil
}
