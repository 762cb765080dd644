// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/formcoach/internal/form"
	"github.com/verte-zerg/formcoach/internal/model"
	"github.com/verte-zerg/formcoach/internal/timing"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Coaching CoachingConfig                   `toml:"coaching"`
	Rules    map[string]map[string]RuleConfig `toml:"rules"`
	Timeline []TimelineConfig                 `toml:"timeline"`
}

// CoachingConfig maps coaching-related settings.
type CoachingConfig struct {
	Exercise      *string  `toml:"exercise"`
	Coach         *string  `toml:"coach"`
	CooldownMs    *int     `toml:"cooldown-ms"`
	IntervalMs    *int     `toml:"interval-ms"`
	MinVisibility *float64 `toml:"min-visibility"`
	Personalize   *bool    `toml:"personalize"`
	// BuiltinTimeline keeps the bundled scripts alongside [[timeline]]
	// entries. Defaults to true.
	BuiltinTimeline *bool `toml:"builtin-timeline"`
}

// RuleConfig tunes one classifier rule.
type RuleConfig struct {
	Threshold *float64 `toml:"threshold"`
	Upper     *float64 `toml:"upper"`
	Penalty   *int     `toml:"penalty"`
}

// TimelineConfig is a scripted feedback timeline.
type TimelineConfig struct {
	Exercise string       `toml:"exercise"`
	Coach    string       `toml:"coach"`
	CatchUp  bool         `toml:"catch-up"`
	Marks    []MarkConfig `toml:"marks"`
}

// MarkConfig is one scripted message.
type MarkConfig struct {
	At       int    `toml:"at"`
	Category string `toml:"category"`
	Message  string `toml:"message"`
	Score    int    `toml:"score"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Overrides converts [rules.<exercise>.<rule>] tables into classifier
// overrides. Exercise names are matched exactly.
func (c FileConfig) Overrides() (map[model.Exercise]map[string]form.Override, error) {
	if len(c.Rules) == 0 {
		return nil, nil
	}
	out := make(map[model.Exercise]map[string]form.Override, len(c.Rules))
	for name, rules := range c.Rules {
		ex, err := exerciseFor(name)
		if err != nil {
			return nil, fmt.Errorf("rules.%s: %w", name, err)
		}
		byRule := make(map[string]form.Override, len(rules))
		for id, r := range rules {
			if r.Penalty != nil && *r.Penalty < 0 {
				return nil, fmt.Errorf("rules.%s.%s: penalty must be >= 0", name, id)
			}
			byRule[id] = form.Override{Threshold: r.Threshold, Upper: r.Upper, Penalty: r.Penalty}
		}
		out[ex] = byRule
	}
	return out, nil
}

// Scripts converts [[timeline]] entries into timing scripts with marks
// ordered by second.
func (c FileConfig) Scripts() ([]timing.Script, error) {
	scripts := make([]timing.Script, 0, len(c.Timeline))
	for i, tl := range c.Timeline {
		ex, err := exerciseFor(tl.Exercise)
		if err != nil {
			return nil, fmt.Errorf("timeline %d: %w", i+1, err)
		}
		if tl.Coach == "" {
			return nil, fmt.Errorf("timeline %d: coach must not be empty", i+1)
		}
		script := timing.Script{Exercise: ex, Coach: tl.Coach, CatchUp: tl.CatchUp}
		seen := map[int]struct{}{}
		for _, m := range tl.Marks {
			if m.At < 0 {
				return nil, fmt.Errorf("timeline %d: mark second must be >= 0", i+1)
			}
			if _, dup := seen[m.At]; dup {
				return nil, fmt.Errorf("timeline %d: duplicate mark at %ds", i+1, m.At)
			}
			seen[m.At] = struct{}{}
			cat, err := categoryFor(m.Category)
			if err != nil {
				return nil, fmt.Errorf("timeline %d: %w", i+1, err)
			}
			if m.Score < 0 || m.Score > 100 {
				return nil, fmt.Errorf("timeline %d: score must be between 0 and 100", i+1)
			}
			script.Marks = append(script.Marks, timing.Mark{AtSecond: m.At, Category: cat, Message: m.Message, Score: m.Score})
		}
		sort.Slice(script.Marks, func(a, b int) bool { return script.Marks[a].AtSecond < script.Marks[b].AtSecond })
		scripts = append(scripts, script)
	}
	return scripts, nil
}

func exerciseFor(name string) (model.Exercise, error) {
	for _, ex := range model.Exercises {
		if string(ex) == name {
			return ex, nil
		}
	}
	return "", fmt.Errorf("unknown exercise %q", name)
}

func categoryFor(name string) (model.Category, error) {
	switch c := model.Category(name); c {
	case model.Good, model.Warning, model.Error:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", name)
	}
}
