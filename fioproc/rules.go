// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fioproc derives logical identifiers from result-file paths
// and defines the canonical ordering of task groups.
//
// Result trees follow deployment naming conventions: a task
// directory like "parallel-6-rand-write-20250102T030405Z", a runner
// directory like "fio-runner-a1b2". These are conventions, not a
// general path grammar: each identifier is resolved by an ordered
// list of (pattern, extract) rules over path segments, and a path
// that matches nothing simply yields no identifier. Absence is never
// an error and never replaced by a guess.
package fioproc

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/perftools/fiostat/fiofmt"
)

// A Rule matches one path segment and extracts an identifier from it.
// The identifier is the pattern's first capture group when one is
// present, otherwise the whole match. Timestamp rules additionally
// carry the time layout the extracted text is parsed with (in UTC).
type Rule struct {
	Pattern *regexp.Regexp
	Layout  string
}

func (r Rule) extract(seg string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(seg)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// Rules is the ordered set of conventions used to resolve the three
// identifiers. Within each list, earlier rules outrank later ones.
type Rules struct {
	Task      []Rule
	Runner    []Rule
	Timestamp []Rule
}

// DefaultRules returns the deployment's default conventions:
//
//   - task: a segment named parallel-<N>-<letters>-...;
//   - runner: a segment named fio-runner-<alphanumeric>;
//   - timestamp: an embedded YYYYMMDDThhmmssZ, anywhere in the path.
func DefaultRules() *Rules {
	return &Rules{
		Task: []Rule{
			{Pattern: regexp.MustCompile(`(?i)^(parallel-\d+-[a-z]+-.*)$`)},
		},
		Runner: []Rule{
			{Pattern: regexp.MustCompile(`(?i)^(fio-runner-[a-z0-9]+)$`)},
		},
		Timestamp: []Rule{
			{Pattern: regexp.MustCompile(`(20\d{6}T\d{6})Z`), Layout: "20060102T150405"},
		},
	}
}

// Resolve derives the identifiers encoded in a scan-root-relative
// path. Rules are tried in order; within one rule, path segments are
// tried left to right. When no task rule matches, the first path
// segment is used as the task, provided the path has more than one
// segment; a lone filename carries no task information.
func (rs *Rules) Resolve(relPath string) fiofmt.Identity {
	// Result bundles are often produced on Windows runners and
	// scanned elsewhere, so backslash separators are normalized
	// unconditionally, not just on Windows hosts.
	segs := strings.Split(strings.ReplaceAll(relPath, `\`, "/"), "/")
	var id fiofmt.Identity

	id.Task = applyRules(rs.Task, segs)
	if id.Task == "" && len(segs) > 1 {
		id.Task = segs[0]
	}
	id.Runner = applyRules(rs.Runner, segs)

	for _, r := range rs.Timestamp {
		text, ok := "", false
		for _, seg := range segs {
			if text, ok = r.extract(seg); ok {
				break
			}
		}
		if !ok {
			continue
		}
		ts, err := time.ParseInLocation(r.Layout, text, time.UTC)
		if err != nil {
			continue
		}
		id.Timestamp = ts
		break
	}
	return id
}

func applyRules(rules []Rule, segs []string) string {
	for _, r := range rules {
		for _, seg := range segs {
			if v, ok := r.extract(seg); ok {
				return v
			}
		}
	}
	return ""
}

// ruleConfig is the YAML form of one rule.
type ruleConfig struct {
	Pattern string `yaml:"pattern"`
	Layout  string `yaml:"layout,omitempty"`
}

type rulesConfig struct {
	Task      []ruleConfig `yaml:"task"`
	Runner    []ruleConfig `yaml:"runner"`
	Timestamp []ruleConfig `yaml:"timestamp"`
}

// ParseRules loads replacement conventions from YAML. Every
// identifier list that the document leaves empty keeps its defaults,
// so a deployment can override just the rule set that differs.
func ParseRules(data []byte) (*Rules, error) {
	var cfg rulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing convention rules")
	}

	rs := DefaultRules()
	var err error
	if len(cfg.Task) > 0 {
		if rs.Task, err = compileRules(cfg.Task, "task"); err != nil {
			return nil, err
		}
	}
	if len(cfg.Runner) > 0 {
		if rs.Runner, err = compileRules(cfg.Runner, "runner"); err != nil {
			return nil, err
		}
	}
	if len(cfg.Timestamp) > 0 {
		if rs.Timestamp, err = compileRules(cfg.Timestamp, "timestamp"); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// LoadRules reads convention rules from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "conventions file %q", path)
	}
	return ParseRules(data)
}

func compileRules(cfgs []ruleConfig, kind string) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for _, c := range cfgs {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "%s rule %q", kind, c.Pattern)
		}
		rules = append(rules, Rule{Pattern: re, Layout: c.Layout})
	}
	return rules, nil
}
