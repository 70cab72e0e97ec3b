package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// section groups options under one [table]; the empty name holds top-level keys.
type section struct {
	name string
	opts []ConfigOption
}

// groupOptions splits dotted keys into TOML tables, preserving declaration order.
func groupOptions(opts []ConfigOption) []section {
	out := []section{{name: ""}}
	index := map[string]int{"": 0}
	for _, o := range opts {
		name, key := "", o.Key
		if i := strings.IndexByte(o.Key, '.'); i >= 0 {
			name, key = o.Key[:i], o.Key[i+1:]
		}
		pos, ok := index[name]
		if !ok {
			pos = len(out)
			index[name] = pos
			out = append(out, section{name: name})
		}
		out[pos].opts = append(out[pos].opts, ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return out
}

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() string {
	lines := []string{"# notegraf-cli configuration (TOML)"}
	for _, s := range groupOptions(GetConfigOptions()) {
		if len(s.opts) == 0 {
			continue
		}
		if s.name != "" {
			lines = append(lines, "["+s.name+"]")
		}
		for _, o := range s.opts {
			lines = appendOption(lines, o)
		}
	}
	return strings.Join(lines, "\n")
}

// UpdateTOML merges missing defaults into an existing TOML string and
// comments out keys the schema no longer knows about.
func UpdateTOML(existing string) (string, bool) {
	known := make(map[string]bool)
	for _, o := range GetConfigOptions() {
		known[o.Key] = true
	}

	seen := make(map[string]bool)
	headerAt := map[string]int{}
	firstHeader := -1
	current := ""
	changed := false
	out := make([]string, 0)
	for _, line := range strings.Split(existing, "\n") {
		trim := strings.TrimSpace(line)
		switch {
		case trim == "" || strings.HasPrefix(trim, "#"):
			out = append(out, line)
			continue
		case strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]"):
			current = strings.TrimSpace(trim[1 : len(trim)-1])
			if firstHeader < 0 {
				firstHeader = len(out)
			}
			if _, dup := headerAt[current]; !dup {
				headerAt[current] = len(out)
			}
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(trim)
		if !ok {
			out = append(out, line)
			continue
		}
		full := key
		if current != "" {
			full = current + "." + key
		}
		seen[full] = true
		if !known[full] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema", indent+"# "+trim)
			changed = true
			continue
		}
		out = append(out, line)
	}

	var missing []ConfigOption
	for _, o := range GetConfigOptions() {
		if !seen[o.Key] {
			missing = append(missing, o)
		}
	}
	if len(missing) == 0 {
		return strings.Join(out, "\n"), changed
	}

	// Missing keys go under their own table so they are not captured by a
	// preceding one: top-level keys before the first header, known tables
	// right after their header, new tables at the end.
	type insertion struct {
		at    int
		lines []string
	}
	var inserts []insertion
	var tail []string
	for _, s := range groupOptions(missing) {
		if len(s.opts) == 0 {
			continue
		}
		block := []string{"# Added by config update"}
		for _, o := range s.opts {
			block = appendOption(block, o)
		}
		switch pos, ok := headerAt[s.name]; {
		case s.name == "" && firstHeader >= 0:
			inserts = append(inserts, insertion{at: firstHeader, lines: block})
		case s.name == "":
			tail = append(tail, block...)
		case ok:
			inserts = append(inserts, insertion{at: pos + 1, lines: block})
		default:
			tail = append(tail, "["+s.name+"]")
			tail = append(tail, block...)
		}
	}
	sort.Slice(inserts, func(i, j int) bool { return inserts[i].at > inserts[j].at })
	for _, ins := range inserts {
		out = append(out[:ins.at], append(ins.lines, out[ins.at:]...)...)
	}
	if len(tail) > 0 {
		out = append(out, "")
		out = append(out, tail...)
	}
	return strings.Join(out, "\n"), true
}

func parseTOMLKey(trim string) (string, bool) {
	idx := strings.Index(trim, "=")
	if idx <= 0 {
		return "", false
	}
	key := strings.TrimSpace(trim[:idx])
	if strings.ContainsAny(key[:1], `["'`) {
		return "", false
	}
	return key, true
}

func appendOption(lines []string, o ConfigOption) []string {
	if o.Comment != "" {
		lines = append(lines, "# "+o.Comment)
	}
	return append(lines, o.Key+" = "+tomlValue(o.Default), "")
}

func tomlValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s = %q", k, fmt.Sprint(v[k]))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}
