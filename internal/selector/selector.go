// Package selector parses and evaluates attribute predicates against
// accessibility nodes.
//
// A selector is a conjunction of attribute:value tokens joined by AND:
//
//	role:button AND title:Submit
//	value:example.com
//	role:link AND index:2
//
// Every supplied predicate must hold for a node to match (there is no OR;
// mixed boolean operators are rejected as invalid rather than guessed at).
// Textual attributes (title, value, description) match by case-insensitive
// substring; role matches by case-insensitive equality. name: is accepted
// as an alias for title:.
//
// index:N does not test attributes at all: it selects the Nth node of the
// match set produced by a single traversal. An index is only meaningful for
// the traversal that produced it and must never be cached across calls.
package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
)

// DefaultMaxDepth bounds tree traversal to guard against pathological or
// cyclically-linked accessibility trees.
const DefaultMaxDepth = 25

// Predicate is one attribute condition.
type Predicate struct {
	Attr  platform.Attr
	Value string
}

// Selector is a parsed conjunction of predicates plus an optional
// positional index.
type Selector struct {
	Preds []Predicate
	Index int // -1 when unset

	raw string
}

// Parse parses a selector string. An empty string parses to a selector with
// zero predicates, which matches every node in scope.
func Parse(s string) (*Selector, error) {
	sel := &Selector{Index: -1, raw: s}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return sel, nil
	}

	for _, tok := range splitAnd(trimmed) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, uierr.Newf(uierr.InvalidSelector, "empty predicate in selector %q", s)
		}
		if strings.EqualFold(tok, "or") || containsWordOr(tok) {
			return nil, uierr.Newf(uierr.InvalidSelector, "OR is not supported; selectors are conjunctions: %q", s)
		}
		attr, value, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, uierr.Newf(uierr.InvalidSelector, "predicate %q is not attribute:value", tok)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, uierr.Newf(uierr.InvalidSelector, "predicate %q has no value", tok)
		}

		switch strings.ToLower(strings.TrimSpace(attr)) {
		case "role":
			sel.Preds = append(sel.Preds, Predicate{Attr: platform.AttrRole, Value: value})
		case "name", "title":
			sel.Preds = append(sel.Preds, Predicate{Attr: platform.AttrTitle, Value: value})
		case "value":
			sel.Preds = append(sel.Preds, Predicate{Attr: platform.AttrValue, Value: value})
		case "description", "desc":
			sel.Preds = append(sel.Preds, Predicate{Attr: platform.AttrDescription, Value: value})
		case "index":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, uierr.Newf(uierr.InvalidSelector, "index %q is not a non-negative integer", value)
			}
			if sel.Index >= 0 {
				return nil, uierr.Newf(uierr.InvalidSelector, "duplicate index predicate in %q", s)
			}
			sel.Index = n
		default:
			return nil, uierr.Newf(uierr.InvalidSelector, "unknown attribute %q (expected role, name, title, value, description, or index)", attr)
		}
	}
	return sel, nil
}

// String returns the original selector text.
func (s *Selector) String() string { return s.raw }

// Matches evaluates the non-index predicates against one node. A node
// matches iff every predicate's attribute fetch succeeds and compares; a
// fetch failure (attribute absent on this node) is a non-match, not an
// error. Zero predicates match every node.
func (s *Selector) Matches(n platform.Node) bool {
	for _, p := range s.Preds {
		got, err := n.Attr(p.Attr)
		if err != nil {
			return false
		}
		if p.Attr == platform.AttrRole {
			if !strings.EqualFold(got, p.Value) {
				return false
			}
			continue
		}
		if !strings.Contains(strings.ToLower(got), strings.ToLower(p.Value)) {
			return false
		}
	}
	return true
}

// Resolve traverses depth-first from root, bounded by maxDepth
// (DefaultMaxDepth when <= 0), and returns matching nodes in visitation
// order. When the selector carries index:N, the result is the single Nth
// node of that match set, or empty when N is out of range.
func (s *Selector) Resolve(root platform.Node, maxDepth int) []platform.Node {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	var matches []platform.Node
	s.walk(root, 0, maxDepth, &matches)

	if s.Index >= 0 {
		if s.Index >= len(matches) {
			return nil
		}
		return matches[s.Index : s.Index+1]
	}
	return matches
}

func (s *Selector) walk(n platform.Node, depth, maxDepth int, out *[]platform.Node) {
	if depth > maxDepth || n == nil {
		return
	}
	if s.Matches(n) {
		*out = append(*out, n)
	}
	children, err := n.Children()
	if err != nil {
		// Unreadable children end this branch; other branches continue.
		return
	}
	for _, c := range children {
		s.walk(c, depth+1, maxDepth, out)
	}
}

// Describe builds a selector string for a live node from its role and best
// textual attribute. Used to snapshot click context during recording.
func Describe(n platform.Node) string {
	var parts []string
	if role, err := n.Attr(platform.AttrRole); err == nil && role != "" {
		parts = append(parts, fmt.Sprintf("role:%s", role))
	}
	if title, err := n.Attr(platform.AttrTitle); err == nil && title != "" {
		parts = append(parts, fmt.Sprintf("title:%s", title))
	} else if desc, err := n.Attr(platform.AttrDescription); err == nil && desc != "" {
		parts = append(parts, fmt.Sprintf("description:%s", desc))
	}
	return strings.Join(parts, " AND ")
}

// splitAnd splits on the AND keyword, case-insensitively, preserving colons
// and spaces inside values.
func splitAnd(s string) []string {
	var parts []string
	rest := s
	for {
		idx := indexWordAnd(rest)
		if idx < 0 {
			parts = append(parts, rest)
			return parts
		}
		parts = append(parts, rest[:idx])
		rest = rest[idx+len(" AND "):]
	}
}

func indexWordAnd(s string) int {
	upper := strings.ToUpper(s)
	return strings.Index(upper, " AND ")
}

func containsWordOr(s string) bool {
	upper := strings.ToUpper(s)
	return strings.Contains(upper, " OR ")
}
