package routing

import (
	"github.com/cauce-ai/cauce-go/pkg/topic"
)

// node represents one segment position in the topic index.
//
// Literal pattern segments index into children; the "*" and "**" wildcard
// segments get dedicated child slots since at most one edge of each kind
// can leave a node. Subscription ids whose pattern ends at this position
// live in the terminal set.
type node struct {
	children map[string]*node
	single   *node
	multi    *node
	terminal map[string]struct{}
}

// empty reports whether the node carries no registrations and can be
// pruned from its parent.
func (n *node) empty() bool {
	return len(n.children) == 0 && n.single == nil && n.multi == nil && len(n.terminal) == 0
}

// trie is the topic index: a prefix tree over pattern segments. It holds
// no lock of its own; the owning TrieRouter serializes mutation and
// guards lookups with its read lock.
type trie struct {
	root *node
}

func newTrie() *trie {
	return &trie{root: &node{}}
}

// insert walks the pattern path, creating nodes as needed, and adds the id
// to the terminal set of the last node. It reports whether the id was not
// already registered there, so duplicate registration is observable as a
// no-op. The walk allocates before it links, so a reader holding the tree
// between insert calls never sees a partial path with a terminal id.
func (t *trie) insert(segments []string, id string) bool {
	n := t.root
	for _, seg := range segments {
		switch seg {
		case topic.SingleWildcard:
			if n.single == nil {
				n.single = &node{}
			}
			n = n.single
		case topic.MultiWildcard:
			if n.multi == nil {
				n.multi = &node{}
			}
			n = n.multi
		default:
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child := n.children[seg]
			if child == nil {
				child = &node{}
				n.children[seg] = child
			}
			n = child
		}
	}
	if n.terminal == nil {
		n.terminal = make(map[string]struct{})
	}
	if _, ok := n.terminal[id]; ok {
		return false
	}
	n.terminal[id] = struct{}{}
	return true
}

// remove walks the pattern path, deletes the id from the terminal set and
// prunes nodes left with no children and no terminal ids, bottom-up along
// the walked path only. Removing a registration that does not exist is a
// no-op; remove reports whether anything was deleted.
func (t *trie) remove(segments []string, id string) bool {
	return removeFrom(t.root, segments, id)
}

func removeFrom(n *node, segments []string, id string) bool {
	if n == nil {
		return false
	}
	if len(segments) == 0 {
		if _, ok := n.terminal[id]; !ok {
			return false
		}
		delete(n.terminal, id)
		return true
	}

	seg := segments[0]
	rest := segments[1:]

	switch seg {
	case topic.SingleWildcard:
		removed := removeFrom(n.single, rest, id)
		if removed && n.single.empty() {
			n.single = nil
		}
		return removed
	case topic.MultiWildcard:
		removed := removeFrom(n.multi, rest, id)
		if removed && n.multi.empty() {
			n.multi = nil
		}
		return removed
	default:
		child := n.children[seg]
		if child == nil {
			return false
		}
		removed := removeFrom(child, rest, id)
		if removed && child.empty() {
			delete(n.children, seg)
		}
		return removed
	}
}

// lookup collects into out the terminal ids of every node reached exactly
// when the topic is exhausted. The map deduplicates ids registered under
// several patterns that all match.
func (t *trie) lookup(segments []string, out map[string]struct{}) {
	t.root.collect(segments, out)
}

// collect tries, at each position, the exact-match child for the current
// segment, the "*" child, and the "**" child. The branching factor is a
// small constant, so the traversal is bounded by topic depth times the
// number of "**" edges on the matched path, not by registration count.
func (n *node) collect(segments []string, out map[string]struct{}) {
	if len(segments) == 0 {
		for id := range n.terminal {
			out[id] = struct{}{}
		}
		return
	}
	if child := n.children[segments[0]]; child != nil {
		child.collect(segments[1:], out)
	}
	if n.single != nil {
		n.single.collect(segments[1:], out)
	}
	if n.multi != nil {
		// "**" consumes the current segment unconditionally (one-or-more
		// semantics); collectMulti then explores how much further it runs.
		n.multi.collectMulti(segments[1:], out)
	}
}

// collectMulti is invoked on a "**" node once the wildcard has consumed at
// least one topic segment. Two explicit branches instead of backtracking:
// stop here and match the remainder of the pattern against rest, or let
// the same "**" swallow one more segment.
func (n *node) collectMulti(rest []string, out map[string]struct{}) {
	n.collect(rest, out)
	if len(rest) > 0 {
		n.collectMulti(rest[1:], out)
	}
}
