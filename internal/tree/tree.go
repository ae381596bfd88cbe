// Package tree turns a resolved store into the nested ownership document.
package tree

import (
	"bytes"
	"encoding/json"

	"github.com/crimson-sun/orgtree/internal/model"
	"github.com/crimson-sun/orgtree/internal/store"
)

// TopDepth is the depth of the records that become top-level keys. Depth-1
// records are roots that only anchor depth computation and are not emitted.
const TopDepth = 2

// Node is a customer below a top-level entry.
type Node struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Children   []Node `json:"children"`
}

// Entry is a top-level customer. Its id is the key in the encoded document.
type Entry struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Children []Node `json:"children"`
}

// Tree is the ordered set of top-level entries. It encodes as a JSON object
// whose keys keep store order.
type Tree struct {
	entries []Entry
	index   map[string]int
}

// Build walks s and expands every depth-2 record into an Entry. It does not
// modify s; calling it twice on the same store yields equal trees.
func Build(s *store.Store) Tree {
	t := Tree{index: make(map[string]int)}
	for _, rec := range s.All() {
		if rec.Depth != TopDepth {
			continue
		}
		onPath := map[string]bool{rec.ID: true}
		t.index[rec.ID] = len(t.entries)
		t.entries = append(t.entries, Entry{
			ID:       rec.ID,
			Name:     rec.Name,
			Children: expand(s, rec, onPath),
		})
	}
	return t
}

// expand builds the child nodes of rec. Ids missing from the store and ids
// already on the current path are skipped.
func expand(s *store.Store, rec *model.CustomerRecord, onPath map[string]bool) []Node {
	nodes := make([]Node, 0, len(rec.Children))
	for _, id := range rec.Children {
		child, ok := s.Get(id)
		if !ok || onPath[id] {
			continue
		}
		onPath[id] = true
		nodes = append(nodes, Node{
			CustomerID: child.ID,
			Name:       child.Name,
			Children:   expand(s, child, onPath),
		})
		delete(onPath, id)
	}
	return nodes
}

// Len returns the number of top-level entries.
func (t Tree) Len() int {
	return len(t.entries)
}

// Keys returns the top-level ids in order.
func (t Tree) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.ID
	}
	return keys
}

// Entries returns the top-level entries in order.
func (t Tree) Entries() []Entry {
	return t.entries
}

// Get returns the entry for a top-level id.
func (t Tree) Get(id string) (Entry, bool) {
	i, ok := t.index[id]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Count returns the number of customers in the tree, top-level entries included.
func (t Tree) Count() int {
	n := 0
	for _, e := range t.entries {
		n += 1 + countNodes(e.Children)
	}
	return n
}

func countNodes(nodes []Node) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}

// MarshalJSON encodes the tree as an object keyed by top-level id, in order.
// HTML characters are left unescaped.
func (t Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(e.ID); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(e); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
