// Package levelid implements the level identifier: an immutable path of
// (level_name, level_number) segments describing a store's position in the
// job → run → event → segment hierarchy.
// Grounded on original_source/phlex/model/level_hierarchy.hpp and the
// id-handling sprinkled through original_source/phlex/model/product_store.hpp.
package levelid

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Segment is one (level_name, level_number) pair in an ID path.
type Segment struct {
	LevelName   string
	LevelNumber int
}

// ID is an immutable sequence of segments, root-to-leaf. The zero value is
// not valid; use Base to construct a root ID.
type ID struct {
	segments []Segment
	hash     uint64
}

// Base returns the root level ID for a named job at level number 0.
func Base(jobName string) ID {
	return newID([]Segment{{LevelName: jobName, LevelNumber: 0}})
}

// Child returns a new ID extending id with one more segment.
func (id ID) Child(levelName string, levelNumber int) ID {
	segs := make([]Segment, len(id.segments)+1)
	copy(segs, id.segments)
	segs[len(id.segments)] = Segment{LevelName: levelName, LevelNumber: levelNumber}
	return newID(segs)
}

func newID(segs []Segment) ID {
	h := fnv.New64a()
	for _, s := range segs {
		fmt.Fprintf(h, "%s/%d|", s.LevelName, s.LevelNumber)
	}
	return ID{segments: segs, hash: h.Sum64()}
}

// Hash is a stable hash over the full path, suitable for map keys.
func (id ID) Hash() uint64 { return id.hash }

// Depth is the number of segments in the path (root has depth 1).
func (id ID) Depth() int { return len(id.segments) }

// LevelName is the name of the deepest (leaf) segment.
func (id ID) LevelName() string {
	if len(id.segments) == 0 {
		return ""
	}
	return id.segments[len(id.segments)-1].LevelName
}

// LevelNumber is the number of the deepest (leaf) segment.
func (id ID) LevelNumber() int {
	if len(id.segments) == 0 {
		return 0
	}
	return id.segments[len(id.segments)-1].LevelNumber
}

// Segments returns the root-to-leaf path. The returned slice must not be
// mutated by the caller.
func (id ID) Segments() []Segment { return id.segments }

// AncestorNamed walks from the leaf toward the root and returns the deepest
// segment's ID prefix whose level name matches, or false if none does.
func (id ID) AncestorNamed(levelName string) (ID, bool) {
	for i := len(id.segments) - 1; i >= 0; i-- {
		if id.segments[i].LevelName == levelName {
			return newID(append([]Segment(nil), id.segments[:i+1]...)), true
		}
	}
	return ID{}, false
}

// Parent returns the ID with its leaf segment removed, or false if id is a
// root (depth 1).
func (id ID) Parent() (ID, bool) {
	if len(id.segments) <= 1 {
		return ID{}, false
	}
	return newID(append([]Segment(nil), id.segments[:len(id.segments)-1]...)), true
}

// IsAncestorOf reports whether id is a strict prefix of other's path.
func (id ID) IsAncestorOf(other ID) bool {
	if len(id.segments) >= len(other.segments) {
		return false
	}
	for i, s := range id.segments {
		if s != other.segments[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two IDs denote the same path.
func (id ID) Equal(other ID) bool {
	if len(id.segments) != len(other.segments) {
		return false
	}
	for i, s := range id.segments {
		if s != other.segments[i] {
			return false
		}
	}
	return true
}

// String renders the path as "name[number]/name[number]/...".
func (id ID) String() string {
	var b strings.Builder
	for i, s := range id.segments {
		if i > 0 {
			b.WriteByte('/')
		}
		fmt.Fprintf(&b, "%s[%d]", s.LevelName, s.LevelNumber)
	}
	return b.String()
}
