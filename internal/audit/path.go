package audit

import (
	"strconv"
)

// Path identifies a node by its position in the result tree, e.g.
// `$.items[2].result`. Paths key disclosure state and error reports.
type Path string

// RootPath is the path of the tree's top-level node.
const RootPath Path = "$"

// Item returns the path of the i-th entry of a count node's items.
func (p Path) Item(i int) Path {
	return p + ".items[" + Path(strconv.Itoa(i)) + "]"
}

// Field returns the path of a named child slot such as `result` or `where`.
func (p Path) Field(name string) Path {
	return p + "." + Path(name)
}

// Index returns the path of the i-th element of a list-valued field.
func (p Path) Index(field string, i int) Path {
	return p + "." + Path(field) + "[" + Path(strconv.Itoa(i)) + "]"
}

// Named returns the path of a keyed child, e.g. a nested requirement.
func (p Path) Named(field, key string) Path {
	return p + "." + Path(field) + "[" + Path(strconv.Quote(key)) + "]"
}

// String implements fmt.Stringer.
func (p Path) String() string { return string(p) }
