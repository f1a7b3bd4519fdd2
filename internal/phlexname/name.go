// Package phlexname implements the name and label model: algorithm names,
// qualified product names, and the specified labels used in declarations.
// Grounded on original_source/phlex/model/algorithm_name.hpp and
// original_source/phlex/model/qualified_name.hpp.
package phlexname

import "fmt"

// Specificity records which fields of an AlgorithmName are meaningful for
// matching. "Either" names (the zero value's plugin/algorithm left empty)
// match anything; "both" names require an exact match on both fields.
type Specificity int

const (
	Neither Specificity = iota
	Either
	Both
)

// AlgorithmName is the (plugin, algorithm) pair identifying a registered
// node's implementation, e.g. "mymodule:double".
type AlgorithmName struct {
	Plugin    string
	Algorithm string
	fields    Specificity
}

// NewAlgorithmName builds a fully-specified algorithm name.
func NewAlgorithmName(plugin, algorithm string) AlgorithmName {
	return AlgorithmName{Plugin: plugin, Algorithm: algorithm, fields: Both}
}

// AnyAlgorithmName builds a name that matches any plugin/algorithm pair.
func AnyAlgorithmName() AlgorithmName {
	return AlgorithmName{fields: Either}
}

// Full renders the canonical "plugin:algorithm" form.
func (n AlgorithmName) Full() string {
	return fmt.Sprintf("%s:%s", n.Plugin, n.Algorithm)
}

// Match reports whether n and other identify the same algorithm. An
// Either-specificity name matches anything; otherwise both plugin and
// algorithm fields must be equal.
func (n AlgorithmName) Match(other AlgorithmName) bool {
	if n.fields == Either || other.fields == Either {
		return true
	}
	return n.Plugin == other.Plugin && n.Algorithm == other.Algorithm
}

// Equal is strict equality, ignoring specificity.
func (n AlgorithmName) Equal(other AlgorithmName) bool {
	return n.Plugin == other.Plugin && n.Algorithm == other.Algorithm
}

// Less provides a total order over fully-specified names, used to keep
// catalog iteration and error reporting deterministic.
func (n AlgorithmName) Less(other AlgorithmName) bool {
	if n.Plugin != other.Plugin {
		return n.Plugin < other.Plugin
	}
	return n.Algorithm < other.Algorithm
}

// QualifiedName identifies a product by the algorithm name that qualifies
// it (its producer) and the product's own string name. Two qualified names
// are ordered lexicographically over (qualifier, name).
type QualifiedName struct {
	Qualifier AlgorithmName
	Name      string
}

// Full renders "plugin:algorithm/name", or bare "name" for an unqualified
// (Either) qualifier.
func (q QualifiedName) Full() string {
	if q.Qualifier.fields == Either {
		return q.Name
	}
	return fmt.Sprintf("%s/%s", q.Qualifier.Full(), q.Name)
}

// Less implements the lexicographic (qualifier, name) ordering.
func (q QualifiedName) Less(other QualifiedName) bool {
	if !q.Qualifier.Equal(other.Qualifier) {
		return q.Qualifier.Less(other.Qualifier)
	}
	return q.Name < other.Name
}

// Equal reports whether both the qualifier and the name match.
func (q QualifiedName) Equal(other QualifiedName) bool {
	return q.Qualifier.Equal(other.Qualifier) && q.Name == other.Name
}

// SpecifiedLabel is the declaration-time selector for a product: a bare
// name (matches any producer) or "algorithm_name:product" (matches only
// that producer). Resolved against the catalog into a QualifiedName before
// execution.
type SpecifiedLabel struct {
	Name      string
	Qualifier *AlgorithmName // nil: any qualifier
}

// Label builds an unqualified label, matching any producer of Name.
func Label(name string) SpecifiedLabel {
	return SpecifiedLabel{Name: name}
}

// QualifiedLabel builds a label restricted to a specific producer.
func QualifiedLabel(name string, qualifier AlgorithmName) SpecifiedLabel {
	return SpecifiedLabel{Name: name, Qualifier: &qualifier}
}

// Matches reports whether a published QualifiedName satisfies this label.
func (l SpecifiedLabel) Matches(q QualifiedName) bool {
	if l.Name != q.Name {
		return false
	}
	if l.Qualifier == nil {
		return true
	}
	return l.Qualifier.Match(q.Qualifier)
}

// String renders the label the way it appears in declarations.
func (l SpecifiedLabel) String() string {
	if l.Qualifier == nil {
		return l.Name
	}
	return fmt.Sprintf("%s:%s", l.Qualifier.Full(), l.Name)
}
