package naming

// A Context is the naming scope of a builder call. Every element created
// inside a scope is named under the scope's prefix, so two scopes that are
// derived from different parents or indices can never produce the same name.
//
// Contexts are values. Deriving a child never changes the parent.
type Context struct {
	prefix string
}

// NewContext creates a root context for the given element and index, such as
// Node[5].
func NewContext(elementName string, index int) Context {
	prefix := BuildNameWithIndex("", elementName, index)
	NameMustBeValid(prefix)

	return Context{prefix: prefix}
}

// Prefix returns the full name of the scope.
func (c Context) Prefix() string {
	return c.prefix
}

// Child derives a scope for an unindexed sub-element.
func (c Context) Child(elementName string) Context {
	name := BuildName(c.prefix, elementName)
	NameMustBeValid(name)

	return Context{prefix: name}
}

// Indexed derives a scope for one element of a series.
func (c Context) Indexed(elementName string, index int) Context {
	name := BuildNameWithIndex(c.prefix, elementName, index)
	NameMustBeValid(name)

	return Context{prefix: name}
}

// Name returns the full name of a leaf element in the scope.
func (c Context) Name(elementName string) string {
	name := BuildName(c.prefix, elementName)
	NameMustBeValid(name)

	return name
}
