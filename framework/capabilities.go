package framework

// Capabilities lists what was found to be available when the harness probed the services
// under test, such as "productos" or "carrito.cleanup". Suites use it to skip tests that need
// something that is not there.
type Capabilities []string

// Has returns true if the specified capability appears in the list.
func (cs Capabilities) Has(name string) bool {
	for _, c := range cs {
		if c == name {
			return true
		}
	}
	return false
}

// HasAll returns true if every one of the names appears in the list.
func (cs Capabilities) HasAll(names ...string) bool {
	for _, n := range names {
		if !cs.Has(n) {
			return false
		}
	}
	return true
}

// With returns a copy of the list with name appended, unless it was already present.
func (cs Capabilities) With(name string) Capabilities {
	if cs.Has(name) {
		return cs
	}
	return append(append(Capabilities(nil), cs...), name)
}
