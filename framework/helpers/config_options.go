package helpers

// ConfigOption is implemented by the functional options that client and generator
// constructors accept.
type ConfigOption[T any] interface {
	Configure(*T) error
}

// ConfigOptionFunc adapts a plain function to ConfigOption.
type ConfigOptionFunc[T any] func(*T) error

func (f ConfigOptionFunc[T]) Configure(target *T) error { return f(target) }

// ApplyOptions applies each option to target in order, stopping at the first error.
func ApplyOptions[T any, U ConfigOption[T]](target *T, options ...U) error {
	// U lets callers pass a slice of their own option type without converting it.
	for _, o := range options {
		if err := o.Configure(target); err != nil {
			return err
		}
	}
	return nil
}
