package accounting

import "fmt"

// PluginRegistry resolves an accounting-method name (as configured on a
// config.Configuration) to a constructed Method. It is populated
// explicitly at program start; there is no discovery by import
// side-effect.
type PluginRegistry struct {
	constructors map[string]func() Method
}

// NewPluginRegistry returns a registry pre-populated with the built-in
// methods.
func NewPluginRegistry() *PluginRegistry {
	r := &PluginRegistry{constructors: map[string]func() Method{}}
	r.Register("FIFO", func() Method { return FIFO{} })
	r.Register("LIFO", func() Method { return LIFO{} })
	r.Register("LIFO_SAME_YEAR", func() Method { return LIFO{SameYearOnly: true} })
	r.Register("HIFO", func() Method { return HIFO{} })
	r.Register("TOTAL_AVERAGE", func() Method { return TotalAverage{} })
	return r
}

// Register adds or replaces the constructor for name.
func (r *PluginRegistry) Register(name string, constructor func() Method) {
	r.constructors[name] = constructor
}

// Resolve constructs the Method registered under name.
func (r *PluginRegistry) Resolve(name string) (Method, error) {
	constructor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("accounting: unknown method %q", name)
	}
	return constructor(), nil
}
