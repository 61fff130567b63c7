package autocmd

import "reflect"

var anyType = reflect.TypeOf((*interface{})(nil)).Elem()

// signature is what can be learned about a command's parameters.
type signature struct {
	// Parameter names, in declaration order.
	names []string

	// Defaults, only for the parameters that declare one.
	defaults map[string]interface{}

	// Declared types. Parameters typed interface{} are left out: they
	// accept whatever the command line produces.
	types map[string]reflect.Type
}

func inspect(c *Command) signature {
	t := c.fn.Type()
	sig := signature{
		names:    make([]string, 0, len(c.params)),
		defaults: make(map[string]interface{}),
		types:    make(map[string]reflect.Type),
	}
	for i, p := range c.params {
		sig.names = append(sig.names, p.Name)
		if p.HasDefault {
			sig.defaults[p.Name] = p.Default
		}
		if in := t.In(i); in != anyType {
			sig.types[p.Name] = in
		}
	}
	return sig
}
