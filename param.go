package autocmd

// Param declares one parameter of a command function.
//
// Go does not keep parameter names at run time, so they are given alongside
// the function when it is registered, in the same order as the function's
// parameter list.
type Param struct {
	// The name of the parameter, used to derive its command-line spelling.
	Name string

	// The default value. Only meaningful when HasDefault is true; a nil
	// default is allowed.
	Default interface{}

	// Whether the parameter carries a default. Parameters with a default are
	// exposed as named options rather than positional arguments.
	HasDefault bool
}

// Arg declares a parameter without a default.
func Arg(name string) Param {
	return Param{Name: name}
}

// Opt declares a parameter with a default value.
func Opt(name string, def interface{}) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}
