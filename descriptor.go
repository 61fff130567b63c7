package autocmd

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Action says what happens when a named option is given.
type Action string

// Actions understood by the "action" option.
const (
	// Store the option's converted value.
	ActionStore Action = "store"

	// Store true; the option takes no value and defaults to false.
	ActionStoreTrue Action = "store_true"

	// Store false; the option takes no value and defaults to true.
	ActionStoreFalse Action = "store_false"

	// Store the "const" option; the option takes no value.
	ActionStoreConst Action = "store_const"

	// Collect every converted value the option is given.
	ActionAppend Action = "append"

	// Count how many times the option is given.
	ActionCount Action = "count"
)

// Options holds explicit settings for one argument, keyed by option name:
//
//	flags     []string   replaces the generated spellings, e.g. {"-n", "--count"}
//	default   any        the value used when the argument is absent
//	type      Converter, func(string) (interface{}, error) or reflect.Type
//	action    Action or string
//	const     any        the value stored by ActionStoreConst
//	help      string
//	nargs     string     for positionals: "", "?", "*" or "+"
//	metavar   string     the value's name in help text
//	hidden    bool       leaves the argument out of help text
//	required  bool       makes a named option mandatory
type Options map[string]interface{}

// Descriptor is the fully resolved description of one argument.
type Descriptor struct {
	// The parameter the argument's value is passed to.
	Dest string

	// Flag spellings, such as "-s" and "--separator". Empty for positional
	// arguments.
	Flags []string

	Default    interface{}
	HasDefault bool

	// Converts each token; nil passes tokens through as strings.
	Type Converter

	Action Action
	Const  interface{}
	Help   string

	// Arity of a positional argument: "" for exactly one, "?" for at most
	// one, "*" for any number and "+" for at least one.
	Nargs string

	Metavar  string
	Hidden   bool
	Required bool
}

// Positional reports whether the argument is given by position.
func (d *Descriptor) Positional() bool { return len(d.Flags) == 0 }

// Short returns the one-letter spelling, if any.
func (d *Descriptor) Short() string {
	for _, f := range d.Flags {
		if !strings.HasPrefix(f, "--") {
			return f
		}
	}
	return ""
}

// Long returns the long spelling, if any.
func (d *Descriptor) Long() string {
	for _, f := range d.Flags {
		if strings.HasPrefix(f, "--") {
			return f
		}
	}
	return ""
}

func (d *Descriptor) takesValue() bool {
	return d.Action == ActionStore || d.Action == ActionAppend
}

func (d *Descriptor) variadic() bool {
	return d.Nargs == "*" || d.Nargs == "+"
}

func (d *Descriptor) metavar() string {
	if d.Metavar != "" {
		return d.Metavar
	}
	if d.Positional() {
		return d.Dest
	}
	return strings.ToUpper(d.Dest)
}

func (d *Descriptor) convert(s string) (interface{}, error) {
	if d.Type == nil {
		return s, nil
	}
	return d.Type(s)
}

// newDescriptor resolves an argument from its spellings and options. A
// bare name makes a positional argument; spellings starting with a dash
// make a named option.
func newDescriptor(dest string, names []string, opts Options) (*Descriptor, error) {
	d := &Descriptor{Dest: dest, Action: ActionStore}

	if v, ok := opts["flags"]; ok {
		list, ok := v.([]string)
		if !ok {
			return nil, errors.Errorf("flags must be a []string, not %T", v)
		}
		names = list
	}
	if err := d.setFlags(names); err != nil {
		return nil, err
	}

	for k, v := range opts {
		var ok bool
		switch k {
		case "flags":
			ok = true
		case "default":
			d.Default, d.HasDefault, ok = v, true, true
		case "const":
			d.Const, ok = v, true
		case "type":
			conv, err := toConverter(v)
			if err != nil {
				return nil, err
			}
			d.Type, ok = conv, true
		case "action":
			var s string
			switch a := v.(type) {
			case Action:
				s, ok = string(a), true
			case string:
				s, ok = a, true
			}
			d.Action = Action(s)
		case "help":
			d.Help, ok = v.(string)
		case "nargs":
			d.Nargs, ok = v.(string)
		case "metavar":
			d.Metavar, ok = v.(string)
		case "hidden":
			d.Hidden, ok = v.(bool)
		case "required":
			d.Required, ok = v.(bool)
		default:
			return nil, errors.Errorf("unknown option %q", k)
		}
		if !ok {
			return nil, errors.Errorf("invalid value for option %q: %v (%T)", k, v, v)
		}
	}

	return d, d.check()
}

func (d *Descriptor) setFlags(names []string) error {
	if len(names) == 0 {
		return errors.New("no spellings given")
	}
	if len(names) == 1 && !strings.HasPrefix(names[0], "-") {
		return nil
	}

	var short, long int
	for _, n := range names {
		switch {
		case strings.HasPrefix(n, "--") && len(n) > 2 && n[2] != '-':
			long++
		case len(n) == 2 && n[0] == '-' && n[1] != '-' && n[1] < 0x80:
			short++
		default:
			return errors.Errorf("invalid option string %q", n)
		}
	}
	if short > 1 || long > 1 {
		return errors.Errorf("at most one short and one long spelling are supported, got %v", names)
	}
	d.Flags = append([]string(nil), names...)
	return nil
}

func (d *Descriptor) check() error {
	switch d.Action {
	case ActionStore, ActionAppend, ActionStoreConst, ActionCount:
	case ActionStoreTrue:
		d.Const = true
		if !d.HasDefault {
			d.Default, d.HasDefault = false, true
		}
	case ActionStoreFalse:
		d.Const = false
		if !d.HasDefault {
			d.Default, d.HasDefault = true, true
		}
	default:
		return errors.Errorf("unknown action %q", d.Action)
	}
	if d.Action == ActionCount && !d.HasDefault {
		d.Default, d.HasDefault = 0, true
	}

	if d.Positional() {
		if d.Action != ActionStore {
			return errors.Errorf("action %q is invalid for positional arguments", d.Action)
		}
		if d.Required {
			return errors.New("required is an invalid option for positional arguments")
		}
		switch d.Nargs {
		case "", "?", "*", "+":
		default:
			return errors.Errorf("invalid nargs %q", d.Nargs)
		}
		return nil
	}

	if d.Nargs != "" {
		return errors.Errorf("nargs %q is only supported for positional arguments", d.Nargs)
	}
	return nil
}

// toConverter accepts the forms the "type" option may take.
func toConverter(v interface{}) (Converter, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Converter:
		return t, nil
	case func(string) (interface{}, error):
		return t, nil
	case reflect.Type:
		if conv := scalarConverter(t); conv != nil {
			return conv, nil
		}
		return nil, errors.Errorf("no conversion to %s", t)
	}
	return nil, errors.Errorf("invalid type %v (%T)", v, v)
}
