package autocmd

import (
	"reflect"
	"unicode/utf8"
)

// build adds an argument to p for each of c's parameters, in declaration
// order.
func (a *App) build(c *Command, p *parser) error {
	doc := parseDocstring(c.doc)
	p.summary = doc.summary
	if doc.description != "" {
		p.description = doc.description
	}
	p.command = c

	sig := inspect(c)
	overrides := a.overridesFor(c)

	// -h belongs to help, and one-letter parameter names keep their
	// letter.
	claimed := map[rune]bool{'h': true}
	for _, name := range sig.names {
		if utf8.RuneCountInString(name) == 1 {
			r, _ := utf8.DecodeRuneInString(name)
			claimed[r] = true
		}
	}

	for _, name := range sig.names {
		names, params, named, list := []string{name}, Options{}, false, false

		def, hasDefault := sig.defaults[name]
		t, typed := sig.types[name]
		if typed && t.Kind() == reflect.Bool && !hasDefault {
			def, hasDefault = false, true
		}

		if hasDefault {
			named = true
			names = spellings(name, claimed)
			params["default"] = def
			if def != nil && !typed {
				t, typed = reflect.TypeOf(def), true
			}
		}

		switch {
		case typed && t.Kind() == reflect.Bool:
			if truthy(def) {
				params["action"] = ActionStoreFalse
			} else {
				params["action"] = ActionStoreTrue
			}
		case typed:
			var conv Converter
			conv, list = converterFor(t)
			if conv != nil {
				params["type"] = conv
			}
			if list && named {
				params["action"] = ActionAppend
			}
		}

		for k, v := range overrides[name] {
			params[k] = v
		}
		if h, ok := doc.argHelp[name]; ok {
			if _, set := params["help"]; !set {
				params["help"] = h
			}
		}

		if _, relabeled := params["flags"]; !named && !relabeled {
			_, withDefault := params["default"]
			_, withNargs := params["nargs"]
			switch {
			case withNargs:
			case list && withDefault:
				params["nargs"] = "*"
			case list:
				params["nargs"] = "+"
			case withDefault:
				params["nargs"] = "?"
			}
		}

		if _, err := p.addArgument(name, names, params); err != nil {
			return &SpecError{Command: c.name, Param: name, Err: err}
		}
	}
	return nil
}

// spellings returns the flag spellings of a named option. Multi-letter names
// get a long form plus, when one of their letters is still free, a short
// form. Digits are never handed out, so -1 stays a negative number.
func spellings(name string, claimed map[rune]bool) []string {
	long := "--" + name
	if utf8.RuneCountInString(name) == 1 {
		if r := rune(name[0]); isLetter(r) {
			return []string{"-" + name}
		}
		return []string{long}
	}
	for _, r := range name {
		if !isLetter(r) {
			continue
		}
		for _, c := range []rune{toLower(r), toUpper(r)} {
			if !claimed[c] {
				claimed[c] = true
				return []string{"-" + string(c), long}
			}
		}
	}
	return []string{long}
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isAlnum(r rune) bool {
	return isLetter(r) || r >= '0' && r <= '9'
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 'a' - 'A'
	}
	return r
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// truthy reports whether a default counts as true.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool()
	}
	return !rv.IsZero()
}

// Descriptors returns the arguments built for c, in declaration order.
func (a *App) Descriptors(c *Command) ([]*Descriptor, error) {
	p := newParser(c.name)
	if err := a.build(c, p); err != nil {
		return nil, err
	}
	out := make([]*Descriptor, 0, len(c.params))
	for _, param := range c.params {
		out = append(out, p.values[param.Name].d)
	}
	return out, nil
}
