package autocmd

import (
	"encoding"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Converter turns a single command-line token into a value.
type Converter func(string) (interface{}, error)

// Converters for the common scalar types. Any of them can be supplied as the
// "type" option of an override.
var (
	String Converter = func(s string) (interface{}, error) { return s, nil }

	Int Converter = func(s string) (interface{}, error) {
		n, err := strconv.ParseInt(s, 10, 0)
		if err != nil {
			return nil, errors.Errorf("invalid int value: %q", s)
		}
		return int(n), nil
	}

	Float Converter = func(s string) (interface{}, error) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Errorf("invalid float value: %q", s)
		}
		return f, nil
	}

	Bool Converter = func(s string) (interface{}, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Errorf("invalid bool value: %q", s)
		}
		return b, nil
	}

	Duration Converter = func(s string) (interface{}, error) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, errors.Errorf("invalid duration value: %q", s)
		}
		return d, nil
	}

	// FileReader opens the named file for reading. The name "-" stands for
	// standard input.
	FileReader = FileType(os.O_RDONLY, 0)
)

// FileType returns a Converter that opens the named file with the given
// flag and permissions. The name "-" stands for standard input when flag is
// read-only, and for standard output otherwise.
//
// Closing the file is left to the command.
func FileType(flag int, perm os.FileMode) Converter {
	return func(name string) (interface{}, error) {
		if name == "-" {
			if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
				return os.Stdin, nil
			}
			return os.Stdout, nil
		}
		f, err := os.OpenFile(name, flag, perm)
		if err != nil {
			return nil, errors.Wrapf(err, "can't open %q", name)
		}
		return f, nil
	}
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	fileType            = reflect.TypeOf((*os.File)(nil))
	readerType          = reflect.TypeOf((*io.Reader)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// converterFor returns the Converter producing values of type t. Slices are
// converted element by element; the second result is then true. A nil
// Converter means no conversion is known, and tokens pass through as
// strings.
func converterFor(t reflect.Type) (Converter, bool) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		conv, _ := converterFor(t.Elem())
		return conv, true
	}
	return scalarConverter(t), false
}

func scalarConverter(t reflect.Type) Converter {
	switch {
	case t == durationType:
		return Duration
	case isStream(t):
		return FileReader
	case reflect.PtrTo(t).Implements(textUnmarshalerType):
		return func(s string) (interface{}, error) {
			v := reflect.New(t)
			if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return nil, errors.Wrapf(err, "invalid %s value: %q", t, s)
			}
			return v.Elem().Interface(), nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		return func(s string) (interface{}, error) {
			return reflect.ValueOf(s).Convert(t).Interface(), nil
		}
	case reflect.Bool:
		return typed(Bool, t)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(s string) (interface{}, error) {
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return nil, errors.Errorf("invalid %s value: %q", t, s)
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(s string) (interface{}, error) {
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return nil, errors.Errorf("invalid %s value: %q", t, s)
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		}
	case reflect.Float32, reflect.Float64:
		return func(s string) (interface{}, error) {
			f, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return nil, errors.Errorf("invalid %s value: %q", t, s)
			}
			return reflect.ValueOf(f).Convert(t).Interface(), nil
		}
	}
	return nil
}

// isStream reports whether t is a file, or an interface a file satisfies
// that at least reads.
func isStream(t reflect.Type) bool {
	if t == fileType {
		return true
	}
	return t.Kind() == reflect.Interface && t != anyType &&
		fileType.Implements(t) && t.Implements(readerType)
}

// typed wraps conv so its results are converted to t.
func typed(conv Converter, t reflect.Type) Converter {
	return func(s string) (interface{}, error) {
		v, err := conv(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(t).Interface(), nil
	}
}

// assignValue converts a parsed value to a command's parameter type.
func assignValue(v interface{}, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	if list, ok := v.([]interface{}); ok && t.Kind() == reflect.Slice && t != reflect.TypeOf(list) {
		s := reflect.MakeSlice(t, 0, len(list))
		for _, item := range list {
			e, err := assignValue(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			s = reflect.Append(s, e)
		}
		return s, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Kind() == reflect.String && t.Kind() != reflect.String {
		if conv := scalarConverter(t); conv != nil {
			x, err := conv(v.(string))
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(x).Convert(t), nil
		}
	}
	if rv.Type().ConvertibleTo(t) && sameFamily(rv.Kind(), t.Kind()) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("cannot use %v (%T) as %s", v, v, t)
}

// sameFamily keeps reflect conversions to those that preserve meaning; Go
// happily converts an int to a one-rune string.
func sameFamily(a, b reflect.Kind) bool {
	family := func(k reflect.Kind) int {
		switch k {
		case reflect.String:
			return 1
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
			reflect.Float32, reflect.Float64:
			return 2
		case reflect.Bool:
			return 3
		}
		return int(k) + 100
	}
	return family(a) == family(b)
}
