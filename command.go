package autocmd

import (
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Command is a function exposed on the command line, either as the
// program's sole action or as one of its subcommands.
type Command struct {
	app    *App
	name   string
	doc    string
	fn     reflect.Value
	params []Param
}

// newCommand validates fn against params. It panics when fn is not a
// function, or when its parameter list does not line up with params.
func newCommand(app *App, fn interface{}, params []Param) *Command {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("autocmd: command must be a non-nil function, got %T", fn))
	}
	t := v.Type()
	name := funcName(v)
	if t.IsVariadic() {
		panic(fmt.Sprintf("autocmd: %s: variadic functions are not supported", name))
	}
	if t.NumIn() != len(params) {
		panic(fmt.Sprintf("autocmd: %s takes %d parameters, but %d were declared", name, t.NumIn(), len(params)))
	}
	switch t.NumOut() {
	case 0, 1:
	case 2:
		if t.Out(1) != errorType {
			panic(fmt.Sprintf("autocmd: %s: second result must be an error", name))
		}
	default:
		panic(fmt.Sprintf("autocmd: %s returns too many values", name))
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			panic(fmt.Sprintf("autocmd: %s: cannot declare a nameless parameter", name))
		}
		if seen[p.Name] {
			panic(fmt.Sprintf("autocmd: %s: parameter %q declared twice", name, p.Name))
		}
		seen[p.Name] = true
	}

	return &Command{
		app:    app,
		name:   name,
		fn:     v,
		params: append([]Param(nil), params...),
	}
}

// funcName derives a command name from the identifier of the function held
// in v: "main.sumAll" becomes "sum-all".
func funcName(v reflect.Value) string {
	full := "command"
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		full = f.Name()
	}
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}

	var b strings.Builder
	for i, r := range full {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Name returns the name the command is invoked by.
func (c *Command) Name() string { return c.name }

// Rename changes the name the command is invoked by. Closures and method
// values have unhelpful identifiers, and will usually need this.
func (c *Command) Rename(name string) *Command {
	c.name = name
	return c
}

// Doc attaches documentation to the command.
//
// The first line is the command's summary. Lines of the form
//
//	--name: text
//
// document the parameter called name; following lines indented at least as
// far as the text are appended to it. Everything else makes up the
// command's description.
func (c *Command) Doc(doc string) *Command {
	c.doc = doc
	return c
}

// Output sets the filter applied to the command's return value. A nil
// filter suppresses output altogether.
func (c *Command) Output(filter OutputFilter) *Command {
	c.app.Output(c, filter)
	return c
}

// Override returns a setter for the options of one of the command's
// parameters. It is shorthand for c's App.Override.
func (c *Command) Override(param string) *Override {
	return c.app.Override(c, param)
}

// call invokes the function. A panic raised by the function body is
// recovered and returned as an error, and a returned error without a stack
// trace gets one.
func (c *Command) call(args []reflect.Value) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	out := c.fn.Call(args)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if c.fn.Type().Out(0) == errorType {
			return nil, asError(out[0])
		}
		return resultValue(out[0]), nil
	default:
		return resultValue(out[0]), asError(out[1])
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	err := v.Interface().(error)
	var st stackTracer
	if errors.As(err, &st) {
		return err
	}
	return errors.WithStack(err)
}

// resultValue unwraps v, reporting nil pointers, maps, slices and the like
// as a plain nil.
func resultValue(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// panicError records a panic raised inside a command.
type panicError struct {
	value interface{}
	stack []byte
}

func (e *panicError) Error() string {
	if err, ok := e.value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.value)
}

func (e *panicError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "panic: %s\n\n%s", e.Error(), e.stack)
		return
	}
	fmt.Fprint(s, e.Error())
}
