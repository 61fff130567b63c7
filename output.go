package autocmd

import (
	"encoding/json"
	"fmt"
)

// OutputFilter turns a command's return value into the text printed for it.
// An empty string prints nothing.
type OutputFilter func(result interface{}) string

// Output sets the filter for c's return value. A nil filter suppresses c's
// output.
func (a *App) Output(c *Command, filter OutputFilter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.filters == nil {
		a.filters = make(map[*Command]OutputFilter)
	}
	a.filters[c] = filter
}

// render applies c's output filter to result.
func (a *App) render(c *Command, result interface{}) string {
	a.mu.Lock()
	filter, ok := a.filters[c]
	a.mu.Unlock()
	if !ok {
		filter = DefaultOutput
	}
	if filter == nil {
		return ""
	}
	return filter(result)
}

// DefaultOutput prints the default text form of any value but nil.
func DefaultOutput(result interface{}) string {
	if result == nil {
		return ""
	}
	return fmt.Sprint(result)
}

// JSON returns a filter printing results as JSON, indented by indent when
// it is not empty.
func JSON(indent string) OutputFilter {
	return func(result interface{}) string {
		var (
			b   []byte
			err error
		)
		if indent == "" {
			b, err = json.Marshal(result)
		} else {
			b, err = json.MarshalIndent(result, "", indent)
		}
		if err != nil {
			return fmt.Sprintf("%%!(json: %v)", err)
		}
		return string(b)
	}
}

// Format returns a filter printing results through fmt.Sprintf. The result
// is the last operand, after args.
func Format(format string, args ...interface{}) OutputFilter {
	return func(result interface{}) string {
		return fmt.Sprintf(format, append(append([]interface{}(nil), args...), result)...)
	}
}
