package autocmd

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// parser is a node of the parser tree: either a command's own parser, or a
// parser whose first positional argument selects one of its subcommands.
type parser struct {
	// The name of the program or subcommand.
	name string

	// A brief, single line description, shown in the parent's command
	// list.
	summary string

	// Free text shown in the parser's help message.
	description string

	// Will be nil unless the parser was built from a command.
	command *Command

	flags       *pflag.FlagSet
	named       []*Descriptor
	shortOnly   map[string]bool
	positionals []*Descriptor
	values      map[string]*argValue

	// Options that steer the dispatcher rather than feed a command.
	control []*argValue

	parent   *parser
	commands []*parser
}

func newParser(name string) *parser {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	return &parser{
		name:   name,
		flags:     fs,
		shortOnly: make(map[string]bool),
		values:    make(map[string]*argValue),
	}
}

// addParser registers a subcommand parser. Once one is registered, p
// requires a command name as its first positional argument.
func (p *parser) addParser(name, summary string) *parser {
	p.flags.SetInterspersed(false)
	sub := newParser(name)
	sub.summary = summary
	sub.parent = p
	p.commands = append(p.commands, sub)
	return sub
}

// addArgument resolves an argument and registers it with the flag set.
func (p *parser) addArgument(dest string, names []string, opts Options) (*Descriptor, error) {
	d, err := newDescriptor(dest, names, opts)
	if err != nil {
		return nil, err
	}
	if _, dup := p.values[dest]; dup {
		return nil, errors.Errorf("conflicting destination %q", dest)
	}

	v := &argValue{d: d}
	if d.Positional() {
		if n := len(p.positionals); n > 0 && p.positionals[n-1].variadic() {
			return nil, errors.Errorf("positional %q cannot follow %q, which takes any number of values", dest, p.positionals[n-1].Dest)
		}
		// Positionals may also be given as --name=value.
		if p.flags.Lookup(dest) == nil {
			p.flags.VarPF(v, dest, "", d.Help).Hidden = true
		}
		p.positionals = append(p.positionals, d)
	} else {
		if err := p.register(d, v); err != nil {
			return nil, err
		}
		p.named = append(p.named, d)
	}
	p.values[dest] = v
	return d, nil
}

// addControl registers an option whose value is kept out of the command's
// arguments.
func (p *parser) addControl(names []string, opts Options) (*argValue, error) {
	d, err := newDescriptor(strings.TrimLeft(names[len(names)-1], "-"), names, opts)
	if err != nil {
		return nil, err
	}
	v := &argValue{d: d}
	if err := p.register(d, v); err != nil {
		return nil, err
	}
	p.control = append(p.control, v)
	return v, nil
}

func (p *parser) register(d *Descriptor, v *argValue) error {
	// pflag needs a long name even for -x; prepare keeps --x off the
	// command line.
	name := strings.TrimPrefix(d.Long(), "--")
	if name == "" {
		name = d.Dest
		p.shortOnly[name] = true
	}
	short := strings.TrimPrefix(d.Short(), "-")

	if p.flags.Lookup(name) != nil {
		return errors.Errorf("conflicting option string --%s", name)
	}
	if short != "" && p.flags.ShorthandLookup(short) != nil {
		return errors.Errorf("conflicting option string -%s", short)
	}

	f := p.flags.VarPF(v, name, short, d.Help)
	f.Hidden = d.Hidden
	if !d.takesValue() {
		f.NoOptDefVal = "true"
	}
	return nil
}

func (p *parser) lookup(name string) *parser {
	for _, sub := range p.commands {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

// parse consumes args and returns the parser of the selected command.
func (p *parser) parse(args []string) (*parser, error) {
	args, err := p.prepare(args)
	if err != nil {
		return nil, &UsageError{Usage: p.usage(), Err: err}
	}
	if err := p.flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, &helpRequest{text: p.help()}
		}
		return nil, &UsageError{Usage: p.usage(), Err: err}
	}
	rest := p.flags.Args()
	for i, tok := range rest {
		rest[i] = strings.TrimPrefix(tok, numberMark)
	}

	if len(p.commands) > 0 {
		if len(rest) == 0 {
			return nil, &DispatchError{
				Usage:  p.usage(),
				Reason: "the following arguments are required: command",
			}
		}
		sub := p.lookup(rest[0])
		if sub == nil {
			return nil, &DispatchError{
				Usage:  p.usage(),
				Reason: fmt.Sprintf("invalid choice: %q (choose from %s)", rest[0], p.choices()),
			}
		}
		return sub.parse(rest[1:])
	}

	if err := p.assign(rest); err != nil {
		return nil, &UsageError{Usage: p.usage(), Err: err}
	}
	for _, d := range p.named {
		if d.Required && !p.values[d.Dest].set {
			return nil, &UsageError{
				Usage: p.usage(),
				Err:   errors.Errorf("the following arguments are required: %s", strings.Join(d.Flags, "/")),
			}
		}
	}
	return p, nil
}

var negativeNumberRE = regexp.MustCompile(`^-\d+$|^-\d*\.\d+$`)

// numberMark hides a negative number from pflag, which would read it as a
// cluster of short flags.
const numberMark = "\x00"

// prepare marks the negative numbers in args that are not option values, so
// they reach the positionals, and rejects --x for options spelled -x only.
// Negative numbers are left alone when p has an option that looks like one.
func (p *parser) prepare(args []string) ([]string, error) {
	numbers := !p.numericShort()
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return append(out, args[i:]...), nil
		case numbers && negativeNumberRE.MatchString(a):
			out = append(out, numberMark+a)
			continue
		case strings.HasPrefix(a, "--"):
			name := strings.SplitN(a[2:], "=", 2)[0]
			if p.shortOnly[name] {
				return nil, errors.Errorf("unknown flag: --%s", name)
			}
		case !strings.HasPrefix(a, "-") && len(p.commands) > 0:
			// The rest belongs to the subcommand.
			return append(out, args[i:]...), nil
		}
		out = append(out, a)
		if p.wantsValue(a) && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}
	return out, nil
}

// wantsValue reports whether the option token a takes the next token as its
// value.
func (p *parser) wantsValue(a string) bool {
	if strings.HasPrefix(a, "--") {
		if strings.Contains(a, "=") {
			return false
		}
		f := p.flags.Lookup(a[2:])
		return f != nil && f.NoOptDefVal == ""
	}
	if !strings.HasPrefix(a, "-") {
		return false
	}
	cluster := a[1:]
	for i := 0; i < len(cluster); i++ {
		if cluster[i] >= utf8.RuneSelf || cluster[i] == '=' {
			return false
		}
		f := p.flags.ShorthandLookup(cluster[i : i+1])
		if f == nil {
			return false
		}
		if f.NoOptDefVal == "" {
			return i == len(cluster)-1
		}
	}
	return false
}

func (p *parser) numericShort() bool {
	found := false
	p.flags.VisitAll(func(f *pflag.Flag) {
		if len(f.Shorthand) == 1 && f.Shorthand[0] >= '0' && f.Shorthand[0] <= '9' {
			found = true
		}
	})
	return found
}

// assign hands out the remaining tokens to positional arguments, in order.
// Positionals already given as --name=value take no token.
func (p *parser) assign(tokens []string) error {
	var missing []string
	for i, d := range p.positionals {
		v := p.values[d.Dest]
		if v.set {
			continue
		}
		take := 0
		switch d.Nargs {
		case "":
			take = 1
		case "?":
			if len(tokens) > p.minTokens(i+1) {
				take = 1
			}
		default:
			take = len(tokens) - p.minTokens(i+1)
		}
		if take > len(tokens) || take < 0 {
			take = 0
		}
		if take == 0 && (d.Nargs == "" || d.Nargs == "+") {
			missing = append(missing, d.Dest)
			continue
		}
		for _, tok := range tokens[:take] {
			if err := v.Set(tok); err != nil {
				return errors.Wrapf(err, "argument %s", d.Dest)
			}
		}
		tokens = tokens[take:]
	}

	if len(missing) > 0 {
		return errors.Errorf("the following arguments are required: %s", strings.Join(missing, ", "))
	}
	if len(tokens) > 0 {
		return errors.Errorf("unrecognized arguments: %s", strings.Join(tokens, " "))
	}
	return nil
}

// minTokens counts the tokens the positionals from index i on still need.
func (p *parser) minTokens(i int) int {
	n := 0
	for _, d := range p.positionals[i:] {
		if !p.values[d.Dest].set && (d.Nargs == "" || d.Nargs == "+") {
			n++
		}
	}
	return n
}

// namespace returns the parsed value of every argument, keyed by
// destination.
func (p *parser) namespace() (map[string]interface{}, error) {
	ns := make(map[string]interface{}, len(p.values))
	for dest, v := range p.values {
		x, err := v.result()
		if err != nil {
			return nil, &UsageError{Usage: p.usage(), Err: errors.Wrapf(err, "argument %s", dest)}
		}
		ns[dest] = x
	}
	return ns, nil
}

func (p *parser) path() string {
	if p.parent == nil {
		return p.name
	}
	return p.parent.path() + " " + p.name
}

func (p *parser) choices() string {
	names := make([]string, 0, len(p.commands))
	for _, sub := range p.commands {
		names = append(names, sub.name)
	}
	return strings.Join(names, ",")
}

func (p *parser) usage() string {
	parts := []string{"usage:", p.path(), "[-h]"}
	for _, v := range p.control {
		parts = append(parts, optionUsage(v.d))
	}
	for _, d := range p.named {
		if !d.Hidden {
			parts = append(parts, optionUsage(d))
		}
	}
	for _, d := range p.positionals {
		if !d.Hidden {
			parts = append(parts, positionalUsage(d))
		}
	}
	if len(p.commands) > 0 {
		parts = append(parts, "{"+p.choices()+"}", "...")
	}
	return strings.Join(parts, " ")
}

func optionUsage(d *Descriptor) string {
	s := d.Flags[0]
	if d.takesValue() {
		s += " " + d.metavar()
	}
	if d.Required {
		return s
	}
	return "[" + s + "]"
}

func positionalUsage(d *Descriptor) string {
	m := d.metavar()
	switch d.Nargs {
	case "?":
		return "[" + m + "]"
	case "*":
		return "[" + m + " ...]"
	case "+":
		return m + " [" + m + " ...]"
	}
	return m
}

// help renders the full help message.
func (p *parser) help() string {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, p.usage())
	if p.description != "" {
		fmt.Fprintf(&buf, "\n%s\n", p.description)
	}

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	var pos []*Descriptor
	for _, d := range p.positionals {
		if !d.Hidden {
			pos = append(pos, d)
		}
	}
	if len(pos) > 0 {
		fmt.Fprintln(tw, "\npositional arguments:")
		for _, d := range pos {
			fmt.Fprintf(tw, "  %s\t%s\n", d.metavar(), d.Help)
		}
	}

	fmt.Fprintln(tw, "\noptions:")
	fmt.Fprintf(tw, "  -h, --help\t%s\n", "show this help message and exit")
	for _, v := range p.control {
		fmt.Fprintf(tw, "  %s\t%s\n", optionSpelling(v.d), v.d.Help)
	}
	for _, d := range p.named {
		if !d.Hidden {
			fmt.Fprintf(tw, "  %s\t%s\n", optionSpelling(d), d.Help)
		}
	}

	if len(p.commands) > 0 {
		fmt.Fprintln(tw, "\ncommands:")
		for _, sub := range p.commands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.name, sub.summary)
		}
	}
	tw.Flush()
	return buf.String()
}

func optionSpelling(d *Descriptor) string {
	s := strings.Join(d.Flags, ", ")
	if d.takesValue() {
		s += " " + d.metavar()
	}
	return s
}

// argValue is the pflag.Value behind every argument.
type argValue struct {
	d     *Descriptor
	value interface{}
	set   bool
}

func (v *argValue) Set(s string) error {
	switch v.d.Action {
	case ActionStoreTrue, ActionStoreFalse, ActionStoreConst:
		on, err := strconv.ParseBool(s)
		if err != nil {
			return errors.Errorf("invalid bool value: %q", s)
		}
		if on {
			v.value = v.d.Const
		} else {
			v.value = v.d.Default
		}
	case ActionCount:
		n, ok := v.value.(int)
		if !v.set || !ok {
			n, _ = v.d.Default.(int)
		}
		v.value = n + 1
	default:
		x, err := v.d.convert(s)
		if err != nil {
			return err
		}
		if v.d.Action == ActionAppend || v.d.variadic() {
			list, _ := v.value.([]interface{})
			v.value = append(list, x)
		} else {
			v.value = x
		}
	}
	v.set = true
	return nil
}

func (v *argValue) String() string {
	x := v.d.Default
	if v.set {
		x = v.value
	}
	if x == nil {
		return ""
	}
	return fmt.Sprint(x)
}

func (v *argValue) Type() string {
	switch v.d.Action {
	case ActionStoreTrue, ActionStoreFalse, ActionStoreConst:
		return "bool"
	case ActionCount:
		return "count"
	}
	return "string"
}

// result is the argument's final value. String defaults are converted the
// same way command-line tokens are.
func (v *argValue) result() (interface{}, error) {
	if v.set {
		return v.value, nil
	}
	if s, ok := v.d.Default.(string); ok && v.d.Type != nil && v.d.Action == ActionStore && !v.d.variadic() {
		return v.d.Type(s)
	}
	return v.d.Default, nil
}

// helpRequest is returned by parse when -h or --help was given.
type helpRequest struct {
	text string
}

func (h *helpRequest) Error() string { return "help requested" }
