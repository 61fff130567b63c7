package autocmd

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Main runs the program with the process's arguments, and exits.
//
// It is essentially a short-hand invocation of
//
//	os.Exit(a.Run(os.Args))
func (a *App) Main() {
	os.Exit(a.Run(os.Args))
}

// Run builds the command line from the exposed commands, parses args (whose
// first element is the program name, as in os.Args), calls the selected
// command and prints its output. It returns the exit code:
//
//	0  the command succeeded, or help was requested
//	1  the command failed
//	2  the arguments could not be parsed, or no command was selected
//
// With a single command, args are the command's own arguments. With
// several, the first argument names the command to run.
//
// Run dispatches once per App; later calls do nothing and return 0.
func (a *App) Run(args []string) int {
	a.mu.Lock()
	ran := a.ran
	a.ran = true
	a.mu.Unlock()

	log, owned := a.logger()
	if ran {
		log.Warn("autocmd: Run called more than once; ignoring")
		return ExitOK
	}

	prog := a.Name
	if prog == "" && len(args) > 0 {
		prog = filepath.Base(args[0])
	}
	if prog == "" {
		prog = "command"
	}
	if len(args) > 0 {
		args = args[1:]
	}

	d := &dispatch{app: a, prog: prog, log: log, ownLog: owned}
	return d.report(d.run(args))
}

// dispatch is the state of a single Run.
type dispatch struct {
	app    *App
	prog   string
	log    *logrus.Logger
	ownLog bool
	debug  bool
}

func (d *dispatch) run(args []string) error {
	cmds := d.app.Commands()
	if len(cmds) == 0 {
		return &DispatchError{Usage: "usage: " + d.prog, Reason: "no commands defined"}
	}

	root, err := d.buildTree(cmds)
	if err != nil {
		return err
	}

	p, err := root.parse(args)
	if p != nil {
		d.setDebug(p)
	}
	if err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{
		"program":  d.prog,
		"commands": len(cmds),
		"command":  p.command.name,
	}).Debug("arguments parsed")

	ns, err := p.namespace()
	if err != nil {
		return err
	}
	in, err := arguments(p, ns)
	if err != nil {
		return err
	}

	d.log.WithField("command", p.command.name).Debug("invoking command")
	result, err := p.command.call(in)
	if err != nil {
		return &CommandError{Command: p.command.name, Err: err}
	}

	text, err := d.render(p.command, result)
	if err != nil {
		return &CommandError{Command: p.command.name, Err: err}
	}
	if text != "" {
		fmt.Fprintln(d.app.stdout(), text)
	}
	return nil
}

// buildTree builds a single parser for a lone command, and a parser with one
// subcommand per command otherwise.
func (d *dispatch) buildTree(cmds []*Command) (*parser, error) {
	root := newParser(d.prog)
	root.description = d.app.Description
	if err := d.addDebug(root); err != nil {
		return nil, err
	}

	if len(cmds) == 1 {
		if err := d.app.build(cmds[0], root); err != nil {
			return nil, err
		}
		return root, nil
	}

	for _, c := range cmds {
		if root.lookup(c.name) != nil {
			return nil, &SpecError{Command: c.name, Err: errors.New("command defined twice")}
		}
		sub := root.addParser(c.name, "")
		if err := d.addDebug(sub); err != nil {
			return nil, err
		}
		if err := d.app.build(c, sub); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// addDebug adds the debug flag to p. Its default comes from the
// environment.
func (d *dispatch) addDebug(p *parser) error {
	name := strings.ToLower(sanitize(d.prog, '-'))
	env := strings.ToUpper(sanitize(d.prog, '_')) + "_DEBUG"
	_, err := p.addControl([]string{"--" + name + "-debug"}, Options{
		"action":  ActionStoreTrue,
		"default": envToggle(d.app.getenv(env)),
		"help":    fmt.Sprintf("print a full trace when the command fails (or set %s)", env),
	})
	if err != nil {
		return &SpecError{Command: p.path(), Param: name + "-debug", Err: err}
	}
	return nil
}

// setDebug turns debug mode on when any parser between p and the root had
// its debug flag set, either explicitly or from the environment.
func (d *dispatch) setDebug(p *parser) {
	for ; p != nil; p = p.parent {
		for _, v := range p.control {
			if on, _ := v.result(); on == true {
				d.debug = true
			}
		}
	}
	if d.debug && d.ownLog {
		d.log.SetLevel(logrus.DebugLevel)
	}
}

// render applies the command's output filter. A panicking filter fails the
// command.
func (d *dispatch) render(c *Command, result interface{}) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("output filter: %v", r)
		}
	}()
	return d.app.render(c, result), nil
}

func (d *dispatch) report(err error) int {
	if err == nil {
		return ExitOK
	}
	stderr := d.app.stderr()

	switch e := err.(type) {
	case *helpRequest:
		fmt.Fprint(d.app.stdout(), e.text)
		return ExitOK
	case *CommandError:
		if d.debug {
			fmt.Fprintf(stderr, "%+v\n", e)
		} else {
			fmt.Fprintln(stderr, e.Error())
		}
	case *UsageError:
		fmt.Fprintf(stderr, "%s\n%s: error: %v\n", e.Usage, d.prog, e.Err)
	case *DispatchError:
		fmt.Fprintf(stderr, "%s\n%s: error: %s\n", e.Usage, d.prog, e.Reason)
	default:
		fmt.Fprintf(stderr, "%s: error: %v\n", d.prog, err)
	}
	return ExitCode(err)
}

// arguments converts parsed values to the types of the command's
// parameters.
func arguments(p *parser, ns map[string]interface{}) ([]reflect.Value, error) {
	c := p.command
	t := c.fn.Type()
	in := make([]reflect.Value, len(c.params))
	for i, param := range c.params {
		v, err := assignValue(ns[param.Name], t.In(i))
		if err != nil {
			return nil, &UsageError{Usage: p.usage(), Err: errors.Wrapf(err, "argument %s", param.Name)}
		}
		in[i] = v
	}
	return in, nil
}

// envToggle interprets a boolean-like environment variable: unset or empty
// is false, as is anything that parses as a false boolean.
func envToggle(s string) bool {
	if s == "" {
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return true
}

// sanitize replaces every character that is not a letter or digit with
// sep.
func sanitize(s string, sep rune) string {
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return sep
	}, s)
}
