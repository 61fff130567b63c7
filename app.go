package autocmd

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// App collects the functions a program exposes on its command line, along
// with the overrides and output filters attached to them.
//
// The zero value is not usable; create one with New.
type App struct {
	// The program name shown in usage messages. It also names the debug
	// flag ("--<name>-debug") and its environment variable
	// ("<NAME>_DEBUG"). When empty, the base name of the first argument
	// passed to Run is used.
	Name string

	// Shown in the help message of a program with several commands.
	Description string

	// Where command output, and help, is written. Defaults to os.Stdout.
	Stdout io.Writer

	// Where errors and usage messages are written. Defaults to os.Stderr.
	Stderr io.Writer

	// Looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// Receives diagnostic logging. When nil, a logger writing warnings to
	// Stderr is used, switched to debug level in debug mode.
	Logger *logrus.Logger

	mu        sync.Mutex
	defined   []*Command
	marked    []*Command
	overrides map[overrideKey]Options
	filters   map[*Command]OutputFilter
	ran       bool
}

// New is a convenience function for creating and returning a new *App.
func New(name string) *App {
	return &App{
		Name:      name,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Getenv:    os.Getenv,
		overrides: make(map[overrideKey]Options),
		filters:   make(map[*Command]OutputFilter),
	}
}

func (a *App) stdout() io.Writer {
	if a.Stdout == nil {
		return os.Stdout
	}
	return a.Stdout
}

func (a *App) stderr() io.Writer {
	if a.Stderr == nil {
		return os.Stderr
	}
	return a.Stderr
}

func (a *App) getenv(key string) string {
	if a.Getenv == nil {
		return os.Getenv(key)
	}
	return a.Getenv(key)
}

// logger returns the logger to use for one run, and whether it belongs to
// the App rather than the caller.
func (a *App) logger() (*logrus.Logger, bool) {
	if a.Logger != nil {
		return a.Logger, false
	}
	l := logrus.New()
	l.SetOutput(a.stderr())
	l.SetLevel(logrus.WarnLevel)
	return l, true
}
