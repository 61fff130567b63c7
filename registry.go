package autocmd

// Define declares fn as a function the program may expose, without marking
// it as a command. When no function has been marked, every defined function
// is exposed, in the order they were defined.
//
// params name fn's parameters, in order; see Arg and Opt. Define panics if
// they do not match fn's parameter list.
func (a *App) Define(fn interface{}, params ...Param) *Command {
	c := newCommand(a, fn, params)
	a.mu.Lock()
	a.defined = append(a.defined, c)
	a.mu.Unlock()
	return c
}

// Command defines fn and marks it as a command. Once any function is
// marked, only marked functions are exposed.
func (a *App) Command(fn interface{}, params ...Param) *Command {
	c := a.Define(fn, params...)
	a.Mark(c)
	return c
}

// Mark exposes an already defined function as a command. Marking the same
// command again has no effect; commands keep the order they were first
// marked in.
func (a *App) Mark(c *Command) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, m := range a.marked {
		if m == c {
			return
		}
	}
	a.marked = append(a.marked, c)
}

// Commands returns the commands Run would expose: the marked ones if there
// are any, and every defined function otherwise.
func (a *App) Commands() []*Command {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.marked) > 0 {
		return append([]*Command(nil), a.marked...)
	}
	return append([]*Command(nil), a.defined...)
}
