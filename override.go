package autocmd

type overrideKey struct {
	cmd   *Command
	param string
}

// merge folds opts into the overrides recorded for one parameter. Keys
// already recorded are overwritten; others are kept.
func (a *App) merge(c *Command, param string, opts Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.overrides == nil {
		a.overrides = make(map[overrideKey]Options)
	}
	k := overrideKey{cmd: c, param: param}
	rec, ok := a.overrides[k]
	if !ok {
		rec = make(Options, len(opts))
		a.overrides[k] = rec
	}
	for key, v := range opts {
		rec[key] = v
	}
}

// overridesFor returns a copy of every override recorded for c, keyed by
// parameter name.
func (a *App) overridesFor(c *Command) map[string]Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Options)
	for k, opts := range a.overrides {
		if k.cmd != c {
			continue
		}
		cp := make(Options, len(opts))
		for key, v := range opts {
			cp[key] = v
		}
		out[k.param] = cp
	}
	return out
}

// Override sets options of a single parameter of a command.
type Override struct {
	app   *App
	cmd   *Command
	param string
}

// Override returns a setter for the options of c's parameter param. Each
// call to Set takes effect immediately, replacing any earlier value of the
// same key.
func (a *App) Override(c *Command, param string) *Override {
	return &Override{app: a, cmd: c, param: param}
}

// Set records one option.
func (o *Override) Set(key string, value interface{}) *Override {
	o.app.merge(o.cmd, o.param, Options{key: value})
	return o
}

// Configurator holds options for a parameter, to be applied to any number
// of commands.
type Configurator struct {
	app   *App
	param string
	opts  Options
}

// Arg returns a Configurator for the parameter called param, holding opts.
//
//	app.Arg("src", autocmd.Options{"type": autocmd.FileReader}).Apply(shout, title)
func (a *App) Arg(param string, opts Options) *Configurator {
	c := &Configurator{app: a, param: param, opts: make(Options, len(opts))}
	for k, v := range opts {
		c.opts[k] = v
	}
	return c
}

// Set adds an option to the Configurator.
func (c *Configurator) Set(key string, value interface{}) *Configurator {
	c.opts[key] = value
	return c
}

// Apply merges the Configurator's options into those recorded for each of
// cmds. Applications accumulate; the latest value of a key wins.
func (c *Configurator) Apply(cmds ...*Command) {
	for _, cmd := range cmds {
		c.app.merge(cmd, c.param, c.opts)
	}
}
