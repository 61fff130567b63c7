package autocmd

import (
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseWith builds c's parser and parses args with it.
func parseWith(t *testing.T, app *App, c *Command, args ...string) (map[string]interface{}, error) {
	t.Helper()
	p := newParser(c.Name())
	require.NoError(t, app.build(c, p))
	leaf, err := p.parse(args)
	if err != nil {
		return nil, err
	}
	return leaf.namespace()
}

func TestBuildBasicArguments(t *testing.T) {
	app := New("test")
	c := app.Define(func(a, b, c, d interface{}) {}, Arg("a"), Arg("b"), Opt("c", nil), Opt("d", nil)).
		Rename("cmd").
		Doc("A test function")

	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	require.Len(t, ds, 4)

	assert.True(t, ds[0].Positional())
	assert.True(t, ds[1].Positional())
	assert.False(t, ds[0].HasDefault)
	assert.Equal(t, []string{"-c"}, ds[2].Flags)
	assert.Equal(t, []string{"-d"}, ds[3].Flags)
	assert.True(t, ds[2].HasDefault)
	assert.Nil(t, ds[2].Default)
	assert.Nil(t, ds[2].Type)
}

func TestBuildPositionalsThenNamed(t *testing.T) {
	app := New("test")
	c := app.Define(func(a, b string, c, d int) {}, Arg("a"), Arg("b"), Opt("count", 1), Opt("delay", 2))

	ds, err := app.Descriptors(c)
	require.NoError(t, err)

	var kinds []string
	for _, d := range ds {
		if d.Positional() {
			kinds = append(kinds, "pos:"+d.Dest)
		} else {
			kinds = append(kinds, "named:"+d.Dest)
		}
	}
	assert.Equal(t, []string{"pos:a", "pos:b", "named:count", "named:delay"}, kinds)
}

func TestBuildInfersTypesFromDefaults(t *testing.T) {
	app := New("test")
	c := app.Define(func(x, y, z interface{}) {}, Opt("x", 1), Opt("y", "foo"), Opt("z", nil))

	ds, err := app.Descriptors(c)
	require.NoError(t, err)

	require.NotNil(t, ds[0].Type)
	v, err := ds[0].Type("5")
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	require.NotNil(t, ds[1].Type)
	v, err = ds[1].Type("bar")
	require.NoError(t, err)
	assert.Equal(t, "bar", v)

	assert.Nil(t, ds[2].Type)
}

func TestBuildAbbreviations(t *testing.T) {
	app := New("test")
	c := app.Define(func(verbose, value, v, version, hat, vvv int) {},
		Opt("verbose", 0), Opt("value", 0), Opt("v", 0), Opt("version", 0), Opt("hat", 0), Opt("vvv", 0))

	ds, err := app.Descriptors(c)
	require.NoError(t, err)

	want := map[string][]string{
		"verbose": {"-V", "--verbose"},
		"value":   {"-a", "--value"},
		"v":       {"-v"},
		"version": {"-e", "--version"},
		"hat":     {"-H", "--hat"},
		"vvv":     {"--vvv"},
	}
	for _, d := range ds {
		assert.Equal(t, want[d.Dest], d.Flags, d.Dest)
	}
}

func TestBuildShortFlagsUnique(t *testing.T) {
	app := New("test")
	names := []string{"alpha", "Alpha2", "a", "beta", "b", "ab", "ba", "bab", "hello", "x_y"}
	params := make([]Param, len(names))
	in := make([]reflect.Type, len(names))
	for i, n := range names {
		params[i] = Opt(n, "")
		in[i] = reflect.TypeOf("")
	}
	fn := reflect.MakeFunc(reflect.FuncOf(in, nil, false), func([]reflect.Value) []reflect.Value { return nil })
	c := app.Define(fn.Interface(), params...).Rename("many")

	ds, err := app.Descriptors(c)
	require.NoError(t, err)

	long := map[string]bool{}
	for _, n := range names {
		if len(n) == 1 {
			long["-"+n] = true
		}
	}
	seen := map[string]string{}
	for _, d := range ds {
		short := d.Short()
		if short == "" {
			continue
		}
		if len(d.Dest) > 1 {
			assert.False(t, long[short], "%s took the spelling of a one-letter parameter", d.Dest)
		}
		assert.NotEqual(t, "-h", short)
		if prev, dup := seen[short]; dup {
			t.Fatalf("%s and %s share %s", prev, d.Dest, short)
		}
		seen[short] = d.Dest
	}
}

func TestBuildFlags(t *testing.T) {
	app := New("test")
	c := app.Define(func(pos, neg bool) {}, Opt("pos", false), Opt("neg", true))

	for _, tc := range []struct {
		args     []string
		pos, neg bool
	}{
		{nil, false, true},
		{[]string{"--pos"}, true, true},
		{[]string{"--neg"}, false, false},
		{[]string{"--pos", "--neg"}, true, false},
		{[]string{"-n", "-p"}, true, false},
		{[]string{"-n", "-p", "-n"}, true, false},
	} {
		ns, err := parseWith(t, app, c, tc.args...)
		require.NoError(t, err, "%v", tc.args)
		assert.Equal(t, tc.pos, ns["pos"], "pos for %v", tc.args)
		assert.Equal(t, tc.neg, ns["neg"], "neg for %v", tc.args)
	}

	_, err := parseWith(t, app, c, "--pos", "1", "--neg", "0")
	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Error(), "unrecognized arguments")
}

func TestBuildFlagsFromLiteralDefaults(t *testing.T) {
	app := New("test")
	c := app.Define(func(pos, neg interface{}) {}, Opt("pos", false), Opt("neg", true))

	ns, err := parseWith(t, app, c)
	require.NoError(t, err)
	assert.Equal(t, false, ns["pos"])
	assert.Equal(t, true, ns["neg"])

	ns, err = parseWith(t, app, c, "-p", "-n")
	require.NoError(t, err)
	assert.Equal(t, true, ns["pos"])
	assert.Equal(t, false, ns["neg"])
}

func TestBuildBoolWithoutDefaultIsFlag(t *testing.T) {
	app := New("test")
	c := app.Define(func(sentence bool) {}, Arg("sentence"))

	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"-s", "--sentence"}, ds[0].Flags)
	assert.Equal(t, ActionStoreTrue, ds[0].Action)
	assert.Equal(t, false, ds[0].Default)
}

func TestBuildOverrides(t *testing.T) {
	app := New("test")
	c := app.Define(func(x, y, z interface{}) {}, Arg("x"), Arg("y"), Opt("z", nil))

	app.Arg("x", Options{"type": Int}).Apply(c)
	app.Arg("y", Options{"type": String}).Apply(c)
	app.Arg("y", Options{"help": "Some help"}).Apply(c)
	app.Arg("z", nil).Set("action", "store_const").Set("const", "Z").Apply(c)

	ds, err := app.Descriptors(c)
	require.NoError(t, err)

	v, err := ds[0].Type("7")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.NotNil(t, ds[1].Type)
	assert.Equal(t, "Some help", ds[1].Help)
	assert.Equal(t, ActionStoreConst, ds[2].Action)
	assert.Equal(t, "Z", ds[2].Const)

	ns, err := parseWith(t, app, c, "1", "y", "-z")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": 1, "y": "y", "z": "Z"}, ns)
}

func TestOverrideMerge(t *testing.T) {
	app := New("test")
	c := app.Define(func(n interface{}) {}, Arg("n"))

	app.Override(c, "n").Set("help", "A")
	app.Override(c, "n").Set("type", Int)
	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	assert.Equal(t, "A", ds[0].Help)
	assert.NotNil(t, ds[0].Type)

	c.Override("n").Set("help", "B")
	ds, err = app.Descriptors(c)
	require.NoError(t, err)
	assert.Equal(t, "B", ds[0].Help)
	assert.NotNil(t, ds[0].Type)
}

func TestOverrideHelpBeatsDocstring(t *testing.T) {
	app := New("test")
	c := app.Define(func(a, b string) {}, Arg("a"), Arg("b")).
		Doc("Summary\n\n--a: from the docs\n--b: also from the docs")
	c.Override("a").Set("help", "from an override")

	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	assert.Equal(t, "from an override", ds[0].Help)
	assert.Equal(t, "also from the docs", ds[1].Help)
}

func TestBuildMalformedOverride(t *testing.T) {
	for name, opts := range map[string]Options{
		"unknown key":     {"colour": "red"},
		"bad help":        {"help": 3},
		"bad action":      {"action": "explode"},
		"bad type":        {"type": 42},
		"positional flag": {"action": ActionStoreTrue},
		"bad flags":       {"flags": []string{"---x"}},
	} {
		t.Run(name, func(t *testing.T) {
			app := New("test")
			c := app.Define(func(x string) {}, Arg("x"))
			app.Arg("x", opts).Apply(c)

			_, err := app.Descriptors(c)
			var serr *SpecError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, "x", serr.Param)
		})
	}
}

func TestBuildPositionalDefaultIsOptional(t *testing.T) {
	app := New("test")
	c := app.Define(func(name string) {}, Arg("name"))
	c.Override("name").Set("default", "world")

	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	assert.Equal(t, "?", ds[0].Nargs)

	ns, err := parseWith(t, app, c)
	require.NoError(t, err)
	assert.Equal(t, "world", ns["name"])

	ns, err = parseWith(t, app, c, "gopher")
	require.NoError(t, err)
	assert.Equal(t, "gopher", ns["name"])
}

func TestBuildStreamParameter(t *testing.T) {
	app := New("test")
	c := app.Define(func(src io.Reader) {}, Arg("src"))

	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	require.NotNil(t, ds[0].Type)

	v, err := ds[0].Type("-")
	require.NoError(t, err)
	assert.Implements(t, (*io.Reader)(nil), v)

	alt := Converter(func(s string) (interface{}, error) { return strings.NewReader(s), nil })
	c.Override("src").Set("type", alt)
	ds, err = app.Descriptors(c)
	require.NoError(t, err)
	v, err = ds[0].Type("inline")
	require.NoError(t, err)
	assert.IsType(t, &strings.Reader{}, v)
}

func TestBuildCountAndAppend(t *testing.T) {
	app := New("test")
	c := app.Define(func(v int, tag []string, files []string) {}, Opt("v", 0), Opt("tag", nil), Arg("files"))
	c.Override("v").Set("action", ActionCount)

	ns, err := parseWith(t, app, c, "-vvv", "--tag", "a", "-t", "b", "one", "two")
	require.NoError(t, err)
	assert.Equal(t, 3, ns["v"])
	assert.Equal(t, []interface{}{"a", "b"}, ns["tag"])
	assert.Equal(t, []interface{}{"one", "two"}, ns["files"])

	ns, err = parseWith(t, app, c, "one")
	require.NoError(t, err)
	assert.Equal(t, 0, ns["v"])
	assert.Nil(t, ns["tag"])
	assert.Equal(t, []interface{}{"one"}, ns["files"])

	_, err = parseWith(t, app, c, "-v")
	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "the following arguments are required: files", uerr.Error())
}

func TestBuildListPositionalArity(t *testing.T) {
	app := New("test")
	required := app.Define(func(files []string) {}, Arg("files"))
	optional := app.Define(func(files []string) {}, Arg("files"))
	optional.Override("files").Set("default", []string{"x"})

	ds, err := app.Descriptors(required)
	require.NoError(t, err)
	assert.Equal(t, "+", ds[0].Nargs)

	ds, err = app.Descriptors(optional)
	require.NoError(t, err)
	assert.Equal(t, "*", ds[0].Nargs)

	ns, err := parseWith(t, app, optional)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ns["files"])
}

func TestBuildSpellingsSkipDigits(t *testing.T) {
	app := New("test")
	c := app.Define(func(x, n2, b64 int, e int) {}, Arg("x"), Opt("n2", 0), Opt("b64", 0), Opt("é", 0))

	ds, err := app.Descriptors(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"-n", "--n2"}, ds[1].Flags)
	assert.Equal(t, []string{"-b", "--b64"}, ds[2].Flags)
	assert.Equal(t, []string{"--é"}, ds[3].Flags)
}

func TestBuildNegativeNumberTokens(t *testing.T) {
	app := New("test")
	c := app.Define(func(x, y float64, offset int) {}, Arg("x"), Arg("y"), Opt("offset", 0))

	ns, err := parseWith(t, app, c, "-1", "-o", "-4", "-2.5")
	require.NoError(t, err)
	assert.Equal(t, -1.0, ns["x"])
	assert.Equal(t, -2.5, ns["y"])
	assert.Equal(t, -4, ns["offset"])

	ns, err = parseWith(t, app, c, "--offset=-3", "--", "-7", "-8")
	require.NoError(t, err)
	assert.Equal(t, -7.0, ns["x"])
	assert.Equal(t, -8.0, ns["y"])
	assert.Equal(t, -3, ns["offset"])
}

func TestBuildNumericShortKeepsNumbersAsFlags(t *testing.T) {
	app := New("test")
	c := app.Define(func(x string, one bool) {}, Arg("x"), Opt("one", false))
	c.Override("one").Set("flags", []string{"-1", "--one"})

	ns, err := parseWith(t, app, c, "-1", "a")
	require.NoError(t, err)
	assert.Equal(t, true, ns["one"])
	assert.Equal(t, "a", ns["x"])
}

func TestBuildRequiredNamed(t *testing.T) {
	app := New("test")
	c := app.Define(func(level string) {}, Opt("level", "info"))
	c.Override("level").Set("required", true)

	_, err := parseWith(t, app, c)
	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Error(), "-l/--level")

	ns, err := parseWith(t, app, c, "-l", "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", ns["level"])
}

func TestBuildMissingPositional(t *testing.T) {
	app := New("test")
	c := app.Define(func(a string, b int) {}, Arg("a"), Arg("b"))

	_, err := parseWith(t, app, c, "only")
	var uerr *UsageError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "the following arguments are required: b", uerr.Error())

	_, err = parseWith(t, app, c, "x", "notanumber")
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Error(), "argument b")
}
