// Package autocmd derives a command-line interface from ordinary Go
// functions, so that a program's author writes no argument-parsing code for
// the common case.
//
// A function is declared together with the names (and, optionally, the
// default values) of its parameters:
//
//	func join(base string, num int, sentence bool, separator string) string {
//		...
//	}
//
//	func main() {
//		app := autocmd.New("join")
//		app.Command(join,
//			autocmd.Arg("base"),
//			autocmd.Arg("num"),
//			autocmd.Arg("sentence"),
//			autocmd.Opt("separator", ","),
//		).Doc(`Join copies of a string together.
//
//		--base: The string to repeat.
//		--num: The number of times to repeat the string.
//		--separator: An alternative separator.`)
//		app.Main()
//	}
//
// Parameters without a default become required positional arguments.
// Parameters with a default become named options ("--separator", with a
// one-letter abbreviation such as "-s" when one is free). Boolean parameters
// become flags that flip their default.
//
// When more than one command is exposed, the first argument selects the
// command to run:
//
//	$ maths sum 1 -y 2
//
// The generated arguments can be refined with overrides:
//
//	app.Override(cmd, "num").Set("help", "How many copies").Set("type", autocmd.Int)
//
// Arguments are parsed with github.com/spf13/pflag. Failures inside a command
// are reported as a short message, or with a full trace when the
// "--<name>-debug" flag or the <NAME>_DEBUG environment variable is set.
package autocmd
