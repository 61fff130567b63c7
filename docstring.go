package autocmd

import (
	"regexp"
	"strings"
)

var argHelpRE = regexp.MustCompile(`^(\s*--(\w+):\s*)(.*)$`)

// docstring is a command's documentation, split into its parts.
type docstring struct {
	summary     string
	description string
	argHelp     map[string]string
}

// parseDocstring splits doc into a one-line summary, a description, and help
// for each argument documented with a "--name: text" line.
//
// An argument's help continues on following lines indented at least as far
// as its text; any other line closes it. Lines that are not argument help,
// including the summary and blank lines, make up the description.
func parseDocstring(doc string) docstring {
	d := docstring{argHelp: make(map[string]string)}
	lines := cleandoc(doc)
	if len(lines) == 0 {
		return d
	}
	d.summary = lines[0]

	var (
		desc   []string
		parts  = make(map[string][]string)
		arg    string
		indent int
	)
	for _, l := range lines {
		if m := argHelpRE.FindStringSubmatch(l); m != nil {
			arg, indent = m[2], len(m[1])
			parts[arg] = []string{strings.TrimSpace(m[3])}
			continue
		}
		if arg != "" && leadingSpace(l) >= indent && strings.TrimSpace(l) != "" {
			parts[arg] = append(parts[arg], strings.TrimSpace(l))
			continue
		}
		desc = append(desc, l)
		arg = ""
	}

	d.description = strings.Join(desc, "\n")
	for a, p := range parts {
		d.argHelp[a] = strings.Join(p, " ")
	}
	return d
}

// cleandoc removes the indentation shared by every line but the first,
// along with leading and trailing blank lines. Tabs count as eight spaces.
func cleandoc(doc string) []string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \r")
	}
	lines[0] = strings.TrimLeft(lines[0], " ")

	margin := -1
	for _, l := range lines[1:] {
		if l == "" {
			continue
		}
		if n := leadingSpace(l); margin < 0 || n < margin {
			margin = n
		}
	}
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			}
		}
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}
