// Package flagx lets several independent flag sets share one argument list.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// ConfigFlags are the names accepted for the config file path.
var ConfigFlags = []string{"c", "config"}

// name returns the flag name of arg without dashes or "=value", and whether
// arg looks like a flag at all.
func name(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false
	}
	n := strings.TrimLeft(arg, "-")
	n, _, _ = strings.Cut(n, "=")
	return n, n != ""
}

// FilterArgs keeps only the arguments belonging to the named flags. Names
// match with one or two leading dashes. A value given as the next argument
// is kept with its flag unless it looks like a flag itself.
func FilterArgs(args []string, names []string) []string {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[strings.TrimLeft(n, "-")] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		n, ok := name(args[i])
		if !ok {
			continue
		}
		if _, want := keep[n]; !want {
			continue
		}
		out = append(out, args[i])
		if strings.Contains(args[i], "=") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigFileFromArgs returns the value of -c/-config in argv, the last one
// winning, or "" when neither is present.
func ConfigFileFromArgs(argv []string) string {
	var path string
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range ConfigFlags {
		fs.StringVar(&path, n, "", "config file")
	}
	_ = fs.Parse(FilterArgs(argv, ConfigFlags))
	return path
}
