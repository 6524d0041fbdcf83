// Package flagx helps several independent flag sets share one os.Args.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the allowedFlags (and their values) from args so
// that a component can parse its own flags without tripping over flags that
// belong to another one.
//
// Both "-c conf.json" and "--config=conf.json" forms are recognised. A value
// that begins with "-" is never consumed as the value of a preceding flag.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// stringFlag parses a single string option given under any of names.
// The last occurrence wins.
func stringFlag(args []string, names ...string) string {
	var value string

	allowed := make([]string, 0, len(names)*2)
	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", n)
		allowed = append(allowed, "-"+n, "--"+n)
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

// JsonConfigFlags returns the JSON config path given via -c or -config,
// or "" when neither is present.
func JsonConfigFlags() string {
	return stringFlag(os.Args[1:], "c", "config")
}

// EnvFileFlags returns the dotenv file path given via -env-file, or "".
func EnvFileFlags() string {
	return stringFlag(os.Args[1:], "env-file")
}
