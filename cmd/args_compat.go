package main

import "github.com/urfave/cli/v3"

// stringArg returns the parsed value of the named string argument. It is a
// compatibility accessor for urfave/cli v3.0.0-beta1, which lacks the
// Command.StringArg method added in v3.1.0.
func stringArg(cmd *cli.Command, name string) string {
	for _, arg := range cmd.Arguments {
		sa, ok := arg.(*cli.StringArg)
		if !ok || sa.Name != name {
			continue
		}
		if sa.Values != nil && len(*sa.Values) > 0 {
			return (*sa.Values)[0]
		}
		return sa.Value
	}
	return ""
}
