package main

import (
	"flag"
	"os"
	"strings"
)

// targetArgs are the arguments given after the target name, e.g.
// "mage test:all --run TestUnion --race" leaves ["--run", "TestUnion",
// "--race"] here and ["mage", "test:all"] in os.Args. Mage itself only
// understands positional parameters.
var targetArgs []string

func init() {
	os.Args, targetArgs = splitTargetArgs(os.Args)
}

// splitTargetArgs cuts args after the first target name. Leading dash
// arguments belong to mage; "--" ends the search.
func splitTargetArgs(args []string) (mage, target []string) {
	for i := 1; i < len(args); i++ {
		if args[i] == "--" {
			break
		}
		if !strings.HasPrefix(args[i], "-") && args[i] != "" {
			return args[:i+1], args[i+1:]
		}
	}
	return args, nil
}

// newTargetFlags returns a flag set for the named target whose usage
// goes to stderr.
func newTargetFlags(target string) *flag.FlagSet {
	fs := flag.NewFlagSet(target, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// parseTargetFlags parses targetArgs into fs. --help prints usage and
// returns nil with the flags at their defaults.
func parseTargetFlags(fs *flag.FlagSet) error {
	if err := fs.Parse(targetArgs); err != nil && err != flag.ErrHelp {
		return err
	}
	return nil
}
