package cli

import "github.com/spf13/pflag"

func bindOutputFlag(flags *pflag.FlagSet, out *string, def, usage string) {
	flags.StringVarP(out, "output", "o", def, usage)
}
