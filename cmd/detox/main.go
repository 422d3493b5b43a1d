package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pcode-tools/detox/pkg/astio"
	"github.com/pcode-tools/detox/pkg/ctree"
	"github.com/pcode-tools/detox/pkg/detox"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Debug flags for dumping intermediate state
var (
	dTree  bool // dump the tree as loaded, before the pass
	dStats bool // report what the pass removed
	dYAML  bool // dump the detoxed tree back as YAML
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "detox [file]",
		Short: "detox removes junk code and variables from a decompiled function",
		Long: `detox takes one decompiled function, captured as a YAML tree dump,
removes the junk statements and junk variables the decompiler carried
over from the binary, and prints the cleaned pseudocode.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return doDetox(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dTree, "dtree", false, "Dump the function before detoxing")
	rootCmd.Flags().BoolVar(&dStats, "dstats", false, "Report removed statement and variable counts")
	rootCmd.Flags().BoolVar(&dYAML, "dyaml", false, "Dump the detoxed function as YAML instead of pseudocode")

	return rootCmd
}

// doDetox loads a function dump, runs the pass and prints the result
func doDetox(filename string, out, errOut io.Writer) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "detox: error reading %s: %v\n", filename, err)
		return err
	}

	fn, err := astio.Load(data)
	if err != nil {
		fmt.Fprintf(errOut, "detox: %s: %v\n", filename, err)
		return err
	}

	if dTree {
		printer := ctree.NewPrinter(out)
		printer.PrintFunction(fn)
		fmt.Fprintln(out)
	}

	itemsBefore := ctree.Count(fn.Body)
	usedBefore := countUsed(fn)

	if err := detox.Detox(fn); err != nil {
		fmt.Fprintf(errOut, "detox: %s: %v\n", filename, err)
		return err
	}

	if dStats {
		fmt.Fprintf(errOut, "detox: %s: removed %d of %d items, cleared %d of %d variables\n",
			fn.Name,
			itemsBefore-ctree.Count(fn.Body), itemsBefore,
			usedBefore-countUsed(fn), usedBefore)
	}

	if dYAML {
		dump, err := astio.Dump(fn)
		if err != nil {
			fmt.Fprintf(errOut, "detox: %s: %v\n", filename, err)
			return err
		}
		out.Write(dump)
		return nil
	}

	printer := ctree.NewPrinter(out)
	printer.PrintFunction(fn)
	return nil
}

// countUsed counts variables still flagged as used
func countUsed(fn *ctree.Function) int {
	n := 0
	for _, v := range fn.Lvars {
		if v.Used {
			n++
		}
	}
	return n
}
