/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gmaffy/minys-go/utils"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minys",
	Short: "MinYS: mine your symbiont",
	Long: `Reference-guided assembly of a target genome from a read set:
1.	Recruit reads by mapping them on a reference (bwa, samtools, bedtools)
2.	Assemble the recruited reads (minia) and drop short contigs
3.	Fill the gaps between contigs (MindTheGap)
4.	Simplify the gap-filled graph
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var cfgFile string

// applyConfigFile sets every flag named in the config file that was not
// given on the command line.
func applyConfigFile(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return nil
	}
	params, err := utils.ReadParams(cfgFile)
	if err != nil {
		return err
	}
	return setFlags(cmd.Flags(), params)
}

func setFlags(flags *pflag.FlagSet, params map[string]string) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := flags.Lookup(name)
		if f == nil {
			return utils.NewConfigurationError("config file %s: unknown option %q", cfgFile, name)
		}
		if f.Changed {
			continue
		}
		if err := flags.Set(name, params[name]); err != nil {
			return utils.NewConfigurationError("config file %s: %s: %v", cfgFile, name, err)
		}
	}
	return nil
}

// flagValues returns the value of every flag except config and help.
func flagValues(flags *pflag.FlagSet) map[string]string {
	values := map[string]string{}
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		values[f.Name] = f.Value.String()
	})
	return values
}
