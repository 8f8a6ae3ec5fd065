/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gmaffy/minys-go/assembly"
	"github.com/gmaffy/minys-go/utils"
)

var filterContigsCmd = &cobra.Command{
	Use:   "filterContigs <min length>",
	Short: "Keeps the contigs at least <min length> long",
	Long:  `Reads contigs in fasta format on stdin (or --in, gzipped or not) and writes the contigs at least <min length> long to stdout, in input order.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		min, err := strconv.Atoi(args[0])
		if err != nil || min < 0 {
			return utils.NewConfigurationError("min length must be a non-negative integer, got %q", args[0])
		}
		in, iErr := cmd.Flags().GetString("in")
		if iErr != nil {
			return iErr
		}

		w := bufio.NewWriter(os.Stdout)
		var read, kept int
		if in == "" {
			read, kept, err = assembly.FilterContigs(os.Stdin, w, min)
		} else {
			r, closeIn, oErr := assembly.OpenFasta(in)
			if oErr != nil {
				return oErr
			}
			defer closeIn()
			read, kept, err = assembly.FilterContigs(r, w, min)
		}
		if err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "kept %d of %d contigs\n", kept, read)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterContigsCmd)
	filterContigsCmd.Flags().String("in", "", "Contigs file (default: stdin)")
}
