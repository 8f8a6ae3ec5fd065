/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmaffy/minys-go/assembly"
)

var contigStatsCmd = &cobra.Command{
	Use:   "contigStats <fasta>...",
	Short: "Prints count, total length, longest, mean and N50 of contig files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printContigStats(os.Stdout, args)
	},
}

func printContigStats(w io.Writer, paths []string) error {
	fmt.Fprintf(w, "file\tcontigs\ttotal\tlongest\tmean\tN50\n")
	for _, path := range paths {
		s, err := assembly.FileStats(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%d\n", path, s.Count, s.Total, s.Longest, s.Mean, s.N50)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(contigStatsCmd)
}
