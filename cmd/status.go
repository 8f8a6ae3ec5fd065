/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gmaffy/minys-go/alignment"
	"github.com/gmaffy/minys-go/assembly"
	"github.com/gmaffy/minys-go/gapfilling"
	"github.com/gmaffy/minys-go/simplification"
	"github.com/gmaffy/minys-go/utils"
)

var statusStages = []string{
	alignment.IndexStage,
	alignment.Stage,
	assembly.Stage,
	assembly.FilterStage,
	gapfilling.Stage,
	simplification.Stage,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows how far a run went, from the pipeline log of its output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			return oErr
		}
		run, rErr := cmd.Flags().GetString("run")
		if rErr != nil {
			return rErr
		}
		return printStatus(os.Stdout, out, run)
	},
}

func printStatus(w io.Writer, out, run string) error {
	logPath := filepath.Join(out, "logs", "pipeline.log")
	entries, err := utils.ParseLogFile(logPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no run logged in %s", logPath)
	}
	if run == "" {
		run = utils.LatestRun(entries)
	}

	fmt.Fprintf(w, "run\t%s\n", run)
	for _, stage := range statusStages {
		status := utils.StageStatus(entries, run, stage)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", stage, status)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("out", "o", utils.DefaultOutDir, "Output directory of the run")
	statusCmd.Flags().String("run", "", "Run id (default: the latest run)")
}
