// Package inputs turns the read options of a run into an ordered list of
// read entries.
package inputs

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/gmaffy/minys-go/utils"
)

// Entry is one read input: a single file, or a pair when Read2 is set.
type Entry struct {
	Read1 string
	Read2 string
}

func (e Entry) Paired() bool { return e.Read2 != "" }

// Name is the prefix used for the intermediate files of the i-th entry.
func Name(i int) string { return fmt.Sprintf("file%d", i) }

// Source is the set of read options as given on the command line.
type Source struct {
	Single  string
	Forward string
	Reverse string
	Fof     string
}

// SourceOf extracts the read options of cfg.
func SourceOf(cfg *utils.Config) Source {
	return Source{Single: cfg.InputFile, Forward: cfg.Forward, Reverse: cfg.Reverse, Fof: cfg.Fof}
}

func (s Source) Empty() bool {
	return s.Single == "" && s.Forward == "" && s.Reverse == "" && s.Fof == ""
}

// Resolve returns the entries of s in order. With continuation set and no read
// option it returns no entries; without either it is a configuration error.
func Resolve(s Source, continuation bool) ([]Entry, error) {
	var entries []Entry
	if s.Single != "" {
		entries = append(entries, Entry{Read1: s.Single})
	}
	if s.Forward != "" || s.Reverse != "" {
		if s.Forward == "" || s.Reverse == "" {
			return nil, utils.NewConfigurationError("paired reads need both -1 and -2")
		}
		entries = append(entries, Entry{Read1: s.Forward, Read2: s.Reverse})
	}
	if s.Fof != "" {
		fof, err := ReadFof(s.Fof)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fof...)
	}

	if len(entries) == 0 {
		if continuation && s.Empty() {
			return nil, nil
		}
		return nil, utils.NewConfigurationError("please supply reads as --in or -1/-2 or --fof or --graph")
	}
	return entries, nil
}

// ReadFof parses a file of files: one entry per line, one or two
// tab-separated columns. Blank lines are ignored.
func ReadFof(path string) ([]Entry, error) {
	fofFile, err := os.Open(path)
	if err != nil {
		return nil, utils.NewConfigurationError("opening file of files: %v", err)
	}
	defer fofFile.Close()

	var entries []Entry
	scanner := bufio.NewScanner(fofFile)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		sp := strings.Split(line, "\t")
		switch len(sp) {
		case 1:
			entries = append(entries, Entry{Read1: sp[0]})
		case 2:
			entries = append(entries, Entry{Read1: sp[0], Read2: sp[1]})
		default:
			return nil, utils.NewConfigurationError("%s line %d: expected 1 or 2 tab-separated columns, got %d", path, lineNo, len(sp))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.NewConfigurationError("reading file of files: %v", err)
	}
	if len(entries) == 0 {
		return nil, utils.NewConfigurationError("file of files %s lists no reads", path)
	}
	return entries, nil
}

// ReadPaths flattens entries into the read list handed to the gap-filler.
func ReadPaths(entries []Entry) []string {
	return lo.FlatMap(entries, func(e Entry, _ int) []string {
		if e.Paired() {
			return []string{e.Read1, e.Read2}
		}
		return []string{e.Read1}
	})
}
