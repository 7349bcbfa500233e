// jobfy: a tool for generating job scripts for HLA typing pipelines.
// Copyright (c) 2024-2026 Simo Zhang.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/svm-zhang/jobfy/blob/master/LICENSE.txt>.

package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/exascience/pargo/parallel"

	"github.com/svm-zhang/jobfy/job"
	"github.com/svm-zhang/jobfy/shell"
)

// BatchHelp is the help string for this command.
const BatchHelp = "\nbatch parameters:\n" +
	"jobfy batch\n" +
	"--sheet tsv-file\n" +
	"--hlaref fasta-file\n" +
	"--freq freq-file\n" +
	"--wkdir dir\n" +
	"[--scheduler [slurm | sge | bash]]\n" +
	"[--realign-only]\n" +
	"[--overwrite]\n" +
	"[--nproc nr]\n" +
	"[--ram gb]\n" +
	"[--profile toml-file]\n" +
	"[--log-path path]\n"

// A sheetRow is one sample in a sample sheet: the sample ID and its
// paired FASTQ files.
type sheetRow struct {
	sample string
	r1     string
	r2     string
}

// Batch implements the jobfy batch command. It reads a tab-separated
// sample sheet (sample, r1, r2 per line) and writes one hlareforged
// job script per sample.
func Batch() error {
	var (
		sheet, hlaref, freq, wkdir      string
		scheduler, profilePath, logPath string
		realignOnly, overwrite          bool
		nproc, ram                      int
	)

	var flags flag.FlagSet

	flags.StringVar(&sheet, "sheet", "", "sample sheet in TSV: sample, r1, r2")
	flags.StringVar(&hlaref, "hlaref", "", "HLA reference in FASTA")
	flags.StringVar(&freq, "freq", "", "HLA population frequency file")
	flags.StringVar(&wkdir, "wkdir", "", "path to output directory")
	flags.StringVar(&scheduler, "scheduler", "", "name of job scheduler, one of slurm, sge, or bash")
	flags.BoolVar(&realignOnly, "realign-only", false, "only run the realigner")
	flags.BoolVar(&overwrite, "overwrite", false, "overwrite existing job files")
	flags.IntVar(&nproc, "nproc", 0, "number of processes requested per job")
	flags.IntVar(&ram, "ram", 0, "maximum RAM requested in GB per job")
	flags.StringVar(&profilePath, "profile", "", "site profile in TOML")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 2, BatchHelp)

	if logPath != "" {
		if err := setLogOutput(logPath); err != nil {
			return err
		}
	}

	prof, err := loadProfile(profilePath)
	if err != nil {
		return err
	}
	if scheduler == "" {
		scheduler = prof.Scheduler
	}
	if nproc == 0 {
		nproc = prof.Resource.Nproc
	}
	if ram == 0 {
		ram = prof.Resource.RAM
	}
	if hlaref == "" {
		hlaref = prof.Reference.HLARef
	}
	if freq == "" {
		freq = prof.Reference.Freq
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkScheduler(scheduler) {
		sanityChecksFailed = true
	}
	if wkdir == "" {
		log.Println("Error: Missing working directory.")
		sanityChecksFailed = true
	} else if resolved, ok := resolveFlagPath("--wkdir", wkdir); ok {
		wkdir = resolved
	} else {
		sanityChecksFailed = true
	}

	inputs := []struct {
		parameter string
		path      *string
		required  bool
	}{
		{"--sheet", &sheet, true},
		{"--hlaref", &hlaref, true},
		{"--freq", &freq, !realignOnly},
	}
	for _, input := range inputs {
		if *input.path == "" {
			if !input.required {
				continue
			}
			logCheckFile(input.parameter, "Error: Missing filename")
			sanityChecksFailed = true
			continue
		}
		resolved, ok := resolveFlagPath(input.parameter, *input.path)
		if !ok || !checkInputFile(input.parameter, resolved) {
			sanityChecksFailed = true
			continue
		}
		*input.path = resolved
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, BatchHelp)
		os.Exit(1)
	}

	rows, err := readSampleSheet(sheet)
	if err != nil {
		return err
	}
	log.Printf("Read %v samples from %v\n", len(rows), sheet)

	sched := job.Scheduler(scheduler)
	resource := job.Resource{Nproc: nproc, RAM: ram, Ntask: 1, Nodes: 1}

	// Script paths are disjoint across rows because job names embed
	// the sample ID and duplicates are rejected above, so the rows can
	// be generated independently.
	outcomes := make([]job.Outcome, len(rows))
	scripts := make([]string, len(rows))
	errs := make([]error, len(rows))
	parallel.Range(0, len(rows), 0, func(low, high int) {
		for i := low; i < high; i++ {
			outcomes[i], scripts[i], errs[i] = batchOne(rows[i], wkdir, hlaref, freq, resource, sched, realignOnly, overwrite)
		}
	})

	var failed int
	for i, row := range rows {
		if errs[i] != nil {
			log.Printf("Error: sample %v: %v\n", row.sample, errs[i])
			failed++
			continue
		}
		log.Printf("Job script %v: %v\n", outcomes[i], scripts[i])
	}
	if failed > 0 {
		return fmt.Errorf("failed to generate job scripts for %v of %v samples", failed, len(rows))
	}
	return nil
}

func batchOne(row sheetRow, wkdir, hlaref, freq string, resource job.Resource, sched job.Scheduler, realignOnly, overwrite bool) (job.Outcome, string, error) {
	j, err := job.Setup(wkdir, "hlareforged."+row.sample, resource, sched)
	if err != nil {
		return job.Skipped, "", err
	}
	command, err := hlareforgedCommand(row.sample, row.r1, row.r2, hlaref, freq, wkdir, resource.Nproc, realignOnly)
	if err != nil {
		return job.Skipped, "", err
	}
	if sched == job.Bash {
		command = command.RedirectStdout(j.Log.Stdout, false)
		command = command.RedirectStderr(j.Log.Stderr, false)
	}
	outcome, err := job.MakeScript([]shell.Command{command}, j, sched, overwrite)
	return outcome, j.Script, err
}

// readSampleSheet parses a tab-separated sample sheet. Blank lines and
// lines starting with # are skipped; duplicate sample IDs are an
// error.
func readSampleSheet(path string) ([]sheetRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open sample sheet %v: %w", path, err)
	}
	defer f.Close()

	var rows []sheetRow
	seen := make(map[string]int)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("sample sheet %v line %v: expected 3 tab-separated fields (sample, r1, r2), got %v", path, lineno, len(fields))
		}
		sample := strings.TrimSpace(fields[0])
		if sample == "" {
			return nil, fmt.Errorf("sample sheet %v line %v: empty sample ID", path, lineno)
		}
		if first, ok := seen[sample]; ok {
			return nil, fmt.Errorf("sample sheet %v line %v: duplicate sample ID %v (first seen on line %v)", path, lineno, sample, first)
		}
		seen[sample] = lineno
		rows = append(rows, sheetRow{sample: sample, r1: fields[1], r2: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read sample sheet %v: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sample sheet %v contains no samples", path)
	}
	return rows, nil
}
