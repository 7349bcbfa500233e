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
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/svm-zhang/jobfy/job"
	"github.com/svm-zhang/jobfy/shell"
)

// PolysolverHelp is the help string for this command.
const PolysolverHelp = "\npolysolver parameters:\n" +
	"jobfy polysolver\n" +
	"--sample sample-id\n" +
	"--bam bam-file\n" +
	"--bed bed-file\n" +
	"--tag kmer-tag-file\n" +
	"--hlaref fasta-file\n" +
	"--freq freq-file\n" +
	"--wkdir dir\n" +
	"[--fish-mode [faster | fast]]\n" +
	"[--scheduler [slurm | sge | bash]]\n" +
	"[--realign-only]\n" +
	"[--overwrite]\n" +
	"[--nproc nr]\n" +
	"[--ram gb]\n" +
	"[--profile toml-file]\n" +
	"[--log-path path]\n"

// Polysolver implements the jobfy polysolver command. It composes the
// command line for the BAM realignment and typing step and writes the
// job script for it.
func Polysolver() error {
	var (
		sample, bam, bed, tag, hlaref, freq, wkdir string
		fishMode, scheduler, profilePath, logPath  string
		realignOnly, overwrite                     bool
		nproc, ram                                 int
	)

	var flags flag.FlagSet

	flags.StringVar(&sample, "sample", "", "sample ID")
	flags.StringVar(&bam, "bam", "", "BAM file")
	flags.StringVar(&bed, "bed", "", "HLA bed file")
	flags.StringVar(&tag, "tag", "", "HLA kmer tag file")
	flags.StringVar(&hlaref, "hlaref", "", "HLA reference in FASTA")
	flags.StringVar(&freq, "freq", "", "HLA population frequency file")
	flags.StringVar(&wkdir, "wkdir", "", "path to output directory")
	flags.StringVar(&fishMode, "fish-mode", "faster", "fishing mode, one of faster or fast")
	flags.StringVar(&scheduler, "scheduler", "", "name of job scheduler, one of slurm, sge, or bash")
	flags.BoolVar(&realignOnly, "realign-only", false, "only run the realigner")
	flags.BoolVar(&overwrite, "overwrite", false, "overwrite an existing job file")
	flags.IntVar(&nproc, "nproc", 0, "number of processes requested")
	flags.IntVar(&ram, "ram", 0, "maximum RAM requested in GB")
	flags.StringVar(&profilePath, "profile", "", "site profile in TOML")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 2, PolysolverHelp)

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
	if bed == "" {
		bed = prof.Reference.Bed
	}
	if tag == "" {
		tag = prof.Reference.KmerTag
	}

	// sanity checks

	var sanityChecksFailed bool

	if sample == "" {
		log.Println("Error: Missing sample ID.")
		sanityChecksFailed = true
	}
	if !checkScheduler(scheduler) {
		sanityChecksFailed = true
	}
	switch fishMode {
	case "faster", "fast":
	default:
		log.Printf("Error: Unrecognized fish-mode value %q. Supports: faster and fast.\n", fishMode)
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
		{"--bam", &bam, true},
		{"--bed", &bed, true},
		{"--tag", &tag, true},
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
		fmt.Fprint(os.Stderr, PolysolverHelp)
		os.Exit(1)
	}

	sched := job.Scheduler(scheduler)
	jobName := "polysolver." + sample
	resource := job.Resource{Nproc: nproc, RAM: ram, Ntask: 1, Nodes: 1}

	j, err := job.Setup(wkdir, jobName, resource, sched)
	if err != nil {
		return err
	}

	command, err := polysolverCommand(sample, bam, bed, tag, hlaref, freq, wkdir, fishMode, nproc, realignOnly)
	if err != nil {
		return err
	}
	if sched == job.Bash {
		command = command.RedirectStdout(j.Log.Stdout, false)
		command = command.RedirectStderr(j.Log.Stderr, false)
	}

	log.Println("Job command:\n", command.Render())

	outcome, err := job.MakeScript([]shell.Command{command}, j, sched, overwrite)
	if err != nil {
		return err
	}
	log.Printf("Job script %v: %v\n", outcome, j.Script)
	return nil
}

func polysolverCommand(sample, bam, bed, tag, hlaref, freq, wkdir, fishMode string, nproc int, realignOnly bool) (shell.Command, error) {
	command, err := shell.New(
		"hlapolysolver",
		"--sample", sample,
		"--bam", bam,
		"--hla_ref", hlaref,
		"--bed", bed,
		"--tag", tag,
		"--outdir", wkdir,
		"--fish_mode", fishMode,
		"--nproc", strconv.Itoa(nproc),
	)
	if err != nil {
		return shell.Command{}, err
	}
	if realignOnly {
		return command.Append("--realn_only"), nil
	}
	return command.Append("--freq", freq), nil
}
