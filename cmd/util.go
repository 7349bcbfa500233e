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
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/svm-zhang/jobfy/config"
	"github.com/svm-zhang/jobfy/internal"
	"github.com/svm-zhang/jobfy/utils"
)

// ProgramMessage is the first line printed when the jobfy binary is
// called.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(),
		" - see ", utils.ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed to show the --help flag
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

func parseFlags(flags flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

// loadProfile resolves and loads a site profile, or returns the
// built-in defaults when no path is given.
func loadProfile(profilePath string) (config.Profile, error) {
	if profilePath == "" {
		return config.Default(), nil
	}
	resolved, err := internal.ResolvePath(profilePath)
	if err != nil {
		return config.Profile{}, err
	}
	if err := internal.CheckPath(resolved, internal.CheckOptions{IsFile: true, Exists: true}); err != nil {
		return config.Profile{}, err
	}
	return config.Load(resolved)
}

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

// checkInputFile verifies that a flag names an existing regular file,
// logging the problem and returning false otherwise.
func checkInputFile(parameter, filename string) bool {
	if filename == "" {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if err := internal.CheckPath(filename, internal.CheckOptions{IsFile: true, Exists: true}); err != nil {
		logCheckFile(parameter, "Error: %v", err)
		return false
	}
	return true
}

// resolveFlagPath resolves a flag-supplied path, logging the problem
// and returning false on failure.
func resolveFlagPath(parameter, path string) (string, bool) {
	resolved, err := internal.ResolvePath(path)
	if err != nil {
		logCheckFile(parameter, "Error: %v", err)
		return "", false
	}
	return resolved, true
}

func checkScheduler(scheduler string) bool {
	switch scheduler {
	case "slurm", "sge", "bash":
		return true
	default:
		log.Printf("Error: Unrecognized scheduler value %q. Supports: slurm, sge, and bash.\n", scheduler)
		return false
	}
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/jobfy/jobfy-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

// setLogOutput mirrors log output into a timestamped log file by
// duplicating the file descriptor over stderr.
func setLogOutput(path string) error {
	logPath := createLogFilename()
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logPath)
	} else {
		fullPath = filepath.Join(path, logPath)
	}
	if err := internal.EnsureDir(filepath.Dir(fullPath), true, true); err != nil {
		return err
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		return err
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		return err
	}

	multi := io.MultiWriter(f, ferr)

	log.SetOutput(multi)
	log.Println("Created log file at", fullPath)
	log.Println("Command line:", os.Args)
	return nil
}
