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

// jobfy generates job scripts that submit HLA typing pipeline steps
// to a batch scheduler (Slurm, SGE) or plain bash. It only writes the
// scripts; submitting and running them is up to the caller.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/svm-zhang/jobfy/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: hlareforged, polysolver, batch")
	fmt.Fprint(os.Stderr, "\n", cmd.HlareforgedHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.PolysolverHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BatchHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "hlareforged":
		err = cmd.Hlareforged()
	case "polysolver":
		err = cmd.Polysolver()
	case "batch":
		err = cmd.Batch()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Printf("Unrecognized command: %v.\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
