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

// Package job describes schedulable pipeline steps and turns them into
// job scripts with scheduler-specific resource headers.
package job

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/svm-zhang/jobfy/internal"
)

const shebang = "#!/usr/bin/env bash"

// Scheduler identifies the batch system a job script is written for.
type Scheduler string

const (
	// Slurm renders #SBATCH directives and a .slurm script.
	Slurm Scheduler = "slurm"
	// SGE renders #$ directives and a .sge script.
	SGE Scheduler = "sge"
	// Bash renders a bare shell script without directives.
	Bash Scheduler = "bash"
)

// An UnsupportedSchedulerError reports a scheduler tag outside the
// supported set.
type UnsupportedSchedulerError struct {
	Scheduler Scheduler
}

func (e *UnsupportedSchedulerError) Error() string {
	return fmt.Sprintf("unrecognized scheduler value %q: supports slurm, sge, and bash", string(e.Scheduler))
}

// ErrEmptyName is returned when a job is set up without a name.
var ErrEmptyName = errors.New("empty job name")

// ErrInvalidResource is returned when a resource request asks for less
// than one of any resource.
var ErrInvalidResource = errors.New("resource request counts must be at least 1")

// A Resource is the amount of compute a job asks the scheduler for.
// RAM is in GiB.
type Resource struct {
	Nproc int
	RAM   int
	Ntask int
	Nodes int
}

// DefaultResource returns the resource request used when the caller
// specifies nothing: 1 cpu, 4 GiB, 1 task, 1 node.
func DefaultResource() Resource {
	return Resource{Nproc: 1, RAM: 4, Ntask: 1, Nodes: 1}
}

func (r Resource) validate() error {
	if r.Nproc < 1 || r.RAM < 1 || r.Ntask < 1 || r.Nodes < 1 {
		return fmt.Errorf("%w: nproc=%v ram=%v ntask=%v nodes=%v", ErrInvalidResource, r.Nproc, r.RAM, r.Ntask, r.Nodes)
	}
	return nil
}

// A Log holds the four per-job log paths. The done and fail markers
// are created by the generated script itself at execution time, never
// by this package.
type Log struct {
	Stdout string
	Stderr string
	Done   string
	Fail   string
}

// A Job is one schedulable unit: its name, resource request, log
// layout, and target script path. A Job is immutable once set up.
type Job struct {
	Name     string
	Resource Resource
	Log      Log
	Script   string
}

// Scheduler-specific behavior lives in one table so that the script
// suffix and the header renderer can never disagree.
type schedulerSpec struct {
	suffix string
	header func(Job) string
}

var schedulers = map[Scheduler]schedulerSpec{
	Slurm: {suffix: ".slurm", header: slurmHeader},
	SGE:   {suffix: ".sge", header: sgeHeader},
	Bash:  {suffix: ".sh", header: bashHeader},
}

// Suffix returns the script file extension for the scheduler.
func (s Scheduler) Suffix() (string, error) {
	spec, ok := schedulers[s]
	if !ok {
		return "", &UnsupportedSchedulerError{Scheduler: s}
	}
	return spec.suffix, nil
}

// MakeHeader renders the directive block the scheduler needs to
// allocate resources and route stdout/stderr. It is a pure function of
// the job.
func (s Scheduler) MakeHeader(j Job) (string, error) {
	spec, ok := schedulers[s]
	if !ok {
		return "", &UnsupportedSchedulerError{Scheduler: s}
	}
	return spec.header(j), nil
}

func slurmHeader(j Job) string {
	const prefix = "#SBATCH"
	header := []string{shebang + "\n"}
	header = append(header, fmt.Sprintf("%s --job-name=%q", prefix, j.Name))
	header = append(header, fmt.Sprintf("%s --output=%s", prefix, j.Log.Stdout))
	header = append(header, fmt.Sprintf("%s --error=%s", prefix, j.Log.Stderr))
	header = append(header, fmt.Sprintf("%s --ntasks=%d", prefix, j.Resource.Ntask))
	header = append(header, fmt.Sprintf("%s --nodes=%d", prefix, j.Resource.Nodes))
	header = append(header, fmt.Sprintf("%s --cpus-per-task=%d", prefix, j.Resource.Nproc))
	header = append(header, fmt.Sprintf("%s --mem=%dG", prefix, j.Resource.RAM))
	return strings.Join(header, "\n")
}

// sgeHeader halves the cpu count for -pe shm. That is the slot
// convention of the shared-memory parallel environments this tool
// submits to, not a bug; do not round it back up.
func sgeHeader(j Job) string {
	const prefix = "#$"
	header := []string{shebang + "\n"}
	header = append(header, fmt.Sprintf("%s -N %s", prefix, j.Name))
	header = append(header, fmt.Sprintf("%s -o %s", prefix, j.Log.Stdout))
	header = append(header, fmt.Sprintf("%s -e %s", prefix, j.Log.Stderr))
	header = append(header, fmt.Sprintf("%s -pe shm %d", prefix, j.Resource.Nproc/2))
	header = append(header, fmt.Sprintf("%s -l h_vmem=%dG", prefix, j.Resource.RAM))
	return strings.Join(header, "\n")
}

func bashHeader(j Job) string {
	return shebang + "\n"
}

// Setup derives a Job from a working directory: log files go to
// <wkdir>/log/<name>.*, the script to <wkdir>/job/<name><suffix>. Both
// directories are created if missing.
func Setup(wkdir, name string, res Resource, scheduler Scheduler) (Job, error) {
	if name == "" {
		return Job{}, ErrEmptyName
	}
	if err := res.validate(); err != nil {
		return Job{}, err
	}
	suffix, err := scheduler.Suffix()
	if err != nil {
		return Job{}, err
	}
	logdir := filepath.Join(wkdir, "log")
	if err := internal.EnsureDir(logdir, true, true); err != nil {
		return Job{}, err
	}
	jobdir := filepath.Join(wkdir, "job")
	if err := internal.EnsureDir(jobdir, true, true); err != nil {
		return Job{}, err
	}
	return Job{
		Name:     name,
		Resource: res,
		Log: Log{
			Stdout: filepath.Join(logdir, name+".stdout"),
			Stderr: filepath.Join(logdir, name+".stderr"),
			Done:   filepath.Join(logdir, name+".done"),
			Fail:   filepath.Join(logdir, name+".fail"),
		},
		Script: filepath.Join(jobdir, name+suffix),
	}, nil
}
