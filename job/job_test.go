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

package job

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testJob(t *testing.T, scheduler Scheduler) Job {
	t.Helper()
	j, err := Setup(t.TempDir(), "hlareforged.S1", Resource{Nproc: 8, RAM: 4, Ntask: 1, Nodes: 1}, scheduler)
	require.NoError(t, err)
	return j
}

func TestSetup(t *testing.T) {
	wkdir := t.TempDir()
	j, err := Setup(wkdir, "hlareforged.S1", DefaultResource(), Slurm)
	require.NoError(t, err)
	require.Equal(t, "hlareforged.S1", j.Name)
	require.Equal(t, filepath.Join(wkdir, "log", "hlareforged.S1.stdout"), j.Log.Stdout)
	require.Equal(t, filepath.Join(wkdir, "log", "hlareforged.S1.stderr"), j.Log.Stderr)
	require.Equal(t, filepath.Join(wkdir, "log", "hlareforged.S1.done"), j.Log.Done)
	require.Equal(t, filepath.Join(wkdir, "log", "hlareforged.S1.fail"), j.Log.Fail)
	require.Equal(t, filepath.Join(wkdir, "job", "hlareforged.S1.slurm"), j.Script)
	require.DirExists(t, filepath.Join(wkdir, "log"))
	require.DirExists(t, filepath.Join(wkdir, "job"))
}

func TestSetupEmptyName(t *testing.T) {
	_, err := Setup(t.TempDir(), "", DefaultResource(), Slurm)
	require.ErrorIs(t, err, ErrEmptyName)
}

func TestSetupInvalidResource(t *testing.T) {
	for _, res := range []Resource{
		{Nproc: 0, RAM: 4, Ntask: 1, Nodes: 1},
		{Nproc: 8, RAM: 0, Ntask: 1, Nodes: 1},
		{Nproc: 8, RAM: 4, Ntask: 0, Nodes: 1},
		{Nproc: 8, RAM: 4, Ntask: 1, Nodes: -1},
	} {
		_, err := Setup(t.TempDir(), "job.S1", res, Slurm)
		require.ErrorIs(t, err, ErrInvalidResource)
	}
}

func TestSetupUnsupportedScheduler(t *testing.T) {
	_, err := Setup(t.TempDir(), "job.S1", DefaultResource(), Scheduler("pbs"))
	var uerr *UnsupportedSchedulerError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, Scheduler("pbs"), uerr.Scheduler)
}

// Script suffix and header style must agree per scheduler.
func TestSuffixHeaderAgreement(t *testing.T) {
	cases := []struct {
		scheduler Scheduler
		suffix    string
		directive string
	}{
		{Slurm, ".slurm", "#SBATCH"},
		{SGE, ".sge", "#$"},
		{Bash, ".sh", ""},
	}
	for _, c := range cases {
		j := testJob(t, c.scheduler)
		suffix, err := c.scheduler.Suffix()
		require.NoError(t, err)
		require.Equal(t, c.suffix, suffix)
		require.Equal(t, suffix, filepath.Ext(j.Script))

		header, err := c.scheduler.MakeHeader(j)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(header, "#!/usr/bin/env bash\n"))
		for _, line := range strings.Split(header, "\n")[1:] {
			if line == "" {
				continue
			}
			if c.directive == "" {
				t.Errorf("bash header must carry no directive lines, got %q", line)
				continue
			}
			require.True(t, strings.HasPrefix(line, c.directive+" "),
				"%v header line %q lacks prefix %q", c.scheduler, line, c.directive)
		}
	}
}

func TestSlurmHeader(t *testing.T) {
	j := testJob(t, Slurm)
	header, err := Slurm.MakeHeader(j)
	require.NoError(t, err)
	want := strings.Join([]string{
		"#!/usr/bin/env bash",
		"",
		`#SBATCH --job-name="hlareforged.S1"`,
		"#SBATCH --output=" + j.Log.Stdout,
		"#SBATCH --error=" + j.Log.Stderr,
		"#SBATCH --ntasks=1",
		"#SBATCH --nodes=1",
		"#SBATCH --cpus-per-task=8",
		"#SBATCH --mem=4G",
	}, "\n")
	require.Equal(t, want, header)
}

// The shm parallel environment asks for half the cpu count, integer
// divided. This is intentional; see sgeHeader.
func TestSGEHeader(t *testing.T) {
	j := testJob(t, SGE)
	header, err := SGE.MakeHeader(j)
	require.NoError(t, err)
	want := strings.Join([]string{
		"#!/usr/bin/env bash",
		"",
		"#$ -N hlareforged.S1",
		"#$ -o " + j.Log.Stdout,
		"#$ -e " + j.Log.Stderr,
		"#$ -pe shm 4",
		"#$ -l h_vmem=4G",
	}, "\n")
	require.Equal(t, want, header)
}

func TestSGEHeaderOddNproc(t *testing.T) {
	j := testJob(t, SGE)
	j.Resource.Nproc = 7
	header, err := SGE.MakeHeader(j)
	require.NoError(t, err)
	require.Contains(t, header, "#$ -pe shm 3\n")
}

func TestBashHeader(t *testing.T) {
	j := testJob(t, Bash)
	header, err := Bash.MakeHeader(j)
	require.NoError(t, err)
	require.Equal(t, "#!/usr/bin/env bash\n", header)
}

// MakeHeader is a pure function: identical jobs give byte-identical
// headers.
func TestMakeHeaderPure(t *testing.T) {
	for _, scheduler := range []Scheduler{Slurm, SGE, Bash} {
		j := testJob(t, scheduler)
		first, err := scheduler.MakeHeader(j)
		require.NoError(t, err)
		second, err := scheduler.MakeHeader(j)
		require.NoError(t, err)
		require.Equal(t, first, second)
	}
}

func TestMakeHeaderUnsupported(t *testing.T) {
	j := testJob(t, Slurm)
	_, err := Scheduler("pbs").MakeHeader(j)
	var uerr *UnsupportedSchedulerError
	require.ErrorAs(t, err, &uerr)
}
