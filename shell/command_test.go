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

package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cmd, err := New("bwa", "mem", "-M", "-t", "8")
	require.NoError(t, err)
	require.Equal(t, []string{"bwa", "mem", "-M", "-t", "8"}, cmd.Tokens())
	require.Equal(t, "bwa mem -M -t 8", cmd.Render())
}

func TestNewEmptyProgram(t *testing.T) {
	_, err := New("")
	require.ErrorIs(t, err, ErrEmptyProgram)
}

func TestParse(t *testing.T) {
	cmd, err := Parse(`bwa mem -M -t 8 reference.fa r1.fq.gz r2.fq.gz`)
	require.NoError(t, err)
	require.Equal(t,
		[]string{"bwa", "mem", "-M", "-t", "8", "reference.fa", "r1.fq.gz", "r2.fq.gz"},
		cmd.Tokens())
}

func TestParseQuoting(t *testing.T) {
	cmd, err := Parse(`samtools view -F 'some flag' "a b.bam"`)
	require.NoError(t, err)
	require.Equal(t,
		[]string{"samtools", "view", "-F", "some flag", "a b.bam"},
		cmd.Tokens())
}

func TestParseUnbalancedQuote(t *testing.T) {
	_, err := Parse(`samtools view "a.bam`)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, `samtools view "a.bam`, perr.Input)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	require.ErrorIs(t, err, ErrEmptyProgram)
}

// Renders of an appended command must equal the joined concatenation of
// both token sequences.
func TestAppendRender(t *testing.T) {
	cases := []struct {
		a []string
		b []string
	}{
		{[]string{"toolX"}, []string{"--in", "a.fq"}},
		{[]string{"samtools", "sort"}, []string{"-@", "8", "in.bam"}},
		{[]string{"echo", "done"}, nil},
	}
	for _, c := range cases {
		cmd, err := New(c.a[0], c.a[1:]...)
		require.NoError(t, err)
		appended := cmd.Append(c.b...)
		want := strings.Join(append(append([]string{}, c.a...), c.b...), " ")
		require.Equal(t, want, appended.Render())
	}
}

func TestAppendCommand(t *testing.T) {
	a, err := New("hlareforged", "--sample", "S1")
	require.NoError(t, err)
	b, err := New("--realn_only")
	require.NoError(t, err)
	require.Equal(t, "hlareforged --sample S1 --realn_only", a.AppendCommand(b).Render())
}

func TestAppendDoesNotMutate(t *testing.T) {
	cmd, err := New("samtools", "view")
	require.NoError(t, err)
	_ = cmd.Append("-b")
	_ = cmd.Pipe(cmd)
	_ = cmd.RedirectStdout("out.bam", false)
	require.Equal(t, "samtools view", cmd.Render())
}

func TestTokensReturnsCopy(t *testing.T) {
	cmd, err := New("samtools", "view")
	require.NoError(t, err)
	tokens := cmd.Tokens()
	tokens[0] = "bcftools"
	require.Equal(t, "samtools view", cmd.Render())
}

func TestPipe(t *testing.T) {
	view, err := New("samtools", "view", "-h", "in.bam")
	require.NoError(t, err)
	sort, err := New("samtools", "sort", "-")
	require.NoError(t, err)
	piped := view.Pipe(sort)
	require.Equal(t, view.Render()+" | "+sort.Render(), piped.Render())
}

func TestRedirectStdout(t *testing.T) {
	cmd, err := New("toolX", "--in", "a.fq")
	require.NoError(t, err)
	require.Equal(t, cmd.Render()+" > out.log", cmd.RedirectStdout("out.log", false).Render())
	require.Equal(t, cmd.Render()+" >> out.log", cmd.RedirectStdout("out.log", true).Render())
}

func TestRedirectStderr(t *testing.T) {
	cmd, err := New("toolX", "--in", "a.fq")
	require.NoError(t, err)
	require.Equal(t, cmd.Render()+" 2> err.log", cmd.RedirectStderr("err.log", false).Render())
	require.Equal(t, cmd.Render()+" 2>> err.log", cmd.RedirectStderr("err.log", true).Render())
}

func TestMergeStreams(t *testing.T) {
	cmd, err := New("toolX")
	require.NoError(t, err)
	require.Equal(t, "toolX 2>&1", cmd.MergeStderrIntoStdout().Render())
	require.Equal(t, "toolX 1>&2", cmd.MergeStdoutIntoStderr().Render())
}

// Tokens are joined verbatim; pre-quoted tokens pass through untouched.
func TestRenderNoEscaping(t *testing.T) {
	cmd, err := New("toolX", "--label", `"a b"`)
	require.NoError(t, err)
	require.Equal(t, `toolX --label "a b"`, cmd.Render())
}
