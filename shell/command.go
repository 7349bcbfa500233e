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

// Package shell represents shell command lines as immutable token
// sequences that can be composed by appending, piping, and stream
// redirection.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// ErrEmptyProgram is returned by New when no program name is given.
var ErrEmptyProgram = errors.New("empty program name")

// A ParseError reports a command string that cannot be split into
// tokens, for example because of unbalanced quoting.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse command string %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// A Command is an ordered sequence of string tokens, the program name
// followed by its arguments. Pipes and redirections are stored as
// literal tokens, matching the syntax of the target shell. Commands
// are immutable; every composing operation returns a new value.
//
// Render performs no quoting of its own. A token that contains
// whitespace or shell metacharacters must be pre-quoted by the caller.
type Command struct {
	tokens []string
}

// New creates a Command from a program name and its arguments.
func New(program string, args ...string) (Command, error) {
	if program == "" {
		return Command{}, ErrEmptyProgram
	}
	tokens := make([]string, 0, 1+len(args))
	tokens = append(tokens, program)
	tokens = append(tokens, args...)
	return Command{tokens: tokens}, nil
}

// Parse creates a Command from a command string, splitting it into
// tokens with POSIX shell word-splitting rules. Quoting and escaping
// in the string are honored.
func Parse(s string) (Command, error) {
	tokens, err := shlex.Split(s)
	if err != nil {
		return Command{}, &ParseError{Input: s, Err: err}
	}
	if len(tokens) == 0 {
		return Command{}, ErrEmptyProgram
	}
	return Command{tokens: tokens}, nil
}

// Tokens returns a copy of the token sequence.
func (c Command) Tokens() []string {
	tokens := make([]string, len(c.tokens))
	copy(tokens, c.tokens)
	return tokens
}

// Append returns a new Command with the given tokens appended.
func (c Command) Append(tokens ...string) Command {
	combined := make([]string, 0, len(c.tokens)+len(tokens))
	combined = append(combined, c.tokens...)
	combined = append(combined, tokens...)
	return Command{tokens: combined}
}

// AppendCommand returns a new Command whose token sequence is the
// concatenation of both commands.
func (c Command) AppendCommand(other Command) Command {
	return c.Append(other.tokens...)
}

// Pipe returns a new Command that pipes this command into the next
// one. The result is still a flat token sequence with a literal "|"
// token in between.
func (c Command) Pipe(other Command) Command {
	return c.Append("|").AppendCommand(other)
}

// RedirectStdout directs standard output to the given file, with ">>"
// instead of ">" when appendMode is set.
func (c Command) RedirectStdout(path string, appendMode bool) Command {
	rd := ">"
	if appendMode {
		rd = ">>"
	}
	return c.Append(rd, path)
}

// RedirectStderr directs standard error to the given file, with "2>>"
// instead of "2>" when appendMode is set.
func (c Command) RedirectStderr(path string, appendMode bool) Command {
	rd := "2>"
	if appendMode {
		rd = "2>>"
	}
	return c.Append(rd, path)
}

// MergeStderrIntoStdout redirects standard error into standard output
// by appending "2>&1".
func (c Command) MergeStderrIntoStdout() Command {
	return c.Append("2>&1")
}

// MergeStdoutIntoStderr redirects standard output into standard error
// by appending "1>&2".
func (c Command) MergeStdoutIntoStderr() Command {
	return c.Append("1>&2")
}

// Render formats the command as a single line, the tokens joined by
// single spaces in order.
func (c Command) Render() string {
	return strings.Join(c.tokens, " ")
}
