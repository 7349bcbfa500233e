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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/svm-zhang/jobfy/shell"
)

// Outcome reports whether MakeScript wrote the script or preserved an
// existing one.
type Outcome int

const (
	// Skipped means an existing non-empty script was left untouched.
	Skipped Outcome = iota
	// Written means the script file was (re)written.
	Written
)

func (o Outcome) String() string {
	if o == Written {
		return "written"
	}
	return "skipped"
}

// rcStatusBlock renders the script epilogue: check $? of the preceding
// command, touch the fail marker and exit 1 on non-zero, touch the
// done marker and exit 0 otherwise.
func rcStatusBlock(l Log) string {
	return fmt.Sprintf(`
if [[ $? != 0 ]]; then
    touch %s
    exit 1
else
    touch %s
    exit 0
fi
`, l.Fail, l.Done)
}

// MakeScript assembles a job script from a scheduler header, the
// rendered commands in order, and the done/fail status epilogue, and
// writes it to the job's script path.
//
// Commands run sequentially in the generated script, and only the exit
// status of the last one is observed by the epilogue. A caller that
// needs per-command guards must insert them into the command sequence
// itself.
//
// The script is only written when the target is missing, empty, or
// overwrite is set; otherwise the existing script is preserved and
// Skipped is returned. The full content is assembled in memory and
// written through a temporary file in the same directory, so no
// partial script is ever observable at the target path.
func MakeScript(commands []shell.Command, j Job, scheduler Scheduler, overwrite bool) (Outcome, error) {
	header, err := scheduler.MakeHeader(j)
	if err != nil {
		return Skipped, err
	}

	rendered := make([]string, len(commands))
	for i, command := range commands {
		rendered[i] = command.Render()
	}
	body := strings.Join(rendered, "\n")

	content := strings.Join([]string{header, body, rcStatusBlock(j.Log)}, "\n\n")

	write, err := shouldWrite(j.Script, overwrite)
	if err != nil {
		return Skipped, err
	}
	if !write {
		return Skipped, nil
	}
	if err := writeScript(j.Script, []byte(content)); err != nil {
		return Skipped, err
	}
	return Written, nil
}

// shouldWrite implements the idempotent write policy: write when the
// target does not exist or is zero bytes, or when overwrite is set.
func shouldWrite(script string, overwrite bool) (bool, error) {
	info, err := os.Stat(script)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("cannot stat job script %v: %w", script, err)
	}
	return overwrite || info.Size() == 0, nil
}

// writeScript writes the content to a uniquely named temporary file
// next to the target and renames it into place.
func writeScript(script string, content []byte) error {
	dir := filepath.Dir(script)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(script), uuid.New().String()))
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("cannot write job script %v: %w", script, err)
	}
	if err := os.Rename(tmp, script); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("cannot write job script %v: %w", script, err)
	}
	return nil
}
