/**
 * Filename: errors.go
 * Path: micos
 * Created Date: Monday, March 4th 2024, 9:40:03 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrToolMissing means the executable is not on the search path
	ErrToolMissing = errors.New("tool missing")
	// ErrToolFailed means the external process exited with a non-zero status
	ErrToolFailed = errors.New("process failed")
	// ErrMissingArtifact means a file required by a later stage was not produced
	ErrMissingArtifact = errors.New("missing artifact")
)

// ToolError describes a failed external tool invocation. Err is either
// ErrToolMissing or ErrToolFailed.
type ToolError struct {
	Command  []string
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	cmdline := strings.Join(e.Command, " ")
	if errors.Is(e.Err, ErrToolMissing) {
		return fmt.Sprintf("%v: `%s` not found in PATH", e.Err, e.Command[0])
	}
	return fmt.Sprintf("%v: `%s` exited with code %d", e.Err, cmdline, e.ExitCode)
}

// Unwrap exposes the sentinel error for errors.Is
func (e *ToolError) Unwrap() error {
	return e.Err
}

// Tool returns the name of the executable
func (e *ToolError) Tool() string {
	if len(e.Command) == 0 {
		return ""
	}
	return e.Command[0]
}

// missingArtifact reports a hand-off file absent at the checked path
func missingArtifact(what, path string) error {
	return errors.Wrapf(ErrMissingArtifact, "%s not found at `%s`", what, path)
}
