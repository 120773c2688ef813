/**
 * Filename: runner.go
 * Path: micos
 * Created Date: Monday, March 4th 2024, 10:02:17 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/pkg/errors"
)

// Runner invokes an external tool and blocks until it exits
type Runner interface {
	Run(name string, args ...string) error
}

// Process is a started child whose stdout and stderr share one stream
type Process interface {
	Output() io.Reader
	Wait() (exitCode int, err error)
}

// Launcher starts a process. A missing executable is reported with an error
// wrapping exec.ErrNotFound.
type Launcher func(name string, args ...string) (Process, error)

// CommandRunner runs tools through a Launcher and forwards every output line
// to Console as soon as it is read
type CommandRunner struct {
	Launch  Launcher
	Console io.Writer
	Log     *logging.Logger
}

// NewCommandRunner returns a runner backed by os/exec
func NewCommandRunner(console io.Writer) *CommandRunner {
	return &CommandRunner{Launch: ExecLauncher, Console: console}
}

func (r *CommandRunner) logger() *logging.Logger {
	if r.Log == nil {
		return log
	}
	return r.Log
}

// Start launches the tool and returns its output stream
func (r *CommandRunner) Start(name string, args ...string) (*Stream, error) {
	command := append([]string{name}, args...)
	proc, err := r.Launch(name, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &ToolError{Command: command, ExitCode: -1, Err: ErrToolMissing}
		}
		return nil, errors.Wrapf(err, "cannot start `%s`", name)
	}
	return &Stream{
		command: command,
		proc:    proc,
		reader:  bufio.NewReader(proc.Output()),
	}, nil
}

// Run implements Runner
func (r *CommandRunner) Run(name string, args ...string) error {
	logger := r.logger()
	cmdline := strings.Join(append([]string{name}, args...), " ")
	logger.Infof("Run `%s`", cmdline)

	stream, err := r.Start(name, args...)
	if err != nil {
		logger.Errorf("Cannot run `%s`: %v", cmdline, err)
		return err
	}
	for stream.Next() {
		fmt.Fprintln(r.Console, stream.Line())
	}
	if err := stream.Err(); err != nil {
		logger.Warningf("Output of `%s` interrupted: %v", name, err)
	}
	if err := stream.Wait(); err != nil {
		logger.Errorf("Command `%s` failed: %v", cmdline, err)
		return err
	}
	return nil
}

// Stream is the finite, single-pass sequence of output lines of a running
// tool, followed by its exit status
type Stream struct {
	command []string
	proc    Process
	reader  *bufio.Reader
	line    string
	err     error
	done    bool
}

// Next advances to the next line; it returns false once the output is closed
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.done = true
		if err != io.EOF {
			s.err = err
		}
		if line == "" {
			return false
		}
	}
	s.line = strings.TrimRight(line, "\r\n")
	return true
}

// Line returns the current line without its terminator
func (s *Stream) Line() string {
	return s.line
}

// Err returns the read error that ended the stream, if any
func (s *Stream) Err() error {
	return s.err
}

// Wait discards unread output, waits for the process and checks its status
func (s *Stream) Wait() error {
	s.done = true
	_, _ = io.Copy(io.Discard, s.reader)
	code, err := s.proc.Wait()
	if err != nil {
		return errors.Wrapf(err, "waiting for `%s`", s.command[0])
	}
	if code != 0 {
		return &ToolError{Command: s.command, ExitCode: code, Err: ErrToolFailed}
	}
	return nil
}

// execProcess is a child started by os/exec writing to one pipe
type execProcess struct {
	cmd *exec.Cmd
	out *os.File
}

// ExecLauncher starts the executable found on PATH with stderr merged into stdout
func ExecLauncher(name string, args ...string) (Process, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(path, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}
	// The child holds its own copy; ours must go so the reader sees EOF
	pw.Close()
	return &execProcess{cmd: cmd, out: pr}, nil
}

func (p *execProcess) Output() io.Reader {
	return p.out
}

func (p *execProcess) Wait() (int, error) {
	defer p.out.Close()
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
