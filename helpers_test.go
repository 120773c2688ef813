/*
 *  helpers_test.go
 *  micos
 *
 *  Created by MICOS-2024 Team on 03/11/24
 *  Copyright © 2024 MICOS-2024 Team. All rights reserved.
 */

package micos_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/micos2024/micos"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// recorder is a Runner that records every invocation instead of starting a
// process. hook may fake the tool's side effects; fail makes a tool exit 1.
type recorder struct {
	mu    sync.Mutex
	calls []call
	hook  func(name string, args []string) error
	fail  map[string]bool
}

func (r *recorder) Run(name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call{name: name, args: args})
	r.mu.Unlock()
	if r.fail[name] {
		return &micos.ToolError{Command: append([]string{name}, args...), ExitCode: 1, Err: micos.ErrToolFailed}
	}
	if r.hook != nil {
		return r.hook(name, args)
	}
	return nil
}

func (r *recorder) env() micos.Env {
	return micos.Env{Runner: r}
}

func (r *recorder) count(name string) int {
	n := 0
	for _, c := range r.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func (r *recorder) tools() []string {
	var names []string
	for _, c := range r.calls {
		names = append(names, c.name)
	}
	return names
}

// argAfter returns the value following flag in args
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// touch writes content to path, creating parent directories
func touch(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

const sampleReport = "60.00\t6\t0\tG\t561\t  Escherichia\n" +
	"50.00\t5\t5\tS\t562\t    Escherichia coli\n" +
	"40.00\t4\t4\tS\t1280\t    Staphylococcus aureus\n"
