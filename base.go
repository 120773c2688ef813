/**
 * Filename: base.go
 * Path: micos
 * Created Date: Monday, March 4th 2024, 9:12:40 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/pkg/errors"
)

const (
	// Version is the current version of MICOS
	Version = "2024.1.0"
	// DefaultThreads is used when neither the command line nor config.yaml sets --threads
	DefaultThreads = 16
	// SummaryFileName is written at the results root by the full pipeline
	SummaryFileName = "micos_summary_report.html"
	// FeatureTableName is the hand-off artifact between profiling and diversity
	FeatureTableName = "feature-table.biom"
)

// Stage output directories under the results root
const (
	QualityControlDir       = "1_quality_control"
	TaxonomicProfilingDir   = "2_taxonomic_profiling"
	DiversityAnalysisDir    = "3_diversity_analysis"
	FunctionalAnnotationDir = "4_functional_annotation"
)

var log = logging.MustGetLogger("micos")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)
var fileFormat = logging.MustStringFormatter(
	`[%{time:2006-01-02 15:04:05}] [%{level}] - %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// LogOptions controls how SetupLogging wires the backends
type LogOptions struct {
	Verbose bool
	LogFile string
}

// SetupLogging installs the stderr backend and, when requested, a plain file
// backend. The returned closer releases the log file; it is never nil.
func SetupLogging(opts LogOptions) (io.Closer, error) {
	level := logging.INFO
	if opts.Verbose {
		level = logging.DEBUG
	}

	backends := []logging.Backend{BackendFormatter}
	var closer io.Closer = nopCloser{}
	if opts.LogFile != "" {
		fw, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return closer, errors.Wrapf(err, "cannot open log file `%s`", opts.LogFile)
		}
		closer = fw
		backends = append(backends,
			logging.NewBackendFormatter(logging.NewLogBackend(fw, "", 0), fileFormat))
	}

	leveled := logging.SetBackend(backends...)
	leveled.SetLevel(level, "")
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Env bundles the collaborators a stage uses to reach the outside world
type Env struct {
	Runner Runner
	Log    *logging.Logger
}

func (r Env) runner() Runner {
	if r.Runner == nil {
		return NewCommandRunner(os.Stdout)
	}
	return r.Runner
}

func (r Env) logger() *logging.Logger {
	if r.Log == nil {
		return log
	}
	return r.Log
}

// banner prints the separate steps
func banner(logger *logging.Logger, message string) {
	message = "* " + message + " *"
	logger.Notice(strings.Repeat("*", len(message)))
	logger.Notice(message)
	logger.Notice(strings.Repeat("*", len(message)))
}

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// MakeDir creates the directory and its parents if they do not exist yet
func MakeDir(dir string) error {
	return errors.Wrapf(os.MkdirAll(dir, 0755), "cannot create directory `%s`", dir)
}

// fileExists tells if a regular file is present at the path
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// dirExists tells if a directory is present at the path
func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// matchFiles returns the sorted entries below dir whose names match pattern.
// dir is taken literally, so user paths may contain glob characters. Only the
// last element of pattern is matched; a missing directory has no matches.
func matchFiles(dir, pattern string) ([]string, error) {
	sub, name := filepath.Split(pattern)
	dir = filepath.Join(dir, sub)
	if _, err := filepath.Match(name, ""); err != nil {
		return nil, errors.Wrapf(err, "bad file pattern `%s`", pattern)
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list `%s`", dir)
	}

	var matches []string
	for _, entry := range entries {
		ok, err := filepath.Match(name, entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "bad file pattern `%s`", pattern)
		}
		if ok {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(matches)
	return matches, nil
}
