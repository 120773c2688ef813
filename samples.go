/**
 * Filename: samples.go
 * Path: micos
 * Created Date: Monday, March 4th 2024, 11:25:50 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mate suffixes of raw and KneadData-cleaned read files
const (
	RawMate1Suffix       = "_R1.fastq.gz"
	RawMate2Suffix       = "_R2.fastq.gz"
	PairedMate1Suffix    = "_paired_1.fastq"
	PairedMate2Suffix    = "_paired_2.fastq"
	UnmatchedMate1Suffix = "_unmatched_1.fastq"
	UnmatchedMate2Suffix = "_unmatched_2.fastq"
)

// Precondition is the outcome of checking a step's inputs before any tool is
// invoked: either Proceed with the inputs, or Skip with a reason
type Precondition struct {
	Inputs []string
	Reason string
	skip   bool
}

// Proceed says the step has what it needs
func Proceed(inputs ...string) Precondition {
	return Precondition{Inputs: inputs}
}

// Skip says the step has nothing to do, for the given reason
func Skip(format string, args ...interface{}) Precondition {
	return Precondition{Reason: fmt.Sprintf(format, args...), skip: true}
}

// Skipped tells if the step should not run
func (r Precondition) Skipped() bool {
	return r.skip
}

// Sample is a pair of mate files sharing a base name
type Sample struct {
	Base  string
	Mate1 string
	Mate2 string
}

// SampleSet is the result of pairing mate files in a directory
type SampleSet struct {
	Samples []Sample
	// Skipped holds one Skip precondition per sample lacking its second mate
	Skipped []Precondition
}

// RequireFiles returns Proceed with the sorted files in dir matching pattern,
// or Skip when there are none. The error is reserved for a directory that
// cannot be listed or a malformed pattern.
func RequireFiles(dir, pattern string) (Precondition, error) {
	files, err := matchFiles(dir, pattern)
	if err != nil {
		return Precondition{}, err
	}
	if len(files) == 0 {
		return Skip("no files matching `%s` in `%s`", pattern, dir), nil
	}
	return Proceed(files...), nil
}

// RequireFile returns Proceed when filename exists, Skip otherwise
func RequireFile(filename string) Precondition {
	if !fileExists(filename) {
		return Skip("file `%s` not found", filename)
	}
	return Proceed(filename)
}

// CheckPair checks that the second mate of mate1 exists
func CheckPair(mate1, suffix1, suffix2 string) (Sample, Precondition) {
	dir, name := filepath.Split(mate1)
	base := strings.TrimSuffix(name, suffix1)
	mate2 := filepath.Join(dir, base+suffix2)
	sample := Sample{Base: base, Mate1: mate1, Mate2: mate2}
	if !fileExists(mate2) {
		return sample, Skip("mate file `%s` not found, skip sample %s", mate2, base)
	}
	return sample, Proceed(mate1, mate2)
}

// PairSamples finds every `*<suffix1>` file in dir and pairs it with its
// `*<suffix2>` mate. Samples come out in lexical order of the first mate.
func PairSamples(dir, suffix1, suffix2 string) (SampleSet, error) {
	var set SampleSet
	mates, err := matchFiles(dir, "*"+suffix1)
	if err != nil {
		return set, err
	}
	for _, mate1 := range mates {
		sample, pre := CheckPair(mate1, suffix1, suffix2)
		if pre.Skipped() {
			set.Skipped = append(set.Skipped, pre)
			continue
		}
		set.Samples = append(set.Samples, sample)
	}
	return set, nil
}

// Empty tells if no first-mate file was found at all
func (r SampleSet) Empty() bool {
	return len(r.Samples) == 0 && len(r.Skipped) == 0
}
