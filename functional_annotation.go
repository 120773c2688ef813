/**
 * Filename: functional_annotation.go
 * Path: micos
 * Created Date: Wednesday, March 6th 2024, 10:27:55 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// FunctionalAnnotator profiles gene families and pathways with HUMAnN, one
// run per sample on the concatenation of all its cleaned reads
type FunctionalAnnotator struct {
	Env
	InputDir  string
	OutputDir string
	Threads   int
	// Staging directory for concatenated reads, removed when Run returns
	TempDir string
}

// Run is the main function body of functional annotation
func (r *FunctionalAnnotator) Run() error {
	logger := r.logger()
	logger.Notice("Step 4: functional annotation")

	if err := MakeDir(r.OutputDir); err != nil {
		return err
	}
	paired, err := RequireFiles(r.InputDir, "*"+PairedMate1Suffix)
	if err != nil {
		return err
	}
	if paired.Skipped() {
		logger.Warningf("Skip HUMAnN: %s", paired.Reason)
		return nil
	}

	r.TempDir = filepath.Join(r.OutputDir, "temp_humann_input")
	if err := MakeDir(r.TempDir); err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(r.TempDir); err != nil {
			logger.Warningf("Cannot remove `%s`: %v", r.TempDir, err)
		}
	}()

	for _, mate1 := range paired.Inputs {
		base := strings.TrimSuffix(filepath.Base(mate1), PairedMate1Suffix)
		concatenated := filepath.Join(r.TempDir, base+"_concatenated.fastq.gz")
		logger.Noticef("Concatenate reads of sample %s into `%s`", base, concatenated)
		if err := ConcatenateReads(concatenated, SampleReadFiles(r.InputDir, base)); err != nil {
			return err
		}

		logger.Noticef("Run HUMAnN on sample %s", base)
		err := r.runner().Run("humann",
			"--input", concatenated,
			"--output", r.OutputDir,
			"--threads", strconv.Itoa(r.Threads),
			"--output-basename", base,
		)
		if err != nil {
			logger.Errorf("HUMAnN failed: %v", err)
			logger.Error("Make sure humann is installed and in PATH")
			return err
		}
	}

	logger.Notice("Success")
	return nil
}

// SampleReadFiles lists the four cleaned read files of a sample in the order
// they are concatenated. Some of them may not exist.
func SampleReadFiles(dir, base string) []string {
	return []string{
		filepath.Join(dir, base+PairedMate1Suffix),
		filepath.Join(dir, base+PairedMate2Suffix),
		filepath.Join(dir, base+UnmatchedMate1Suffix),
		filepath.Join(dir, base+UnmatchedMate2Suffix),
	}
}

// ConcatenateReads writes the bytes of every existing source, in order, into
// dst. The output is gzip-compressed when dst ends with .gz.
func ConcatenateReads(dst string, srcs []string) error {
	w, err := xopen.Wopen(dst)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", dst)
	}
	for _, src := range srcs {
		if !fileExists(src) {
			continue
		}
		if err := appendFile(w, src); err != nil {
			w.Close()
			return err
		}
	}
	return errors.Wrapf(w.Close(), "cannot finish `%s`", dst)
}

func appendFile(w io.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "cannot open `%s`", src)
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return errors.Wrapf(err, "cannot copy `%s`", src)
}
