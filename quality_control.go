/**
 * Filename: quality_control.go
 * Path: micos
 * Created Date: Monday, March 4th 2024, 2:14:08 pm
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"path/filepath"
	"strconv"
)

// QualityController runs FastQC over the raw reads and cleans each sample
// with KneadData
type QualityController struct {
	Env
	InputDir    string
	OutputDir   string
	Threads     int
	KneadDataDB string
	// Output directories
	OutFastQCDir    string
	OutKneadDataDir string
}

// Run is the main function body of quality control
func (r *QualityController) Run() error {
	logger := r.logger()
	logger.Notice("Step 1: quality control")

	r.OutFastQCDir = filepath.Join(r.OutputDir, "fastqc_reports")
	r.OutKneadDataDir = filepath.Join(r.OutputDir, "kneaddata")
	for _, dir := range []string{r.OutFastQCDir, r.OutKneadDataDir} {
		if err := MakeDir(dir); err != nil {
			return err
		}
	}

	reads, err := RequireFiles(r.InputDir, "*.fastq.gz")
	if err != nil {
		return err
	}
	if reads.Skipped() {
		logger.Warningf("Nothing to do for quality control: %s", reads.Reason)
		return nil
	}

	if err := r.runFastQC(reads.Inputs); err != nil {
		return err
	}
	if err := r.runKneadData(); err != nil {
		return err
	}

	logger.Notice("Success")
	return nil
}

// runFastQC writes one report per read file, all in a single invocation
func (r *QualityController) runFastQC(files []string) error {
	logger := r.logger()
	logger.Noticef("Run FastQC on %d files", len(files))
	args := append([]string{}, files...)
	args = append(args, "-o", r.OutFastQCDir, "-t", strconv.Itoa(r.Threads))
	if err := r.runner().Run("fastqc", args...); err != nil {
		logger.Errorf("FastQC failed: %v", err)
		logger.Error("Make sure fastqc is installed and in PATH")
		return err
	}
	return nil
}

// runKneadData cleans every sample that has both raw mates
func (r *QualityController) runKneadData() error {
	logger := r.logger()
	set, err := PairSamples(r.InputDir, RawMate1Suffix, RawMate2Suffix)
	if err != nil {
		return err
	}
	if set.Empty() {
		logger.Warningf("No *%s files in `%s`, skip KneadData", RawMate1Suffix, r.InputDir)
		return nil
	}
	for _, skipped := range set.Skipped {
		logger.Warning(skipped.Reason)
	}

	for _, sample := range set.Samples {
		logger.Noticef("Run KneadData on sample %s", sample.Base)
		err := r.runner().Run("kneaddata",
			"--input", sample.Mate1,
			"--input", sample.Mate2,
			"--output", r.OutKneadDataDir,
			"--reference-db", r.KneadDataDB,
			"--threads", strconv.Itoa(r.Threads),
			"--output-prefix", sample.Base,
		)
		if err != nil {
			logger.Errorf("KneadData failed on sample %s: %v", sample.Base, err)
			logger.Error("Make sure kneaddata is installed and in PATH, and the database path is correct")
			return err
		}
	}
	return nil
}
