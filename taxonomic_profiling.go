/**
 * Filename: taxonomic_profiling.go
 * Path: micos
 * Created Date: Tuesday, March 5th 2024, 9:33:41 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"path/filepath"
	"strconv"
)

// TaxonomicProfiler classifies cleaned reads with Kraken2, merges the reports
// into a BIOM feature table and renders one Krona chart per report
type TaxonomicProfiler struct {
	Env
	InputDir  string
	OutputDir string
	Threads   int
	Kraken2DB string
	Rank      string
	// Output files
	OutFeatureTable string
	OutAbundance    string
	OutAbundanceNpy string
	OutReports      []string
}

// Run is the main function body of taxonomic profiling
func (r *TaxonomicProfiler) Run() error {
	logger := r.logger()
	logger.Notice("Step 2: taxonomic profiling")

	if err := MakeDir(r.OutputDir); err != nil {
		return err
	}
	r.OutFeatureTable = filepath.Join(r.OutputDir, FeatureTableName)
	r.OutAbundance = filepath.Join(r.OutputDir, "taxa-abundance.tsv")
	r.OutAbundanceNpy = filepath.Join(r.OutputDir, "taxa-abundance.npy")

	if err := r.runKraken2(); err != nil {
		return err
	}

	reports, err := RequireFiles(r.OutputDir, "*.report")
	if err != nil {
		return err
	}
	r.OutReports = reports.Inputs
	if err := r.runKrakenBiom(reports); err != nil {
		return err
	}
	if err := r.runKrona(reports); err != nil {
		return err
	}
	if !reports.Skipped() {
		// The feature table is already written; a bad report only costs the
		// abundance table
		tabler := AbundanceTabler{Env: r.Env, Reports: reports.Inputs, Rank: r.Rank,
			OutFile: r.OutAbundance, OutNpy: r.OutAbundanceNpy}
		if err := tabler.Run(); err != nil {
			logger.Warningf("Skip abundance table: %v", err)
		}
	}

	logger.Notice("Success")
	return nil
}

// runKraken2 classifies every sample that has both cleaned mates
func (r *TaxonomicProfiler) runKraken2() error {
	logger := r.logger()
	set, err := PairSamples(r.InputDir, PairedMate1Suffix, PairedMate2Suffix)
	if err != nil {
		return err
	}
	if set.Empty() {
		logger.Warningf("No *%s files in `%s`, skip Kraken2", PairedMate1Suffix, r.InputDir)
		return nil
	}
	for _, skipped := range set.Skipped {
		logger.Warning(skipped.Reason)
	}

	for _, sample := range set.Samples {
		logger.Noticef("Run Kraken2 on sample %s", sample.Base)
		err := r.runner().Run("kraken2",
			"--db", r.Kraken2DB,
			"--paired", sample.Mate1, sample.Mate2,
			"--output", filepath.Join(r.OutputDir, sample.Base+".kraken"),
			"--report", filepath.Join(r.OutputDir, sample.Base+".report"),
			"--threads", strconv.Itoa(r.Threads),
		)
		if err != nil {
			logger.Errorf("Kraken2 failed on sample %s: %v", sample.Base, err)
			logger.Error("Make sure kraken2 is installed and in PATH, and the database path is correct")
			return err
		}
	}
	return nil
}

// runKrakenBiom converts all reports at once into the feature table
func (r *TaxonomicProfiler) runKrakenBiom(reports Precondition) error {
	logger := r.logger()
	if reports.Skipped() {
		logger.Warningf("No Kraken2 reports, skip BIOM table: %s", reports.Reason)
		return nil
	}
	logger.Noticef("Merge %d reports into `%s`", len(reports.Inputs), r.OutFeatureTable)
	args := append([]string{}, reports.Inputs...)
	args = append(args, "-o", r.OutFeatureTable)
	return r.runner().Run("kraken-biom", args...)
}

// runKrona renders one interactive chart per report
func (r *TaxonomicProfiler) runKrona(reports Precondition) error {
	logger := r.logger()
	if reports.Skipped() {
		logger.Warningf("No Kraken2 reports, skip Krona charts: %s", reports.Reason)
		return nil
	}
	for _, report := range reports.Inputs {
		chart := RemoveExt(report) + ".krona.html"
		err := r.runner().Run("ktImportTaxonomy",
			"-q", "2",
			"-t", "3",
			report,
			"-o", chart,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
