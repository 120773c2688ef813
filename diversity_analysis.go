/**
 * Filename: diversity_analysis.go
 * Path: micos
 * Created Date: Tuesday, March 5th 2024, 3:08:12 pm
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"path/filepath"
)

// DiversityAnalyzer imports the feature table into QIIME2 and computes
// Shannon alpha diversity and a Bray-Curtis distance matrix
type DiversityAnalyzer struct {
	Env
	InputBiom string
	OutputDir string
	// Output files
	OutFeatureTable string
	OutAlpha        string
	OutBeta         string
}

// Run is the main function body of diversity analysis
func (r *DiversityAnalyzer) Run() error {
	logger := r.logger()
	logger.Notice("Step 3: diversity analysis")

	if err := MakeDir(r.OutputDir); err != nil {
		return err
	}
	// The pipeline refuses to get here without a table; a standalone run
	// just has nothing to do.
	table := RequireFile(r.InputBiom)
	if table.Skipped() {
		logger.Warningf("Skip diversity analysis: %s", table.Reason)
		return nil
	}

	r.OutFeatureTable = filepath.Join(r.OutputDir, "feature-table.qza")
	r.OutAlpha = filepath.Join(r.OutputDir, "shannon.qza")
	r.OutBeta = filepath.Join(r.OutputDir, "bray-curtis.qza")

	steps := []struct {
		label string
		args  []string
	}{
		{"BIOM import", []string{"tools", "import",
			"--input-path", r.InputBiom,
			"--type", "FeatureTable[Frequency]",
			"--output-path", r.OutFeatureTable}},
		{"alpha diversity (shannon)", []string{"diversity", "alpha",
			"--i-table", r.OutFeatureTable,
			"--p-metric", "shannon",
			"--o-alpha-diversity", r.OutAlpha}},
		{"beta diversity (braycurtis)", []string{"diversity", "beta",
			"--i-table", r.OutFeatureTable,
			"--p-metric", "braycurtis",
			"--o-distance-matrix", r.OutBeta}},
	}
	for _, step := range steps {
		logger.Noticef("QIIME2 %s", step.label)
		if err := r.runner().Run("qiime", step.args...); err != nil {
			logger.Errorf("QIIME2 %s failed: %v", step.label, err)
			logger.Error("Make sure qiime is installed and in PATH")
			return err
		}
	}

	logger.Notice("Success")
	return nil
}
