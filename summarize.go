/**
 * Filename: summarize.go
 * Path: micos
 * Created Date: Thursday, March 7th 2024, 9:50:36 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
)

// NotFoundPlaceholder is shown for a category without any matching file
const NotFoundPlaceholder = "No files found."

// Category groups the glob patterns, relative to the results root, of one
// kind of output
type Category struct {
	Name     string
	Patterns []string
}

// Categories is the fixed list of report sections, in display order
var Categories = []Category{
	{"Quality Control", []string{
		"1_quality_control/fastqc_reports/*.html",
		"1_quality_control/fastqc_reports/*.zip",
		"1_quality_control/kneaddata/*_kneaddata*log*",
		"1_quality_control/kneaddata/*_paired_*.fastq",
	}},
	{"Taxonomic Classification (Kraken2)", []string{
		"2_taxonomic_profiling/*.kraken",
		"2_taxonomic_profiling/*.report",
	}},
	{"Classification Visualization (Krona)", []string{
		"2_taxonomic_profiling/*.krona.html",
	}},
	{"Feature Table (BIOM)", []string{
		"2_taxonomic_profiling/feature-table.biom",
	}},
	{"Diversity Analysis (QIIME2)", []string{
		"3_diversity_analysis/*.qza",
		"3_diversity_analysis/*.qzv",
		"3_diversity_analysis/*.txt",
	}},
	{"Functional Annotation (HUMAnN)", []string{
		"4_functional_annotation/*genefamilies*.tsv*",
		"4_functional_annotation/*pathabundance*.tsv*",
		"4_functional_annotation/*pathcoverage*.tsv*",
		"4_functional_annotation/*.log",
	}},
}

// Section is a rendered category; Files are links relative to the report
type Section struct {
	Name  string
	Files []string
	Count int
}

// Summarizer scans the results tree and writes the HTML index
type Summarizer struct {
	Env
	ResultsDir string
	OutputFile string
	// Now stamps the report; time.Now when nil
	Now func() time.Time
}

type summaryPage struct {
	Title       string
	Generated   string
	ResultsDir  string
	Placeholder string
	Sections    []Section
}

// Run is the main function body of the summary
func (r *Summarizer) Run() error {
	logger := r.logger()
	logger.Notice("Step 5: summarize results")

	if !dirExists(r.ResultsDir) {
		return errors.Errorf("results directory `%s` does not exist", r.ResultsDir)
	}
	sections, err := r.Collect()
	if err != nil {
		return err
	}
	if err := r.render(sections); err != nil {
		return err
	}
	logger.Noticef("Summary report written to `%s`", r.OutputFile)
	return nil
}

// Collect matches every category against the results tree. Matches are
// sorted per pattern; a file matched by two patterns is listed twice.
func (r *Summarizer) Collect() ([]Section, error) {
	root, err := filepath.Abs(r.ResultsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve `%s`", r.ResultsDir)
	}
	out, err := filepath.Abs(r.OutputFile)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve `%s`", r.OutputFile)
	}
	reportDir := filepath.Dir(out)

	sections := make([]Section, 0, len(Categories))
	for _, category := range Categories {
		section := Section{Name: category.Name}
		for _, pattern := range category.Patterns {
			matches, err := matchFiles(root, pattern)
			if err != nil {
				return nil, err
			}
			for _, match := range matches {
				rel, err := filepath.Rel(reportDir, match)
				if err != nil {
					rel = match
				}
				section.Files = append(section.Files, filepath.ToSlash(rel))
			}
		}
		section.Count = len(section.Files)
		sections = append(sections, section)
	}
	return sections, nil
}

func (r *Summarizer) render(sections []Section) error {
	box := packr.NewBox("./templates")
	s, err := box.FindString("summary.html")
	if err != nil {
		return errors.Wrap(err, "cannot load summary template")
	}
	tmpl, err := template.New("summary").Parse(s)
	if err != nil {
		return errors.Wrap(err, "cannot parse summary template")
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	root, _ := filepath.Abs(r.ResultsDir)
	page := summaryPage{
		Title:       "MICOS-2024 Results Summary",
		Generated:   now().Format("2006-01-02 15:04:05"),
		ResultsDir:  root,
		Placeholder: NotFoundPlaceholder,
		Sections:    sections,
	}

	if err := MakeDir(filepath.Dir(r.OutputFile)); err != nil {
		return err
	}
	f, err := os.Create(r.OutputFile)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", r.OutputFile)
	}
	defer f.Close()
	if err := tmpl.Execute(f, page); err != nil {
		return errors.Wrapf(err, "cannot render `%s`", r.OutputFile)
	}
	return f.Close()
}
