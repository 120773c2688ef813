/**
 * Filename: abundance.go
 * Path: micos
 * Created Date: Wednesday, March 6th 2024, 4:51:22 pm
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
	"github.com/pkg/errors"
)

// DefaultRank is the Kraken2 rank code kept in the abundance table
const DefaultRank = "S"

// AbundanceTabler reshapes per-sample Kraken2 reports into one taxon table
type AbundanceTabler struct {
	Env
	Reports []string
	Rank    string
	OutFile string
	// OutNpy, when set, also receives the counts as a NumPy array
	OutNpy string
}

// Taxon is a row of the abundance table
type Taxon struct {
	ID   string
	Name string
}

// Abundance holds clade read counts, one row per sample and one column per taxon
type Abundance struct {
	Samples []string
	Taxa    []Taxon
	Counts  *mat64.Dense
}

// ReportEntry is one line of a Kraken2 report
type ReportEntry struct {
	Percent     float64
	CladeReads  int64
	DirectReads int64
	Rank        string
	TaxID       string
	Name        string
}

// Run builds the table and writes it to OutFile
func (r *AbundanceTabler) Run() error {
	logger := r.logger()
	ab, err := r.Build()
	if err != nil {
		return err
	}
	if err := ab.WriteTSV(r.OutFile); err != nil {
		return err
	}
	logger.Noticef("Abundance of %d taxa (rank %s) in %d samples written to `%s`",
		len(ab.Taxa), r.rank(), len(ab.Samples), r.OutFile)

	if r.OutNpy == "" {
		return nil
	}
	if ab.Counts == nil {
		logger.Warningf("No taxa at rank %s, skip `%s`", r.rank(), r.OutNpy)
		return nil
	}
	if err := ab.WriteNpy(r.OutNpy); err != nil {
		return err
	}
	logger.Noticef("Abundance matrix written to `%s`", r.OutNpy)
	return nil
}

func (r *AbundanceTabler) rank() string {
	if r.Rank == "" {
		return DefaultRank
	}
	return r.Rank
}

// Build parses every report and fills the sample x taxon matrix
func (r *AbundanceTabler) Build() (*Abundance, error) {
	reports := append([]string{}, r.Reports...)
	sort.Strings(reports)

	rank := r.rank()
	taxa := map[string]Taxon{}
	perSample := make([]map[string]float64, len(reports))
	ab := &Abundance{}
	for i, report := range reports {
		entries, err := ParseKrakenReport(report)
		if err != nil {
			return nil, err
		}
		counts := map[string]float64{}
		for _, e := range entries {
			if e.Rank != rank {
				continue
			}
			taxa[e.TaxID] = Taxon{ID: e.TaxID, Name: e.Name}
			counts[e.TaxID] += float64(e.CladeReads)
		}
		perSample[i] = counts
		ab.Samples = append(ab.Samples, RemoveExt(filepath.Base(report)))
	}

	if len(taxa) == 0 || len(reports) == 0 {
		return ab, nil
	}

	totals := map[string]float64{}
	for _, counts := range perSample {
		for id, c := range counts {
			totals[id] += c
		}
	}
	for _, taxon := range taxa {
		ab.Taxa = append(ab.Taxa, taxon)
	}
	sort.Slice(ab.Taxa, func(i, j int) bool {
		ti, tj := totals[ab.Taxa[i].ID], totals[ab.Taxa[j].ID]
		if ti != tj {
			return ti > tj
		}
		return ab.Taxa[i].ID < ab.Taxa[j].ID
	})

	ab.Counts = mat64.NewDense(len(reports), len(ab.Taxa), nil)
	for i, counts := range perSample {
		for j, taxon := range ab.Taxa {
			ab.Counts.Set(i, j, counts[taxon.ID])
		}
	}
	return ab, nil
}

// Count returns the clade read count of a taxon in a sample
func (r *Abundance) Count(sample, taxID string) float64 {
	si, ti := -1, -1
	for i, s := range r.Samples {
		if s == sample {
			si = i
		}
	}
	for j, t := range r.Taxa {
		if t.ID == taxID {
			ti = j
		}
	}
	if si < 0 || ti < 0 {
		return 0
	}
	return r.Counts.At(si, ti)
}

// WriteTSV writes one row per taxon and one column per sample
func (r *Abundance) WriteTSV(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", filename)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	_ = w.Write(append([]string{"taxid", "name"}, r.Samples...))
	for j, taxon := range r.Taxa {
		row := []string{taxon.ID, taxon.Name}
		for i := range r.Samples {
			row = append(row, strconv.FormatFloat(r.Counts.At(i, j), 'f', -1, 64))
		}
		_ = w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "cannot write `%s`", filename)
	}
	return f.Close()
}

// WriteNpy writes the counts as a row-major float64 array of shape
// samples x taxa, in the row and column order of Samples and Taxa
func (r *Abundance) WriteNpy(filename string) error {
	if r.Counts == nil {
		return errors.Errorf("no taxa to write to `%s`", filename)
	}
	rows, cols := r.Counts.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, r.Counts.At(i, j))
		}
	}

	w, err := gonpy.NewFileWriter(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", filename)
	}
	w.Shape = []int{rows, cols}
	return errors.Wrapf(w.WriteFloat64(data), "cannot write `%s`", filename)
}

// ParseKrakenReport reads a Kraken2 report. Reports written with
// --report-minimizer-data carry two extra columns before the rank code, so the
// rank, taxid and name are taken from the end of the line.
func ParseKrakenReport(filename string) ([]ReportEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open report `%s`", filename)
	}
	defer f.Close()

	var entries []ReportEntry
	scanner := bufio.NewScanner(f)
	for lineno := 1; scanner.Scan(); lineno++ {
		row := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(row) == "" || row[0] == '#' {
			continue
		}
		words := strings.Split(row, "\t")
		n := len(words)
		if n < 6 {
			return nil, errors.Errorf("%s:%d: expected at least 6 columns, got %d", filename, lineno, n)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(words[0]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad percentage", filename, lineno)
		}
		clade, err := strconv.ParseInt(strings.TrimSpace(words[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad clade read count", filename, lineno)
		}
		direct, err := strconv.ParseInt(strings.TrimSpace(words[2]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad direct read count", filename, lineno)
		}
		entries = append(entries, ReportEntry{
			Percent:     pct,
			CladeReads:  clade,
			DirectReads: direct,
			Rank:        strings.TrimSpace(words[n-3]),
			TaxID:       strings.TrimSpace(words[n-2]),
			Name:        strings.TrimSpace(words[n-1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot read report `%s`", filename)
	}
	return entries, nil
}
