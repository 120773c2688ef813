/**
 * Filename: read_stats.go
 * Path: micos
 * Created Date: Friday, March 8th 2024, 2:37:19 pm
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"golang.org/x/sync/errgroup"
)

// DefaultStatWorkers is the size of the read statistics worker pool
const DefaultStatWorkers = 4

// PhredOffset is the Sanger/Illumina 1.8+ quality encoding offset
const PhredOffset = 33

var readFilePatterns = []string{"*.fastq", "*.fastq.gz", "*.fq", "*.fq.gz"}

// ReadStats summarizes one FASTQ file
type ReadStats struct {
	File      string
	Reads     int64
	Bases     int64
	GC        int64
	N         int64
	QualSum   int64
	QualCount int64
}

// MeanLength is the average read length
func (r ReadStats) MeanLength() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Bases) / float64(r.Reads)
}

// GCPercent is the share of G and C among all bases, in percent
func (r ReadStats) GCPercent() float64 {
	if r.Bases == 0 {
		return 0
	}
	return float64(r.GC) * 100. / float64(r.Bases)
}

// NFraction is the share of ambiguous bases
func (r ReadStats) NFraction() float64 {
	if r.Bases == 0 {
		return 0
	}
	return float64(r.N) / float64(r.Bases)
}

// MeanQuality is the average Phred score over all quality values
func (r ReadStats) MeanQuality() float64 {
	if r.QualCount == 0 {
		return 0
	}
	return float64(r.QualSum) / float64(r.QualCount)
}

// ReadStatter gathers per-file read statistics with a fixed pool of workers
type ReadStatter struct {
	Env
	InputDir string
	// Files overrides the directory scan when set
	Files   []string
	Workers int
	OutFile string
	// Output
	Stats []ReadStats
}

// Run collects the statistics and writes them to OutFile
func (r *ReadStatter) Run() error {
	logger := r.logger()
	files := r.Files
	if len(files) == 0 {
		for _, pattern := range readFilePatterns {
			matches, err := matchFiles(r.InputDir, pattern)
			if err != nil {
				return err
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		logger.Warningf("No read files in `%s`, skip read statistics", r.InputDir)
		return nil
	}

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultStatWorkers
	}
	logger.Noticef("Gather statistics of %d files with %d workers", len(files), workers)

	seq.ValidateSeq = false
	stats := make([]ReadStats, len(files))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			s, err := CountReads(file)
			if err != nil {
				return err
			}
			stats[i] = s
			logger.Infof("Done `%s`: %d reads", file, s.Reads)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(stats, func(i, j int) bool {
		return filepath.Base(stats[i].File) < filepath.Base(stats[j].File)
	})
	r.Stats = stats
	if r.OutFile == "" {
		return nil
	}
	if err := writeReadStats(r.OutFile, stats); err != nil {
		return err
	}
	logger.Noticef("Read statistics written to `%s`", r.OutFile)
	return nil
}

// CountReads parses a FASTQ (optionally gzipped) file and tallies its reads
func CountReads(filename string) (ReadStats, error) {
	stats := ReadStats{File: filename}
	reader, err := fastx.NewDefaultReader(filename)
	if err != nil {
		return stats, errors.Wrapf(err, "cannot read `%s`", filename)
	}
	defer reader.Close()

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, errors.Wrapf(err, "cannot parse `%s`", filename)
		}
		s := rec.Seq.Seq
		stats.Reads++
		stats.Bases += int64(len(s))
		stats.GC += int64(bytes.Count(s, []byte{'G'}) + bytes.Count(s, []byte{'C'}) +
			bytes.Count(s, []byte{'g'}) + bytes.Count(s, []byte{'c'}))
		stats.N += int64(bytes.Count(s, []byte{'N'}) + bytes.Count(s, []byte{'n'}))
		for _, q := range rec.Seq.Qual {
			stats.QualSum += int64(q) - PhredOffset
		}
		stats.QualCount += int64(len(rec.Seq.Qual))
	}
	return stats, nil
}

func writeReadStats(filename string, stats []ReadStats) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create `%s`", filename)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	_ = w.Write([]string{"file", "reads", "bases", "mean_length", "gc_percent", "n_fraction", "mean_quality"})
	for _, s := range stats {
		_ = w.Write([]string{
			filepath.Base(s.File),
			fmt.Sprintf("%d", s.Reads),
			fmt.Sprintf("%d", s.Bases),
			fmt.Sprintf("%.2f", s.MeanLength()),
			fmt.Sprintf("%.2f", s.GCPercent()),
			fmt.Sprintf("%.4f", s.NFraction()),
			fmt.Sprintf("%.2f", s.MeanQuality()),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "cannot write `%s`", filename)
	}
	return f.Close()
}
