/*
 *  pipeline_test.go
 *  micos
 *
 *  Created by MICOS-2024 Team on 03/13/24
 *  Copyright © 2024 MICOS-2024 Team. All rights reserved.
 */

package micos_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/micos2024/micos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStages = []string{
	micos.StageQualityControl,
	micos.StageTaxonomicProfiling,
	micos.StageDiversityAnalysis,
	micos.StageFunctionalAnnotation,
	micos.StageSummarizeResults,
}

// fakeTools mimics the files each tool leaves behind
func fakeTools(writeTable bool) func(name string, args []string) error {
	kraken := fakeKraken(writeTable)
	return func(name string, args []string) error {
		switch name {
		case "kneaddata":
			dir, base := argAfter(args, "--output"), argAfter(args, "--output-prefix")
			if err := write(filepath.Join(dir, base+"_paired_1.fastq"), "@r\nACGT\n+\nIIII\n"); err != nil {
				return err
			}
			return write(filepath.Join(dir, base+"_paired_2.fastq"), "@r\nTTTT\n+\nIIII\n")
		case "kraken2", "kraken-biom":
			return kraken(name, args)
		case "ktImportTaxonomy":
			return write(argAfter(args, "-o"), "<html></html>")
		case "qiime":
			for _, flag := range []string{"--output-path", "--o-alpha-diversity", "--o-distance-matrix"} {
				if out := argAfter(args, flag); out != "" {
					return write(out, "qza")
				}
			}
		case "humann":
			return write(filepath.Join(argAfter(args, "--output"), argAfter(args, "--output-basename")+"_genefamilies.tsv"), "")
		}
		return nil
	}
}

func newPipeline(t *testing.T, r *recorder) micos.Pipeline {
	in := t.TempDir()
	rawReads(t, in, "s1_R1.fastq.gz", "s1_R2.fastq.gz")
	return micos.Pipeline{
		Env:         r.env(),
		InputDir:    in,
		ResultsDir:  filepath.Join(t.TempDir(), "results"),
		Threads:     2,
		KneadDataDB: "/db/human",
		Kraken2DB:   "/db/k2",
	}
}

func TestStageOrder(t *testing.T) {
	order, err := micos.StageOrder()
	require.NoError(t, err)
	assert.Equal(t, allStages, order)
}

func TestWriteStageGraph(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, micos.WriteStageGraph(&buf))
	dot := buf.String()
	assert.Contains(t, dot, "digraph")
	for _, stage := range allStages {
		assert.Contains(t, dot, `"`+stage+`"`)
	}
	assert.Contains(t, dot, micos.FeatureTableName)
}

func TestPipelineFullRun(t *testing.T) {
	r := &recorder{}
	r.hook = fakeTools(true)
	p := newPipeline(t, r)

	require.NoError(t, p.Run())
	assert.Equal(t, allStages, p.Completed)
	assert.Equal(t, []string{
		"fastqc", "kneaddata",
		"kraken2", "kraken-biom", "ktImportTaxonomy",
		"qiime", "qiime", "qiime",
		"humann",
	}, r.tools())

	kneaddata := filepath.Join(p.ResultsDir, micos.QualityControlDir, "kneaddata")
	assert.Equal(t, filepath.Join(kneaddata, "s1_paired_1.fastq"), argAfter(r.calls[2].args, "--paired"))
	assert.Equal(t, filepath.Join(p.ResultsDir, micos.TaxonomicProfilingDir, micos.FeatureTableName),
		argAfter(r.calls[5].args, "--input-path"))
	assert.Equal(t, "2", argAfter(r.calls[8].args, "--threads"))

	assert.Equal(t, filepath.Join(p.ResultsDir, micos.SummaryFileName), p.OutSummary)
	data, err := os.ReadFile(p.OutSummary)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Feature Table (BIOM) (1)")
	assert.Contains(t, string(data), "Functional Annotation (HUMAnN) (1)")
}

func TestPipelineHaltsWithoutFeatureTable(t *testing.T) {
	r := &recorder{}
	r.hook = fakeTools(false)
	p := newPipeline(t, r)

	err := p.Run()
	assert.ErrorIs(t, err, micos.ErrMissingArtifact)
	assert.Equal(t, []string{micos.StageQualityControl, micos.StageTaxonomicProfiling}, p.Completed)
	assert.Zero(t, r.count("qiime"))
	assert.Zero(t, r.count("humann"))
	assert.NoFileExists(t, filepath.Join(p.ResultsDir, micos.SummaryFileName))
}

func TestPipelineHaltsOnToolFailure(t *testing.T) {
	r := &recorder{fail: map[string]bool{"kraken2": true}}
	r.hook = fakeTools(true)
	p := newPipeline(t, r)

	err := p.Run()
	assert.ErrorIs(t, err, micos.ErrToolFailed)
	assert.Equal(t, []string{micos.StageQualityControl}, p.Completed)
	assert.Equal(t, []string{"fastqc", "kneaddata", "kraken2"}, r.tools())
}

func TestPipelineDefaultThreads(t *testing.T) {
	r := &recorder{}
	r.hook = fakeTools(true)
	p := newPipeline(t, r)
	p.Threads = 0

	require.NoError(t, p.Run())
	assert.Equal(t, micos.DefaultThreads, p.Threads)
	assert.Equal(t, "16", argAfter(r.calls[0].args, "-t"))
}

func TestPipelineResultsDirWithBracket(t *testing.T) {
	r := &recorder{}
	r.hook = fakeTools(true)
	p := newPipeline(t, r)
	p.ResultsDir = filepath.Join(t.TempDir(), "res[1")

	require.NoError(t, p.Run())
	assert.Equal(t, allStages, p.Completed)
	assert.Equal(t, 1, r.count("kraken2"))
	assert.Equal(t, 1, r.count("humann"))

	data, err := os.ReadFile(p.OutSummary)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Taxonomic Classification (Kraken2) (1)")
}
