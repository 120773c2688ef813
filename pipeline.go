/**
 * Filename: pipeline.go
 * Path: micos
 * Created Date: Thursday, March 7th 2024, 4:15:02 pm
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"io"
	"path/filepath"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

// Stage names, also used as `run` subcommand names
const (
	StageQualityControl       = "quality-control"
	StageTaxonomicProfiling   = "taxonomic-profiling"
	StageDiversityAnalysis    = "diversity-analysis"
	StageFunctionalAnnotation = "functional-annotation"
	StageSummarizeResults     = "summarize-results"
)

var stageRank = map[string]int{
	StageQualityControl:       0,
	StageTaxonomicProfiling:   1,
	StageDiversityAnalysis:    2,
	StageFunctionalAnnotation: 3,
	StageSummarizeResults:     4,
}

// stageEdge is a dependency between stages. Artifact is empty for edges that
// only fix the execution order.
type stageEdge struct {
	from, to string
	artifact string
}

var stageEdges = []stageEdge{
	{StageQualityControl, StageTaxonomicProfiling, "kneaddata/"},
	{StageTaxonomicProfiling, StageDiversityAnalysis, FeatureTableName},
	{StageQualityControl, StageFunctionalAnnotation, "kneaddata/"},
	{StageDiversityAnalysis, StageFunctionalAnnotation, ""},
	{StageFunctionalAnnotation, StageSummarizeResults, ""},
}

// StageGraph returns the dependency graph of the pipeline stages
func StageGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for name := range stageRank {
		if err := g.AddVertex(name, graph.VertexAttribute("shape", "box")); err != nil {
			return nil, errors.Wrapf(err, "cannot add stage %s", name)
		}
	}
	for _, e := range stageEdges {
		attr := graph.EdgeAttribute("label", e.artifact)
		if e.artifact == "" {
			attr = graph.EdgeAttribute("style", "dashed")
		}
		if err := g.AddEdge(e.from, e.to, attr); err != nil {
			return nil, errors.Wrapf(err, "cannot link %s to %s", e.from, e.to)
		}
	}
	return g, nil
}

// StageOrder returns the stages in execution order
func StageOrder() ([]string, error) {
	g, err := StageGraph()
	if err != nil {
		return nil, err
	}
	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return stageRank[a] < stageRank[b]
	})
	return order, errors.Wrap(err, "cannot order stages")
}

// WriteStageGraph writes the stage graph in Graphviz DOT format
func WriteStageGraph(w io.Writer) error {
	g, err := StageGraph()
	if err != nil {
		return err
	}
	return errors.Wrap(draw.DOT(g, w), "cannot draw stage graph")
}

// Pipeline runs every stage in order, feeding each stage the output of the
// previous one. The first failing stage stops the run.
type Pipeline struct {
	Env
	InputDir    string
	ResultsDir  string
	Threads     int
	KneadDataDB string
	Kraken2DB   string
	Rank        string
	// Output
	OutSummary string
	Completed  []string
}

// Run kicks off the Pipeline
func (r *Pipeline) Run() error {
	logger := r.logger()
	logger.Notice("MICOS full pipeline started")
	if r.Threads <= 0 {
		r.Threads = DefaultThreads
	}
	if err := MakeDir(r.ResultsDir); err != nil {
		return err
	}

	order, err := StageOrder()
	if err != nil {
		return err
	}
	steps := r.steps()
	for _, name := range order {
		banner(logger, name)
		if err := steps[name](); err != nil {
			logger.Errorf("Stage %s failed: %v", name, err)
			return err
		}
		r.Completed = append(r.Completed, name)
	}

	logger.Noticef("Input directory: %s", r.InputDir)
	logger.Noticef("Results directory: %s", r.ResultsDir)
	logger.Noticef("Threads: %d", r.Threads)
	logger.Notice("MICOS full pipeline completed")
	return nil
}

func (r *Pipeline) steps() map[string]func() error {
	qcDir := filepath.Join(r.ResultsDir, QualityControlDir)
	kneaddataDir := filepath.Join(qcDir, "kneaddata")
	taxDir := filepath.Join(r.ResultsDir, TaxonomicProfilingDir)
	r.OutSummary = filepath.Join(r.ResultsDir, SummaryFileName)

	return map[string]func() error{
		StageQualityControl: func() error {
			qc := QualityController{Env: r.Env, InputDir: r.InputDir, OutputDir: qcDir,
				Threads: r.Threads, KneadDataDB: r.KneadDataDB}
			return qc.Run()
		},
		StageTaxonomicProfiling: func() error {
			tp := TaxonomicProfiler{Env: r.Env, InputDir: kneaddataDir, OutputDir: taxDir,
				Threads: r.Threads, Kraken2DB: r.Kraken2DB, Rank: r.Rank}
			return tp.Run()
		},
		StageDiversityAnalysis: func() error {
			table := filepath.Join(taxDir, FeatureTableName)
			if !fileExists(table) {
				r.logger().Errorf("Feature table `%s` not found, cannot run diversity analysis", table)
				return missingArtifact("feature table", table)
			}
			da := DiversityAnalyzer{Env: r.Env, InputBiom: table,
				OutputDir: filepath.Join(r.ResultsDir, DiversityAnalysisDir)}
			return da.Run()
		},
		StageFunctionalAnnotation: func() error {
			fa := FunctionalAnnotator{Env: r.Env, InputDir: kneaddataDir,
				OutputDir: filepath.Join(r.ResultsDir, FunctionalAnnotationDir), Threads: r.Threads}
			return fa.Run()
		},
		StageSummarizeResults: func() error {
			s := Summarizer{Env: r.Env, ResultsDir: r.ResultsDir, OutputFile: r.OutSummary}
			return s.Run()
		},
	}
}
