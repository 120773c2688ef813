/**
 * Filename: commands.go
 * Path: micos
 * Created Date: Friday, March 8th 2024, 11:48:09 am
 * Author: MICOS-2024 Team
 *
 * Copyright (c) 2024 MICOS-2024 Team
 */

package micos

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

// globalOptions are the root flags shared by every command
type globalOptions struct {
	verbose    bool
	logFile    string
	configFile string
	closer     io.Closer
}

// setup applies config.yaml defaults, then installs the log backends
func (g *globalOptions) setup(cmd *cobra.Command) error {
	settings, loadErr := LoadSettings(g.configFile)
	if err := settings.ApplyTo(cmd.Flags()); err != nil {
		return err
	}
	closer, err := SetupLogging(LogOptions{Verbose: g.verbose, LogFile: g.logFile})
	g.closer = closer
	if err != nil {
		return err
	}
	if loadErr != nil {
		log.Warningf("Ignoring config: %v", loadErr)
	}
	return nil
}

func (g *globalOptions) close() {
	if g.closer != nil {
		_ = g.closer.Close()
		g.closer = nil
	}
}

// Execute runs the command line with os.Args
func Execute() error {
	return ExecuteArgs(os.Args[1:], Env{}, os.Stderr)
}

// ExecuteArgs runs the command line with the given arguments. Any failure is
// printed once, in red, on stderr.
func ExecuteArgs(args []string, env Env, stderr io.Writer) error {
	root, g := newRootCommand(env)
	defer g.close()
	root.SetArgs(args)
	root.SetErr(stderr)
	if _, err := root.ExecuteC(); err != nil {
		fmt.Fprintln(stderr, failureStyle.Render("Error: "+err.Error()))
		var toolErr *ToolError
		if errors.As(err, &toolErr) && errors.Is(err, ErrToolMissing) {
			fmt.Fprintf(stderr, "Verify that %s is installed and on PATH\n", toolErr.Tool())
		}
		return err
	}
	return nil
}

// NewRootCommand builds the command tree; stages run through env
func NewRootCommand(env Env) *cobra.Command {
	root, _ := newRootCommand(env)
	return root
}

func newRootCommand(env Env) (*cobra.Command, *globalOptions) {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:     "micos",
		Short:   "MICOS-2024 metagenomics analysis pipeline",
		Version: Version,
		Long: `MICOS-2024 chains FastQC, KneadData, Kraken2, kraken-biom, Krona, QIIME2
and HUMAnN into one metagenomics workflow and summarizes the results in HTML.

Flag defaults may be given in config.yaml in the working directory, e.g.

    threads: 32
    kneaddata_db: /db/kneaddata
    kraken2_db: /db/kraken2
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			g.close()
		},
	}
	flags := root.PersistentFlags()
	flags.BoolVar(&g.verbose, "verbose", false, "Enable DEBUG level logging")
	flags.StringVar(&g.logFile, "log-file", "", "Also write the log to this file")
	flags.StringVar(&g.configFile, "config", DefaultConfigFile, "Settings file supplying flag defaults")

	root.AddCommand(
		newFullRunCommand(env),
		newRunCommand(env),
		newGraphCommand(),
	)
	return root, g
}

func newFullRunCommand(env Env) *cobra.Command {
	p := Pipeline{}
	cmd := &cobra.Command{
		Use:   "full-run",
		Short: "Run quality control, profiling, diversity, annotation and summary",
		Long: `Pipeline:
A convenience driver function. Chain the following steps sequentially.

- quality-control
- taxonomic-profiling
- diversity-analysis
- functional-annotation
- summarize-results

Results go to numbered subdirectories of --results-dir, and the summary to
micos_summary_report.html at its root.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.KneadDataDB == "" {
				return errors.New("--kneaddata-db must be given on the command line or in config.yaml")
			}
			if p.Kraken2DB == "" {
				return errors.New("--kraken2-db must be given on the command line or in config.yaml")
			}
			if err := checkPaths(p.InputDir, p.KneadDataDB, p.Kraken2DB); err != nil {
				return err
			}
			p.Env = env
			return errors.WithMessage(p.Run(), "full pipeline failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.InputDir, "input-dir", "", "Directory of raw *_R1/_R2.fastq.gz files")
	f.StringVar(&p.ResultsDir, "results-dir", "", "Root directory of all results")
	f.IntVar(&p.Threads, "threads", DefaultThreads, "Number of threads given to each tool")
	f.StringVar(&p.KneadDataDB, "kneaddata-db", "", "KneadData reference database")
	f.StringVar(&p.Kraken2DB, "kraken2-db", "", "Kraken2 database")
	f.StringVar(&p.Rank, "rank", DefaultRank, "Kraken2 rank code kept in taxa-abundance.tsv")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("results-dir")
	return cmd
}

func newRunCommand(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single analysis module",
	}
	cmd.AddCommand(
		newQualityControlCommand(env),
		newTaxonomicProfilingCommand(env),
		newDiversityAnalysisCommand(env),
		newFunctionalAnnotationCommand(env),
		newSummarizeCommand(env),
		newReadStatsCommand(env),
		newAbundanceTableCommand(env),
	)
	return cmd
}

func newQualityControlCommand(env Env) *cobra.Command {
	qc := QualityController{}
	cmd := &cobra.Command{
		Use:   StageQualityControl,
		Short: "Run quality control (FastQC + KneadData)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(qc.InputDir, qc.KneadDataDB); err != nil {
				return err
			}
			qc.Env = env
			return errors.WithMessage(qc.Run(), "quality control failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&qc.InputDir, "input-dir", "", "Directory of *.fastq.gz files")
	f.StringVar(&qc.OutputDir, "output-dir", "", "Directory for the QC results")
	f.IntVar(&qc.Threads, "threads", DefaultThreads, "Number of threads")
	f.StringVar(&qc.KneadDataDB, "kneaddata-db", "", "KneadData reference database")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-dir")
	_ = cmd.MarkFlagRequired("kneaddata-db")
	return cmd
}

func newTaxonomicProfilingCommand(env Env) *cobra.Command {
	tp := TaxonomicProfiler{}
	cmd := &cobra.Command{
		Use:   StageTaxonomicProfiling,
		Short: "Run taxonomic profiling (Kraken2 + kraken-biom + Krona)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(tp.InputDir, tp.Kraken2DB); err != nil {
				return err
			}
			tp.Env = env
			return errors.WithMessage(tp.Run(), "taxonomic profiling failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&tp.InputDir, "input-dir", "", "Directory of KneadData cleaned reads")
	f.StringVar(&tp.OutputDir, "output-dir", "", "Directory for the classification results")
	f.IntVar(&tp.Threads, "threads", DefaultThreads, "Number of threads")
	f.StringVar(&tp.Kraken2DB, "kraken2-db", "", "Kraken2 database")
	f.StringVar(&tp.Rank, "rank", DefaultRank, "Kraken2 rank code kept in taxa-abundance.tsv")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-dir")
	_ = cmd.MarkFlagRequired("kraken2-db")
	return cmd
}

func newDiversityAnalysisCommand(env Env) *cobra.Command {
	da := DiversityAnalyzer{}
	cmd := &cobra.Command{
		Use:   StageDiversityAnalysis,
		Short: "Run diversity analysis (QIIME2)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(da.InputBiom); err != nil {
				return err
			}
			da.Env = env
			return errors.WithMessage(da.Run(), "diversity analysis failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&da.InputBiom, "input-biom", "", "BIOM feature table")
	f.StringVar(&da.OutputDir, "output-dir", "", "Directory for the diversity results")
	_ = cmd.MarkFlagRequired("input-biom")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

func newFunctionalAnnotationCommand(env Env) *cobra.Command {
	fa := FunctionalAnnotator{}
	cmd := &cobra.Command{
		Use:   StageFunctionalAnnotation,
		Short: "Run functional annotation (HUMAnN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(fa.InputDir); err != nil {
				return err
			}
			fa.Env = env
			return errors.WithMessage(fa.Run(), "functional annotation failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&fa.InputDir, "input-dir", "", "Directory of KneadData cleaned reads")
	f.StringVar(&fa.OutputDir, "output-dir", "", "Directory for the HUMAnN results")
	f.IntVar(&fa.Threads, "threads", DefaultThreads, "Number of threads")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

func newSummarizeCommand(env Env) *cobra.Command {
	s := Summarizer{}
	cmd := &cobra.Command{
		Use:   StageSummarizeResults,
		Short: "Summarize all results into an HTML report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(s.ResultsDir); err != nil {
				return err
			}
			s.Env = env
			return errors.WithMessage(s.Run(), "results summary failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&s.ResultsDir, "results-dir", "", "Root directory of all results")
	f.StringVar(&s.OutputFile, "output-file", "", "HTML report to write")
	_ = cmd.MarkFlagRequired("results-dir")
	_ = cmd.MarkFlagRequired("output-file")
	return cmd
}

func newReadStatsCommand(env Env) *cobra.Command {
	rs := ReadStatter{}
	cmd := &cobra.Command{
		Use:   "read-stats",
		Short: "Tabulate read counts, GC, N content and mean quality per FASTQ file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(rs.InputDir); err != nil {
				return err
			}
			rs.Env = env
			return errors.WithMessage(rs.Run(), "read statistics failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&rs.InputDir, "input-dir", "", "Directory of FASTQ files")
	f.StringVar(&rs.OutFile, "output-file", "", "TSV file to write")
	f.IntVar(&rs.Workers, "workers", DefaultStatWorkers, "Number of files read in parallel")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-file")
	return cmd
}

func newAbundanceTableCommand(env Env) *cobra.Command {
	var inputDir string
	at := AbundanceTabler{}
	cmd := &cobra.Command{
		Use:   "abundance-table",
		Short: "Merge Kraken2 reports into a taxon x sample read count table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPaths(inputDir); err != nil {
				return err
			}
			reports, err := RequireFiles(inputDir, "*.report")
			if err != nil {
				return err
			}
			if reports.Skipped() {
				return errors.Errorf("no Kraken2 reports: %s", reports.Reason)
			}
			at.Env = env
			at.Reports = reports.Inputs
			return errors.WithMessage(at.Run(), "abundance table failed")
		},
	}
	f := cmd.Flags()
	f.StringVar(&inputDir, "input-dir", "", "Directory of Kraken2 *.report files")
	f.StringVar(&at.OutFile, "output-file", "", "TSV file to write")
	f.StringVar(&at.Rank, "rank", DefaultRank, "Kraken2 rank code to keep (D, P, C, O, F, G, S)")
	f.StringVar(&at.OutNpy, "npy-file", "", "Also write the sample x taxon counts as a NumPy .npy array")
	_ = cmd.MarkFlagRequired("input-dir")
	_ = cmd.MarkFlagRequired("output-file")
	return cmd
}

func newGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the stage dependency graph in DOT format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return WriteStageGraph(cmd.OutOrStdout())
		},
	}
}

// checkPaths fails on the first path that does not exist
func checkPaths(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return errors.Errorf("path `%s` does not exist", p)
		}
	}
	return nil
}
