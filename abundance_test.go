/*
 *  abundance_test.go
 *  micos
 *
 *  Created by MICOS-2024 Team on 03/12/24
 *  Copyright © 2024 MICOS-2024 Team. All rights reserved.
 */

package micos_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kshedden/gonpy"
	"github.com/micos2024/micos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKrakenReport(t *testing.T) {
	report := touch(t, filepath.Join(t.TempDir(), "s.report"), sampleReport+"\n")

	entries, err := micos.ParseKrakenReport(report)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, micos.ReportEntry{
		Percent:     50,
		CladeReads:  5,
		DirectReads: 5,
		Rank:        "S",
		TaxID:       "562",
		Name:        "Escherichia coli",
	}, entries[1])
}

func TestParseKrakenReportMinimizerColumns(t *testing.T) {
	report := touch(t, filepath.Join(t.TempDir(), "s.report"),
		" 12.50\t25\t3\t1200\t340\tG\t561\t  Escherichia\n")

	entries, err := micos.ParseKrakenReport(report)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "G", entries[0].Rank)
	assert.Equal(t, "561", entries[0].TaxID)
	assert.Equal(t, int64(25), entries[0].CladeReads)
}

func TestParseKrakenReportBadLine(t *testing.T) {
	report := touch(t, filepath.Join(t.TempDir(), "s.report"),
		"1.0\t1\t1\tS\t2\tx\nnot a report line\n")

	_, err := micos.ParseKrakenReport(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s.report:2")
}

func TestAbundanceTable(t *testing.T) {
	dir := t.TempDir()
	s1 := touch(t, filepath.Join(dir, "s1.report"),
		"100.00\t12\t0\tG\t561\tEscherichia\n"+
			"50.00\t10\t10\tS\t562\tEscherichia coli\n"+
			"25.00\t5\t5\tS\t1280\tStaphylococcus aureus\n")
	s2 := touch(t, filepath.Join(dir, "s2.report"),
		"10.00\t3\t3\tS\t562\tEscherichia coli\n"+
			"90.00\t20\t20\tS\t1280\tStaphylococcus aureus\n")
	out := filepath.Join(dir, "taxa-abundance.tsv")

	tabler := micos.AbundanceTabler{Reports: []string{s2, s1}, OutFile: out}
	ab, err := tabler.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ab.Samples)
	assert.Equal(t, []micos.Taxon{{ID: "1280", Name: "Staphylococcus aureus"}, {ID: "562", Name: "Escherichia coli"}}, ab.Taxa)
	assert.Equal(t, 10.0, ab.Count("s1", "562"))
	assert.Equal(t, 20.0, ab.Count("s2", "1280"))
	assert.Equal(t, 0.0, ab.Count("s3", "562"))

	require.NoError(t, tabler.Run())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "taxid\tname\ts1\ts2\n"+
		"1280\tStaphylococcus aureus\t5\t20\n"+
		"562\tEscherichia coli\t10\t3\n", string(data))
}

func TestAbundanceTableOtherRank(t *testing.T) {
	report := touch(t, filepath.Join(t.TempDir(), "s1.report"), sampleReport)

	tabler := micos.AbundanceTabler{Reports: []string{report}, Rank: "G"}
	ab, err := tabler.Build()
	require.NoError(t, err)
	assert.Equal(t, []micos.Taxon{{ID: "561", Name: "Escherichia"}}, ab.Taxa)
	assert.Equal(t, 6.0, ab.Count("s1", "561"))
}

func TestAbundanceTableNoTaxaAtRank(t *testing.T) {
	dir := t.TempDir()
	report := touch(t, filepath.Join(dir, "s1.report"), sampleReport)
	out := filepath.Join(dir, "out.tsv")

	tabler := micos.AbundanceTabler{Reports: []string{report}, Rank: "P", OutFile: out}
	require.NoError(t, tabler.Run())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "taxid\tname\ts1\n", string(data))
}

func TestAbundanceNpy(t *testing.T) {
	dir := t.TempDir()
	s1 := touch(t, filepath.Join(dir, "s1.report"),
		"50.00\t10\t10\tS\t562\tEscherichia coli\n25.00\t5\t5\tS\t1280\tStaphylococcus aureus\n")
	s2 := touch(t, filepath.Join(dir, "s2.report"),
		"90.00\t20\t20\tS\t1280\tStaphylococcus aureus\n")
	npy := filepath.Join(dir, "taxa-abundance.npy")

	tabler := micos.AbundanceTabler{Reports: []string{s1, s2}, OutFile: filepath.Join(dir, "t.tsv"), OutNpy: npy}
	require.NoError(t, tabler.Run())

	r, err := gonpy.NewFileReader(npy)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, r.Shape)
	data, err := r.GetFloat64()
	require.NoError(t, err)
	// rows s1, s2; columns 1280 (25 reads), 562 (10 reads)
	assert.Equal(t, []float64{5, 10, 20, 0}, data)
}

func TestAbundanceNpyWithoutTaxa(t *testing.T) {
	dir := t.TempDir()
	report := touch(t, filepath.Join(dir, "s1.report"), sampleReport)
	npy := filepath.Join(dir, "taxa-abundance.npy")

	tabler := micos.AbundanceTabler{Reports: []string{report}, Rank: "P", OutFile: filepath.Join(dir, "t.tsv"), OutNpy: npy}
	require.NoError(t, tabler.Run())
	assert.NoFileExists(t, npy)

	ab, err := tabler.Build()
	require.NoError(t, err)
	assert.Error(t, ab.WriteNpy(npy))
}
