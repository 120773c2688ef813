/*
 *  samples_test.go
 *  micos
 *
 *  Created by MICOS-2024 Team on 03/11/24
 *  Copyright © 2024 MICOS-2024 Team. All rights reserved.
 */

package micos_test

import (
	"path/filepath"
	"testing"

	"github.com/micos2024/micos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairSamples(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_R1.fastq.gz", "b_R2.fastq.gz", "a_R1.fastq.gz", "a_R2.fastq.gz", "c_R1.fastq.gz"} {
		touch(t, filepath.Join(dir, name), "")
	}

	set, err := micos.PairSamples(dir, micos.RawMate1Suffix, micos.RawMate2Suffix)
	require.NoError(t, err)
	require.Len(t, set.Samples, 2)
	assert.Equal(t, micos.Sample{
		Base:  "a",
		Mate1: filepath.Join(dir, "a_R1.fastq.gz"),
		Mate2: filepath.Join(dir, "a_R2.fastq.gz"),
	}, set.Samples[0])
	assert.Equal(t, "b", set.Samples[1].Base)

	require.Len(t, set.Skipped, 1)
	assert.True(t, set.Skipped[0].Skipped())
	assert.Contains(t, set.Skipped[0].Reason, "c_R2.fastq.gz")
	assert.False(t, set.Empty())
}

func TestPairSamplesEmpty(t *testing.T) {
	set, err := micos.PairSamples(t.TempDir(), micos.PairedMate1Suffix, micos.PairedMate2Suffix)
	require.NoError(t, err)
	assert.True(t, set.Empty())

	set, err = micos.PairSamples(filepath.Join(t.TempDir(), "missing"), micos.PairedMate1Suffix, micos.PairedMate2Suffix)
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestRequireFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "s2.report"), "")
	touch(t, filepath.Join(dir, "s1.report"), "")
	touch(t, filepath.Join(dir, "s1.kraken"), "")

	pre, err := micos.RequireFiles(dir, "*.report")
	require.NoError(t, err)
	assert.False(t, pre.Skipped())
	assert.Equal(t, []string{filepath.Join(dir, "s1.report"), filepath.Join(dir, "s2.report")}, pre.Inputs)

	pre, err = micos.RequireFiles(dir, "*.biom")
	require.NoError(t, err)
	assert.True(t, pre.Skipped())
	assert.Empty(t, pre.Inputs)
	assert.Contains(t, pre.Reason, "*.biom")
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	table := touch(t, filepath.Join(dir, "feature-table.biom"), "")

	assert.Equal(t, []string{table}, micos.RequireFile(table).Inputs)
	assert.True(t, micos.RequireFile(filepath.Join(dir, "missing.biom")).Skipped())
	assert.True(t, micos.RequireFile(dir).Skipped())
}

func TestGlobCharactersInDirectory(t *testing.T) {
	for _, name := range []string{"run[1", "run[1]", "run*", "run?"} {
		dir := filepath.Join(t.TempDir(), name)
		touch(t, filepath.Join(dir, "a_R1.fastq.gz"), "")
		touch(t, filepath.Join(dir, "a_R2.fastq.gz"), "")

		pre, err := micos.RequireFiles(dir, "*.fastq.gz")
		require.NoError(t, err, name)
		assert.Equal(t, []string{filepath.Join(dir, "a_R1.fastq.gz"), filepath.Join(dir, "a_R2.fastq.gz")}, pre.Inputs, name)

		set, err := micos.PairSamples(dir, micos.RawMate1Suffix, micos.RawMate2Suffix)
		require.NoError(t, err, name)
		require.Len(t, set.Samples, 1, name)
		assert.Equal(t, "a", set.Samples[0].Base)
	}
}

func TestRequireFilesBadPattern(t *testing.T) {
	_, err := micos.RequireFiles(t.TempDir(), "[")
	assert.Error(t, err)
}

func TestRequireFilesUnreadableDirectory(t *testing.T) {
	notDir := touch(t, filepath.Join(t.TempDir(), "reads.txt"), "")
	_, err := micos.RequireFiles(notDir, "*.fastq.gz")
	assert.Error(t, err)
}
