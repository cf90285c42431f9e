// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package vcfregion

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "##fileformat=VCFv4.1\n" +
	"##INFO=<ID=END,Number=1,Type=Integer,Description=\"End position\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878\n"

// Regions [100,110] and [120,120] on chr1, written as 0-based BED.
const testBED = "track name=targets\n" +
	"chr1\t99\t110\n" +
	"chr1\t119\t120\n"

// chr1 is ACGT repeated, so 1-based position p has base "ACGT"[(p-1)%4].
func testFASTA() string {
	seq := strings.Repeat("ACGT", 50)
	var b strings.Builder
	b.WriteString(">chr1 test\n")
	for i := 0; i < len(seq); i += 60 {
		end := i + 60
		if end > len(seq) {
			end = len(seq)
		}
		b.WriteString(seq[i:end])
		b.WriteString("\n")
	}
	return b.String()
}

func testVCF() string {
	return testHeader +
		line("chr1", "95", ".", "G", ".", ".", "PASS", "END=125", "GT:DP", "0/0:30") + "\n" +
		line("chr1", "200", ".", "T", "C", "50", "PASS", "DP=20", "GT:DP", "0/1:20") + "\n"
}

func writeFile(t *testing.T, path, data string) {
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))
}

func readOutput(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	if strings.HasSuffix(path, ".gz") {
		r, err := gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		data, err = ioutil.ReadAll(r)
		require.NoError(t, err)
	}
	return string(data)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	bedPath := filepath.Join(tempDir, "targets.bed")
	faPath := filepath.Join(tempDir, "ref.fa")
	vcfPath := filepath.Join(tempDir, "in.vcf")
	writeFile(t, bedPath, testBED)
	writeFile(t, faPath, testFASTA())
	writeFile(t, vcfPath, testVCF())

	piece := func(pos, ref, end string) string {
		return line("chr1", pos, ".", ref, ".", ".", "PASS", "END="+end, "GT:DP", "0/0:30") + "\n"
	}
	snv := line("chr1", "200", ".", "T", "C", "50", "PASS", "DP=20", "GT:DP", "0/1:20") + "\n"

	tests := []struct {
		name string
		opts Opts
		want string
	}{
		{
			"all",
			Opts{},
			testHeader +
				piece("95", "G", "99") +
				piece("100", "T", "110") +
				piece("111", "G", "119") +
				piece("120", "T", "120") +
				piece("121", "A", "125") +
				snv,
		},
		{
			"on_target",
			Opts{ExcludeOffTarget: true},
			testHeader + piece("100", "T", "110") + piece("120", "T", "120"),
		},
		{
			"on_target_and_variants",
			Opts{ExcludeOffTarget: true, IncludeVariants: true},
			testHeader + piece("100", "T", "110") + piece("120", "T", "120") + snv,
		},
	}
	for _, tt := range tests {
		for _, suffix := range []string{".vcf", ".vcf.gz"} {
			opts := tt.opts
			opts.BedPath = bedPath
			opts.FastaPath = faPath
			opts.StatsPath = filepath.Join(tempDir, tt.name+".stats.tsv")
			opts.Parallelism = 2
			outPath := filepath.Join(tempDir, tt.name+suffix)
			stats, err := Run(ctx, vcfPath, outPath, &opts)
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, readOutput(t, outPath), tt.name+suffix)
			assert.Equal(t, 2, stats.Records)
			assert.Equal(t, 1, stats.SplitRecords)
			assert.Equal(t, strings.Count(tt.want, "\n")-3, stats.Written)

			statsData, err := ioutil.ReadFile(opts.StatsPath)
			require.NoError(t, err)
			rows := strings.Split(strings.TrimSpace(string(statsData)), "\n")
			require.Len(t, rows, 2)
			assert.True(t, strings.HasPrefix(rows[0], "RECORDS\t"))
			assert.True(t, strings.HasPrefix(rows[1], "2\t1\t1\t2\t3\t"))
		}
	}
}

func TestRunGzipInputAndIndexedFASTA(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	faPath := filepath.Join(tempDir, "ref.fa")
	writeFile(t, faPath, testFASTA())
	// 200 bases, 60 per line.
	writeFile(t, faPath+".fai", "chr1\t200\t11\t60\t61\n")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testVCF()))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	vcfPath := filepath.Join(tempDir, "in.vcf.gz")
	writeFile(t, vcfPath, buf.String())

	outPath := filepath.Join(tempDir, "out.vcf")
	opts := Opts{ExcludeOffTarget: true, Region: "chr1:100-110,chr1:120-120", FastaPath: faPath}
	stats, err := Run(ctx, vcfPath, outPath, &opts)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Written)
	assert.Equal(t, testHeader+
		line("chr1", "100", ".", "T", ".", ".", "PASS", "END=110", "GT:DP", "0/0:30")+"\n"+
		line("chr1", "120", ".", "T", ".", ".", "PASS", "END=120", "GT:DP", "0/0:30")+"\n",
		readOutput(t, outPath))
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	bedPath := filepath.Join(tempDir, "targets.bed")
	writeFile(t, bedPath, testBED)
	outPath := filepath.Join(tempDir, "out.vcf")

	// -bed and -region together.
	vcfPath := filepath.Join(tempDir, "in.vcf")
	writeFile(t, vcfPath, testVCF())
	_, err := Run(ctx, vcfPath, outPath, &Opts{BedPath: bedPath, Region: "chr1:1-10"})
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)

	// A split without a reference.
	_, err = Run(ctx, vcfPath, outPath, &Opts{BedPath: bedPath})
	assert.True(t, errors.Is(errors.Precondition, err), "%v", err)

	// Unsorted records.
	unsorted := testHeader +
		line("chr1", "200", ".", "T", "C", "50", "PASS", ".", "GT", "0/1") + "\n" +
		line("chr1", "150", ".", "T", "C", "50", "PASS", ".", "GT", "0/1") + "\n"
	writeFile(t, vcfPath, unsorted)
	_, err = Run(ctx, vcfPath, outPath, &Opts{BedPath: bedPath})
	require.Error(t, err)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
	assert.Contains(t, err.Error(), "line 5")

	// Malformed record.
	writeFile(t, vcfPath, testHeader+line("chr1", "200", ".", "T", "C")+"\n")
	_, err = Run(ctx, vcfPath, outPath, &Opts{})
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}
