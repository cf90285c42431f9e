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
package main

/*
bio-vcf-region restricts a position-sorted single-sample VCF to a set of
target regions.  Records straddling a region boundary are split into an
in-region piece and off-region pieces; off-region output can be dropped
entirely, or kept only for variant calls.
*/

import (
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "filter",
		Short: "Split VCF records at region boundaries and filter off-target output",
		Long: `
Reads a VCF sorted by (CHROM, POS) and writes it back out with every record
that straddles a region boundary cut into pieces.  Each piece after the first
takes its REF base from -ref.  A path of "-" means stdin or stdout; paths
ending in .gz are gzip-read or bgzf-written.`,
		ArgsName: "in.vcf out.vcf",
	}
	opts := filterDefaults()
	cmd.Flags.StringVar(&opts.BedPath, "bed", opts.BedPath, "Input BED path; at most one of -bed and -region may be set.  With neither, every record is off-target")
	cmd.Flags.StringVar(&opts.Region, "region", opts.Region, "Comma-separated regions, each formatted as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	cmd.Flags.BoolVar(&opts.OneBasedBED, "one-based-bed", opts.OneBasedBED, "Treat BED start coordinates as 1-based")
	cmd.Flags.StringVar(&opts.FastaPath, "ref", opts.FastaPath, "Reference FASTA path; a .fai next to it is used when present.  Required when any record must be split")
	cmd.Flags.BoolVar(&opts.ExcludeOffTarget, "exclude-off-target", opts.ExcludeOffTarget, "Drop records and pieces outside the target regions")
	cmd.Flags.BoolVar(&opts.IncludeVariants, "include-variants", opts.IncludeVariants, "With -exclude-off-target, still write off-target records and pieces whose genotype is a variant")
	cmd.Flags.StringVar(&opts.StatsPath, "stats", opts.StatsPath, "If set, write a one-row TSV of record and piece counts to this path")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of bgzf compression goroutines for .gz output; 0 = runtime.NumCPU()")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("filter takes in.vcf out.vcf, but found %v", argv)
		}
		return filter(argv[0], argv[1], opts)
	})
	return cmd
}

func newCmdFaidx() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "faidx",
		Short:    "Write a samtools-compatible .fai index for a FASTA file",
		ArgsName: "in.fa out.fa.fai",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("faidx takes in.fa out.fa.fai, but found %v", argv)
		}
		return faidx(vcontext.Background(), argv[0], argv[1])
	})
	return cmd
}

func main() {
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	root := &cmdline.Command{
		Name:     "bio-vcf-region",
		Short:    "Region-restricted VCF record splitting",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdFilter(),
			newCmdFaidx(),
		},
	}
	env := cmdline.EnvFromOS()
	err := cmdline.ParseAndRun(root, env, os.Args[1:])
	code := cmdline.ExitCode(err, env.Stderr)
	shutdown()
	if code != 0 {
		log.Printf("bio-vcf-region exiting with code %d", code)
	}
	os.Exit(code)
}
