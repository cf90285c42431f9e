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

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/biovcf/encoding/fasta"
	"github.com/grailbio/biovcf/vcfregion"
)

func filterDefaults() *vcfregion.Opts {
	opts := vcfregion.DefaultOpts
	return &opts
}

func filter(inPath, outPath string, opts *vcfregion.Opts) error {
	if opts.IncludeVariants && !opts.ExcludeOffTarget {
		log.Printf("-include-variants has no effect without -exclude-off-target")
	}
	_, err := vcfregion.Run(vcontext.Background(), inPath, outPath, opts)
	return err
}

func faidx(ctx context.Context, inPath, outPath string) (err error) {
	in, err := file.Open(ctx, inPath)
	if err != nil {
		return errors.E(err, "faidx: couldn't open", inPath)
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, outPath)
	if err != nil {
		return errors.E(err, "faidx: couldn't create", outPath)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = fasta.GenerateIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		return errors.E(err, "faidx:", inPath)
	}
	log.Printf("faidx: wrote %s", outPath)
	return nil
}
