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
	"github.com/grailbio/biovcf/encoding/vcf"
)

// Opts controls which record pieces are written, and (for Run) where the
// regions, reference and stats live.
type Opts struct {
	// ExcludeOffTarget drops records, and pieces of split records, which lie
	// outside the target regions.  In-region pieces are always written.
	ExcludeOffTarget bool
	// IncludeVariants keeps off-target records and pieces anyway when their
	// genotype is a strict variant.  Only meaningful with ExcludeOffTarget.
	IncludeVariants bool

	// Commandline options.
	BedPath     string
	Region      string
	OneBasedBED bool
	FastaPath   string
	StatsPath   string
	// Parallelism is the number of bgzf compression goroutines used when the
	// output path ends in .gz; 0 = runtime.NumCPU().
	Parallelism int
}

// DefaultOpts passes every record through.
var DefaultOpts = Opts{
	ExcludeOffTarget: false,
	IncludeVariants:  false,
	Parallelism:      0,
}

// keepOffRegion returns whether an off-region record, or an off-region piece
// of a split record, is written.  Whole records and split tails share this
// rule.
func (o *Opts) keepOffRegion(rec vcf.Record) bool {
	if !o.ExcludeOffTarget {
		return true
	}
	return o.IncludeVariants && rec.IsStrictVariant()
}
