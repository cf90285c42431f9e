package vcf

import (
	"strconv"
	"strings"
)

// MissingAllele is the allele index reported for a '.' genotype allele.
const MissingAllele = -1

// Genotype is a parsed GT sample value, e.g. "0/1" or "1|1".
type Genotype struct {
	// Alleles holds the allele indices; 0 is REF, MissingAllele is '.'.
	Alleles []int
	Phased  bool
}

// ParseGenotype parses a GT value.  ok is false if gt isn't a well-formed
// genotype.
func ParseGenotype(gt string) (g Genotype, ok bool) {
	if gt == "" {
		return Genotype{}, false
	}
	g.Phased = strings.IndexByte(gt, '|') >= 0
	for _, a := range strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' }) {
		if a == "." {
			g.Alleles = append(g.Alleles, MissingAllele)
			continue
		}
		idx, err := strconv.Atoi(a)
		if err != nil || idx < 0 {
			return Genotype{}, false
		}
		g.Alleles = append(g.Alleles, idx)
	}
	return g, len(g.Alleles) > 0
}

// IsVariant returns true if any called allele is non-reference.
func (g Genotype) IsVariant() bool {
	for _, a := range g.Alleles {
		if a > 0 {
			return true
		}
	}
	return false
}

// SampleValue returns the sample's value for the given FORMAT key.  Trailing
// sample fields may be dropped in VCF, so a key listed in FORMAT can still be
// absent.
func (r Record) SampleValue(key string) (string, bool) {
	format := r.Format()
	sample := r.Sample()
	keyIdx := -1
	for i, k := range strings.Split(format, ":") {
		if k == key {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return "", false
	}
	values := strings.Split(sample, ":")
	if keyIdx >= len(values) {
		return "", false
	}
	return values[keyIdx], true
}

// Genotype returns the sample's GT call.  ok is false when there is no
// parseable GT.
func (r Record) Genotype() (Genotype, bool) {
	gt, ok := r.SampleValue("GT")
	if !ok {
		return Genotype{}, false
	}
	return ParseGenotype(gt)
}

// IsStrictVariant returns true if the record's genotype call differs from the
// reference: ALT must list an allele and GT must contain a non-reference
// allele index.  Records without a usable GT are not variants.
func (r Record) IsStrictVariant() bool {
	if alt := r.Alt(); alt == "." || alt == "" {
		return false
	}
	g, ok := r.Genotype()
	return ok && g.IsVariant()
}
