/*Package interval holds per-chromosome sets of target regions and the
  forward-only machinery used to classify a stream of position-sorted genomic
  spans against them.
  Regions are stored as closed, 1-based [Start, End] intervals (the VCF
  convention); BED input is converted on load.  Within a chromosome, touching
  and overlapping BED intervals are merged, so the stored intervals are
  strictly ascending and pairwise disjoint.
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM/VCF coordinates are limited to in practice.
*/
package interval
