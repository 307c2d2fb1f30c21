// Command kestrel runs the k-mer-based variant caller over one reference
// region: count a sample's k-mers against a reference, find active
// (candidate-variant) regions, build and align haplotypes for each, and
// emit the resulting variants as VCF.
//
// Grounded on cmd/bio-fusion/main.go's driver shape: flag registration per
// Opts field, grail.Init()/vcontext.Background() process setup,
// file.Open/file.Create for I/O, log.Panic/log.Fatal on unrecoverable
// error, per SPEC_FULL.md section 6.4.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/kestrel/active"
	"github.com/grailbio/kestrel/builder"
	"github.com/grailbio/kestrel/countmap"
	"github.com/grailbio/kestrel/encoding/fasta"
	"github.com/grailbio/kestrel/filterpipe"
	"github.com/grailbio/kestrel/haplotype"
	"github.com/grailbio/kestrel/kestrelcfg"
	"github.com/grailbio/kestrel/kmer"
	"github.com/grailbio/kestrel/profile"
	"github.com/grailbio/kestrel/refregion"
	"github.com/grailbio/kestrel/variant"
	"github.com/grailbio/kestrel/writer"
	"github.com/pkg/errors"
)

// flags collects every command-line flag not already covered by
// kestrelcfg.Opts/AlignmentWeight.
type flags struct {
	referencePath string
	countsPath    string
	chrom         string
	start, end    int64
	flank         int64
	sampleName    string
	vcfOutputPath string
	hapOutputPath string
	minSpan       int
}

func registerOptsFlags(opts *kestrelcfg.Opts) {
	d := kestrelcfg.DefaultOpts
	flag.IntVar(&opts.KmerLength, "k", d.KmerLength, "k-mer length")
	opts.MinimumDifference = d.MinimumDifference
	flag.Var((*uintFlag)(&opts.MinimumDifference), "min-difference", "minimum count delta that may trigger a scan")
	flag.Float64Var(&opts.DifferenceQuantile, "difference-quantile", d.DifferenceQuantile, "quantile of |delta count| used for the scan threshold")
	flag.BoolVar(&opts.AnchorBothEnds, "anchor-both-ends", d.AnchorBothEnds, "reject regions that reach either end of the reference")
	flag.BoolVar(&opts.CallAmbiguousRegions, "call-ambiguous-regions", d.CallAmbiguousRegions, "allow ambiguous reference bases inside a region")
	flag.IntVar(&opts.PeakScanLength, "peak-scan-length", d.PeakScanLength, "lookahead for peak detection, 0 disables it")
	flag.Float64Var(&opts.ScanLimitFactor, "scan-limit-factor", d.ScanLimitFactor, "region length cap as a multiple of k")
	flag.Float64Var(&opts.ExpDecayMin, "exp-decay-min", d.ExpDecayMin, "lower asymptotic bound of the recovery threshold")
	flag.Float64Var(&opts.ExpDecayAlpha, "exp-decay-alpha", d.ExpDecayAlpha, "decay proportion at k bases from the anchor")
	flag.BoolVar(&opts.RecoverRightAnchor, "recover-right-anchor", d.RecoverRightAnchor, "fall back to a sharp-rising-edge search when decay recovery fails")
	flag.BoolVar(&opts.EmitWildtypeActiveRegions, "emit-wildtype-regions", d.EmitWildtypeActiveRegions, "emit no-variant regions for gVCF gap filling")
	flag.IntVar(&opts.MaxAlignerState, "max-aligner-state", d.MaxAlignerState, "cap on saved aligner states before eviction")
	flag.IntVar(&opts.MaxHaplotypes, "max-haplotypes", d.MaxHaplotypes, "cap on haplotypes returned per region, 0 means unbounded")
	flag.IntVar(&opts.MaxRepeatCount, "max-repeat-count", d.MaxRepeatCount, "how many times a k-mer may reappear on a path before it is abandoned")
	flag.BoolVar(&opts.CountReverseKmers, "count-reverse-kmers", d.CountReverseKmers, "add the reverse complement's sample count into each position")
	flag.BoolVar(&opts.CallAmbiguousVariant, "call-ambiguous-variant", d.CallAmbiguousVariant, "allow the variant caller to emit variants touching an ambiguous base")
	flag.BoolVar(&opts.RegionRelativePositions, "region-relative-positions", d.RegionRelativePositions, "report variant positions relative to the active region instead of the reference")
}

func registerWeightFlags(w *kestrelcfg.AlignmentWeight) {
	*w = kestrelcfg.DefaultWeight
	flag.Var((*int32Flag)(&w.Match), "match", "match score")
	flag.Var((*int32Flag)(&w.Mismatch), "mismatch", "mismatch score")
	flag.Var((*int32Flag)(&w.GapOpen), "gap-open", "gap open score")
	flag.Var((*int32Flag)(&w.GapExtend), "gap-extend", "gap extend score")
	flag.Var((*int32Flag)(&w.InitScore), "init-score", "aligner initial score")
}

// uintFlag adapts a uint32 field to flag.Value.
type uintFlag uint32

func (f *uintFlag) String() string { return strconv.FormatUint(uint64(*f), 10) }
func (f *uintFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	*f = uintFlag(v)
	return nil
}

// int32Flag adapts an int32 field to flag.Value.
type int32Flag int32

func (f *int32Flag) String() string { return strconv.FormatInt(int64(*f), 10) }
func (f *int32Flag) Set(s string) error {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return err
	}
	*f = int32Flag(v)
	return nil
}

func registerFlags(fl *flags) {
	flag.StringVar(&fl.referencePath, "reference", "", "path to the reference FASTA file")
	flag.StringVar(&fl.countsPath, "sample-counts", "", "path to a k-mer<TAB>count text file for the sample")
	flag.StringVar(&fl.chrom, "chrom", "", "sequence name within the reference FASTA to scan")
	flag.Int64Var(&fl.start, "start", 0, "0-based start offset of the callable region")
	flag.Int64Var(&fl.end, "end", 0, "0-based end offset (exclusive) of the callable region")
	flag.Int64Var(&fl.flank, "flank", 50, "bases of extra context included on each side of the callable region")
	flag.StringVar(&fl.sampleName, "sample-name", "sample", "sample name recorded in output headers")
	flag.StringVar(&fl.vcfOutputPath, "vcf-output", "", "path to write called variants as VCF (required)")
	flag.StringVar(&fl.hapOutputPath, "haplotype-output", "", "optional path to write accepted haplotypes as text")
	flag.IntVar(&fl.minSpan, "min-span", 0, "drop variants whose active region has fewer than this many covered positions")
}

func loadSampleCounts(ctx context.Context, path string) (countmap.KmerCounts, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sample counts %q", path)
	}
	defer f.Close(ctx)

	counts := make(countmap.KmerCounts)
	scanner := bufio.NewScanner(f.Reader(ctx))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, errors.Errorf("malformed sample-counts line %q: want <kmer>\\t<count>", line)
		}
		count, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing count in line %q", line)
		}
		counts[kmer.FromBytes([]byte(fields[0]))] = uint32(count)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading sample counts %q", path)
	}
	return counts, nil
}

func run(ctx context.Context, fl flags, opts kestrelcfg.Opts, weight kestrelcfg.AlignmentWeight) error {
	if err := opts.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if err := weight.Validate(); err != nil {
		return errors.Wrap(err, "invalid alignment weight")
	}
	if fl.referencePath == "" || fl.chrom == "" || fl.vcfOutputPath == "" {
		return errors.New("-reference, -chrom, and -vcf-output are required")
	}
	if fl.countsPath == "" {
		return errors.New("-sample-counts is required")
	}

	refFile, err := file.Open(ctx, fl.referencePath)
	if err != nil {
		return errors.Wrapf(err, "opening reference %q", fl.referencePath)
	}
	defer refFile.Close(ctx)
	fa, err := fasta.New(refFile.Reader(ctx))
	if err != nil {
		return errors.Wrap(err, "parsing reference FASTA")
	}
	provider := refregion.NewProvider(fa)

	end := fl.end
	if end == 0 {
		seqLen, err := fa.Len(fl.chrom)
		if err != nil {
			return errors.Wrapf(err, "looking up length of %q", fl.chrom)
		}
		end = int64(seqLen)
	}
	region, err := provider.Region(fl.chrom, fl.start, end, fl.flank, fl.flank)
	if err != nil {
		return errors.Wrap(err, "building reference region")
	}

	counts, err := loadSampleCounts(ctx, fl.countsPath)
	if err != nil {
		return err
	}
	var countMap countmap.Map
	defer countMap.Free()
	if err := countMap.Load(counts); err != nil {
		return errors.Wrap(err, "loading sample counts")
	}

	util, err := kmer.NewUtil(opts.KmerLength, 0)
	if err != nil {
		return errors.Wrap(err, "building kmer.Util")
	}
	countVector, err := profile.NewBuilder(util).Build(region, &countMap, opts.CountReverseKmers)
	if err != nil {
		return errors.Wrap(err, "building count profile")
	}

	b, err := builder.NewBuilder(opts, weight, &countMap)
	if err != nil {
		return errors.Wrap(err, "constructing haplotype builder")
	}
	detector := active.NewDetector(opts, weight)
	container, scanStats := detector.Detect(region, countVector, b)
	log.Printf("active region scan: %+v", scanStats)

	chain := filterpipe.Chain{}
	if fl.minSpan > 0 {
		chain = append(chain, filterpipe.MinSpanFilter{MinN: fl.minSpan})
	}

	vcfFile, err := file.Create(ctx, fl.vcfOutputPath)
	if err != nil {
		return errors.Wrapf(err, "creating %q", fl.vcfOutputPath)
	}
	defer vcfFile.Close(ctx)
	vcfWriter := writer.NewVCFWriter(vcfFile.Writer(ctx))
	vcfWriter.SetSampleName(fl.sampleName)
	vcfWriter.SetReferenceRegion(region)

	var hapWriter writer.HaplotypeWriter
	if fl.hapOutputPath != "" {
		hapFile, err := file.Create(ctx, fl.hapOutputPath)
		if err != nil {
			return errors.Wrapf(err, "creating %q", fl.hapOutputPath)
		}
		defer hapFile.Close(ctx)
		tw := writer.NewTextHaplotypeWriter(hapFile.Writer(ctx))
		tw.SetSampleName(fl.sampleName)
		tw.SetReferenceRegion(region)
		hapWriter = tw
	}

	nVariants := 0
	for _, ar := range container.Regions {
		results, err := b.Build(ar)
		if err != nil {
			log.Printf("abandoning region [%d, %d]: %v", ar.StartKmerIndex, ar.EndKmerIndex, err)
			continue
		}
		caller := variant.NewCaller(ar, opts)
		for _, result := range results {
			hap, ok := haplotype.Materialize(ar, result, opts.KmerLength)
			if !ok {
				continue
			}
			if hapWriter != nil {
				hapWriter.WriteHaplotype(hap)
			}
			for _, call := range chain.ApplyAll(caller.Call(hap)) {
				vcfWriter.WriteVariant(call)
				nVariants++
			}
		}
	}
	if err := vcfWriter.Flush(); err != nil {
		return errors.Wrap(err, "flushing VCF output")
	}
	if hapWriter != nil {
		if err := hapWriter.Flush(); err != nil {
			return errors.Wrap(err, "flushing haplotype output")
		}
	}
	log.Printf("wrote %d variants to %s", nVariants, fl.vcfOutputPath)
	return nil
}

func main() {
	var fl flags
	var opts kestrelcfg.Opts
	var weight kestrelcfg.AlignmentWeight
	registerFlags(&fl)
	registerOptsFlags(&opts)
	registerWeightFlags(&weight)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: kestrel -reference=ref.fa -chrom=chr1 -sample-counts=counts.tsv -vcf-output=out.vcf\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if err := run(ctx, fl, opts, weight); err != nil {
		log.Fatalf("kestrel: %v", err)
	}
}
