// Package blt implements the BLT analysis engine: deduplication of
// extracted reads into observations, target/UMI validation using
// cross-sample evidence, per-UMI/per-target/per-sample metric generation,
// the specificity score, and the orchestrator tying the pipeline together
// (§4.5/§4.6).
package blt

import (
	"fmt"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/blt/extract"
	"github.com/grailbio/blt/sample"
)

// BltObservation collapses one or more BltReads that share a molecule's
// identity into a single record: the target sequence of every collapsed
// read (duplicates included, one entry per read), which the validation
// step later reconciles into one consensus target (§4.5.1/§3).
type BltObservation struct {
	Sample          *sample.Sample
	UMI             string
	Guide           string
	PAM             string
	Stagger         int
	RandomBarcode   string
	Cut             bool
	TargetSequences []string
}

// dedupKey is the composite key reads are grouped on before being
// collapsed into an observation (§4.5.1).
type dedupKey struct {
	umi           string
	guide         string
	pam           string
	sample        string
	stagger       int
	randomBarcode string
	cut           bool
}

// Dedup groups reads by (UMI, guide, PAM, sample, stagger, randomBarcode,
// cut) and emits one BltObservation per group, whose TargetSequences is
// the array of observed target sequences across the duplicate reads.
// Mixing cut and uncut reads within one group is an invariant violation
// and panics (§3/§7); since cut is part of the key, reads with different
// cut status always land in different groups, so no input reaches that
// panic.
func Dedup(reads []extract.Read) []BltObservation {
	order := make([]dedupKey, 0, len(reads))
	groups := map[dedupKey]*BltObservation{}
	for _, r := range reads {
		key := dedupKey{
			umi:           r.UMI,
			guide:         r.Sample.Guide,
			pam:           r.Sample.PAM,
			sample:        r.Sample.Name,
			stagger:       r.Stagger,
			randomBarcode: r.RandomBarcode,
			cut:           r.Cut,
		}
		obs, ok := groups[key]
		if !ok {
			obs = &BltObservation{
				Sample:        r.Sample,
				UMI:           r.UMI,
				Guide:         r.Sample.Guide,
				PAM:           r.Sample.PAM,
				Stagger:       r.Stagger,
				RandomBarcode: r.RandomBarcode,
				Cut:           r.Cut,
			}
			groups[key] = obs
			order = append(order, key)
		} else if obs.Cut != r.Cut {
			panic(fmt.Sprintf("blt: mixed cut/uncut reads within deduplication group %+v", key))
		}
		obs.TargetSequences = append(obs.TargetSequences, r.Target)
	}
	out := make([]BltObservation, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}

// Fingerprint folds every observation's dedup key and target count into a
// single hash, logged by the orchestrator as a cheap reproducibility check
// across runs over the same input (order-independent: observations are
// combined with XOR, mirroring the order-independence law in §8).
func Fingerprint(observations []BltObservation) uint64 {
	var acc uint64
	for _, o := range observations {
		s := fmt.Sprintf("%s|%s|%s|%s|%d|%s|%t|%d", o.UMI, o.Guide, o.PAM, o.Sample.Name, o.Stagger, o.RandomBarcode, o.Cut, len(o.TargetSequences))
		acc ^= farm.Hash64WithSeed([]byte(s), 0)
	}
	return acc
}
