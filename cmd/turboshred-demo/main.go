// turboshred-demo drives the shredder core end to end against synthetic
// blocks: shred, drop a fraction of each FEC set's shreds, recover, and
// verify the deshredded bytes match the original payload.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/malbeclabs/turboshred/internal/entry"
	"github.com/malbeclabs/turboshred/internal/erasure"
	"github.com/malbeclabs/turboshred/internal/metrics"
	"github.com/malbeclabs/turboshred/internal/shredwire"
	"github.com/malbeclabs/turboshred/shredder"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	Blocks      int
	BlockBytes  int
	DropRate    float64
	Seed        int64
	Merkle      bool
	Verbose     bool
	ShowVersion bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("turboshred-demo version: %s, commit: %s, date: %s\n", version, commit, date)
		return nil
	}

	log := newLogger(cfg.Verbose)
	priv := solana.NewWallet().PrivateKey
	cache := erasure.NewCache()
	stats := metrics.NewPrometheusStats()

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Payloads and per-block drop decisions are generated up front from
	// the single seeded rng, then each block's own shred/drop/recover
	// pipeline runs concurrently without touching rng again.
	blocks := make([]blockInput, cfg.Blocks)
	for i := range blocks {
		blocks[i] = blockInput{
			slot: uint64(1000 + i),
			data: randomBlock(rng, cfg.BlockBytes),
			seed: rng.Int63(),
		}
	}

	var g errgroup.Group
	results := make([]blockResult, cfg.Blocks)
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			res, err := shredDropRecover(log, priv, cache, stats, b, cfg.DropRate, cfg.Merkle)
			if err != nil {
				return fmt.Errorf("block at slot %d: %w", b.slot, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, res := range results {
		log.Info("block round trip",
			"slot", blocks[i].slot,
			"data_shreds", res.dataShreds,
			"code_shreds", res.codeShreds,
			"dropped", res.dropped,
			"recovered", res.recovered,
			"bytes_match", res.bytesMatch,
		)
	}
	return nil
}

type blockInput struct {
	slot uint64
	data []byte
	seed int64
}

type blockResult struct {
	dataShreds, codeShreds, dropped, recovered int
	bytesMatch                                 bool
}

// shredDropRecover runs one block through the full pipeline: shred,
// simulate loss per FEC set, recover, and reassemble, verifying the
// output against the original bytes.
func shredDropRecover(
	log *slog.Logger,
	priv solana.PrivateKey,
	cache *erasure.Cache,
	stats metrics.Stats,
	b blockInput,
	dropRate float64,
	merkle bool,
) (blockResult, error) {
	rng := rand.New(rand.NewSource(b.seed))

	ctx, err := shredder.New(b.slot, b.slot-1, 0, 42)
	if err != nil {
		return blockResult{}, fmt.Errorf("build context: %w", err)
	}

	var dataShreds, codeShreds []*shredwire.Shred
	want := b.data
	if merkle {
		entries := []entry.Entry{{NumHashes: 1, Hash: [32]byte{byte(b.slot)}, Transactions: [][]byte{b.data}}}
		var chained [32]byte
		shreds, err := shredder.MakeMerkleShredsFromEntries(ctx, priv, entries, true, &chained, 0, 0, cache, stats)
		if err != nil {
			return blockResult{}, fmt.Errorf("merkle shred: %w", err)
		}
		for _, s := range shreds {
			if s.IsData() {
				dataShreds = append(dataShreds, s)
			} else {
				codeShreds = append(codeShreds, s)
			}
		}
		want, err = entry.EncodeEntries(entries)
		if err != nil {
			return blockResult{}, err
		}
	} else {
		dataShreds, codeShreds, err = shredder.MakeShredsFromDataSlice(ctx, priv, b.data, true, 0, 0, cache, stats)
		if err != nil {
			return blockResult{}, fmt.Errorf("shred: %w", err)
		}
	}

	kept, dropped := dropShreds(rng, dataShreds, dropRate)
	recovered, err := recoverByFECSet(kept, codeShreds, cache)
	if err != nil {
		return blockResult{}, fmt.Errorf("recover: %w", err)
	}

	merged := append(append([]*shredwire.Shred{}, kept...), recovered...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Index() < merged[j].Index() })

	reassembled, err := shredder.Deshred(merged)
	if err != nil {
		log.Warn("deshred failed", "slot", b.slot, "error", err)
		return blockResult{
			dataShreds: len(dataShreds), codeShreds: len(codeShreds),
			dropped: dropped, recovered: len(recovered), bytesMatch: false,
		}, nil
	}

	return blockResult{
		dataShreds: len(dataShreds), codeShreds: len(codeShreds),
		dropped: dropped, recovered: len(recovered),
		bytesMatch: string(reassembled) == string(want),
	}, nil
}

// dropShreds simulates network loss by removing a dropRate fraction of
// dataShreds, never dropping below one shred per FEC set so recovery has
// something to anchor on.
func dropShreds(rng *rand.Rand, dataShreds []*shredwire.Shred, dropRate float64) (kept []*shredwire.Shred, dropped int) {
	byFECSet := map[uint32][]*shredwire.Shred{}
	for _, s := range dataShreds {
		byFECSet[s.FECSetIndex()] = append(byFECSet[s.FECSetIndex()], s)
	}
	for _, group := range byFECSet {
		maxDrop := len(group) - 1
		for _, s := range group {
			if maxDrop > 0 && rng.Float64() < dropRate {
				dropped++
				maxDrop--
				continue
			}
			kept = append(kept, s)
		}
	}
	return kept, dropped
}

// recoverByFECSet groups kept data shreds with their FEC set's code
// shreds and runs recovery independently per set, since TryRecovery
// operates on a single FEC set's shreds at a time.
func recoverByFECSet(kept, codeShreds []*shredwire.Shred, cache *erasure.Cache) ([]*shredwire.Shred, error) {
	byFECSet := map[uint32][]*shredwire.Shred{}
	for _, s := range kept {
		byFECSet[s.FECSetIndex()] = append(byFECSet[s.FECSetIndex()], s)
	}
	for _, s := range codeShreds {
		byFECSet[s.FECSetIndex()] = append(byFECSet[s.FECSetIndex()], s)
	}

	var all []*shredwire.Shred
	for _, group := range byFECSet {
		recovered, err := shredder.TryRecovery(group, cache)
		if err != nil {
			return nil, err
		}
		all = append(all, recovered...)
	}
	return all, nil
}

func randomBlock(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}

func parseFlags() *config {
	cfg := &config{}

	flag.IntVar(&cfg.Blocks, "blocks", 4, "Number of synthetic blocks to shred")
	flag.IntVar(&cfg.BlockBytes, "block-bytes", 8000, "Size of each synthetic block's payload")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0.2, "Fraction of data shreds to simulate losing per FEC set")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Random seed for synthetic payloads and drop simulation")
	flag.BoolVar(&cfg.Merkle, "merkle", false, "Use the Merkle-chained shred variant instead of the legacy one")
	flag.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	flag.Parse()
	return cfg
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
