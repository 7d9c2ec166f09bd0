// Command likebench hammers the like toggle on one published creation from
// many goroutines and checks that no toggle was lost.
//
//	N=2000 CONC=32 ROUNDS=3 go run ./cmd/likebench
//
// Every user toggles ROUNDS times, so users with an odd ROUNDS end up in the
// set. Any other final count means two toggles raced.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/creation-studio/config"
	"github.com/d60-Lab/creation-studio/internal/model"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/internal/service"
	"github.com/d60-Lab/creation-studio/pkg/database"
	"github.com/d60-Lab/creation-studio/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	if lost := run(); lost {
		os.Exit(1)
	}
}

func run() (lost bool) {
	cfg := must(config.Load())
	must(logger.Init(cfg.Log))
	defer logger.Sync()
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	N := envInt("N", 1000)
	CONC := envInt("CONC", 16)
	ROUNDS := envInt("ROUNDS", 1)

	repo := repository.NewCreationRepository(db)
	svc := service.NewCreationService(repo, cfg.Timeouts.Storage, service.FeedRetry{
		MaxAttempts:    cfg.Feed.MaxAttempts,
		InitialBackoff: cfg.Feed.InitialBackoff,
	})

	ctx := context.Background()
	target := &model.Creation{
		UserID:  "likebench-owner",
		Prompt:  "likebench",
		Content: "https://example.com/likebench.png",
		Type:    model.CreationImage,
		Publish: true,
	}
	if err := repo.Create(ctx, target); err != nil {
		panic(err)
	}

	// 每个用户的 ROUNDS 次切换按顺序入队，交错由 worker 调度决定
	type job struct{ user string }
	feed := make(chan job, N*ROUNDS)
	for r := 0; r < ROUNDS; r++ {
		for i := 0; i < N; i++ {
			feed <- job{user: fmt.Sprintf("bench-user-%06d", i)}
		}
	}
	close(feed)

	workers := CONC
	if workers > N*ROUNDS {
		workers = N * ROUNDS
	}
	lat := make(chan time.Duration, N*ROUNDS)
	errs := make(chan error, N*ROUNDS)
	done := make(chan struct{}, workers)

	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for j := range feed {
				st := time.Now()
				if _, err := svc.ToggleLike(ctx, target.ID, j.user); err != nil {
					errs <- err
					continue
				}
				lat <- time.Since(st)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	total := time.Since(t0)
	close(lat)
	close(errs)

	recs := make([]time.Duration, 0, N*ROUNDS)
	for d := range lat {
		recs = append(recs, d)
	}
	failed := 0
	var firstErr error
	for err := range errs {
		if firstErr == nil {
			firstErr = err
		}
		failed++
	}

	final := must(repo.GetByID(ctx, target.ID))
	expected := 0
	if ROUNDS%2 == 1 {
		expected = N
	}

	fmt.Printf("driver=%s N=%d CONC=%d ROUNDS=%d\n", cfg.Database.Driver, N, CONC, ROUNDS)
	fmt.Printf("toggles ok=%d failed=%d total=%v throughput=%.0f/s\n",
		len(recs), failed, total, float64(len(recs))/total.Seconds())
	fmt.Printf("latency p50=%v p95=%v p99=%v\n", pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	if firstErr != nil {
		fmt.Printf("first error: %v\n", firstErr)
	}
	fmt.Printf("final likes=%d expected=%d\n", len(final.Likes), expected)
	if failed == 0 && len(final.Likes) != expected {
		fmt.Println("LOST UPDATE DETECTED")
		return true
	}
	return false
}
