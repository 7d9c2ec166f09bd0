// Command ledgerbench compares the database and redis usage ledgers under
// contention: USERS callers each fire ATTEMPTS concurrent reservations against
// the free limit, and the run fails if any counter ends above the limit.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/creation-studio/config"
	"github.com/d60-Lab/creation-studio/internal/repository"
	"github.com/d60-Lab/creation-studio/pkg/cache"
	"github.com/d60-Lab/creation-studio/pkg/database"
	"github.com/d60-Lab/creation-studio/pkg/logger"
)

type result struct {
	name     string
	total    time.Duration
	lat      []time.Duration
	granted  int64
	rejected int64
	failed   int64
	over     int
}

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

func main() {
	cfg := must(config.Load())
	must(logger.Init(cfg.Log))
	defer logger.Sync()

	users := envInt("USERS", 200)
	attempts := envInt("ATTEMPTS", 25)
	limit := cfg.Usage.FreeLimit
	ctx := context.Background()

	db := must(database.InitDB(cfg))
	defer database.Close(db)

	ledgers := []struct {
		name   string
		ledger repository.UsageLedger
	}{
		{"database/" + cfg.Database.Driver, repository.NewDBUsageLedger(db)},
	}
	if cfg.Redis.Addr != "" {
		client, err := cache.InitRedis(ctx, cfg.Redis)
		if err != nil {
			fmt.Printf("skip redis ledger: %v\n", err)
		} else {
			defer client.Close()
			ledgers = append(ledgers, struct {
				name   string
				ledger repository.UsageLedger
			}{"redis", repository.NewRedisUsageLedger(client, "ledgerbench")})
		}
	}

	fmt.Printf("USERS=%d ATTEMPTS=%d LIMIT=%d\n", users, attempts, limit)
	broken := false
	for _, l := range ledgers {
		r := bench(ctx, l.name, l.ledger, users, attempts, limit)
		report(r)
		if r.over > 0 {
			broken = true
		}
	}
	if broken {
		fmt.Println("LIMIT EXCEEDED")
		logger.Sync()
		os.Exit(1)
	}
}

func bench(ctx context.Context, name string, ledger repository.UsageLedger, users, attempts, limit int) result {
	ids := make([]string, users)
	for i := range ids {
		ids[i] = "bench-" + uuid.NewString()
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res = result{name: name, lat: make([]time.Duration, 0, users*attempts)}
		granted, rejected, failed atomic.Int64
	)
	t0 := time.Now()
	for _, id := range ids {
		for a := 0; a < attempts; a++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				st := time.Now()
				_, err := ledger.Reserve(ctx, id, limit)
				d := time.Since(st)
				switch {
				case err == nil:
					granted.Add(1)
				case errors.Is(err, repository.ErrFreeLimitReached):
					rejected.Add(1)
				default:
					failed.Add(1)
					return
				}
				mu.Lock()
				res.lat = append(res.lat, d)
				mu.Unlock()
			}(id)
		}
	}
	wg.Wait()
	res.total = time.Since(t0)
	res.granted, res.rejected, res.failed = granted.Load(), rejected.Load(), failed.Load()

	for _, id := range ids {
		v, _, err := ledger.Get(ctx, id)
		if err == nil && v > limit {
			res.over++
		}
	}
	return res
}

func report(r result) {
	pct := func(p float64) time.Duration {
		if len(r.lat) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), r.lat...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		return xs[k]
	}
	ops := r.granted + r.rejected
	fmt.Printf("[%s] total=%v ops=%d throughput=%.0f/s p50=%v p95=%v p99=%v\n",
		r.name, r.total, ops, float64(ops)/r.total.Seconds(), pct(0.50), pct(0.95), pct(0.99))
	fmt.Printf("[%s] granted=%d rejected=%d failed=%d counters_over_limit=%d\n",
		r.name, r.granted, r.rejected, r.failed, r.over)
}
