// Command staffguard-loadtest runs logins, session checks and a password
// guessing phase against a Redis-backed engine, then prints latency
// percentiles and whether quotas and lockouts held under load.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const loadSecret = "load-test-secret"

// staticAccounts serves acct-0 .. acct-(n-1) sharing one hash. Every tenth
// account is an admin so the single-session quota is exercised too.
type staticAccounts struct {
	n    int
	hash string
}

func (a staticAccounts) GetAccountByIdentifier(_ context.Context, identifier string) (staffguard.AccountRecord, error) {
	var i int
	if _, err := fmt.Sscanf(identifier, "acct-%d", &i); err != nil || i < 0 || i >= a.n || identifier != fmt.Sprintf("acct-%d", i) {
		return staffguard.AccountRecord{}, staffguard.ErrAccountNotFound
	}
	role := "staff"
	if i%10 == 9 {
		role = "admin"
	}
	return staffguard.AccountRecord{ID: identifier, Identifier: identifier, PasswordHash: a.hash, Role: role}, nil
}

type options struct {
	accounts    int
	concurrency int
	logins      int
	checks      int
	targets     int
	redisAddr   string
	prefix      string
}

func main() {
	var o options
	flag.IntVar(&o.accounts, "accounts", 1000, "number of accounts")
	flag.IntVar(&o.concurrency, "concurrency", 64, "concurrent workers")
	flag.IntVar(&o.logins, "logins", 5000, "successful login operations")
	flag.IntVar(&o.checks, "checks", 50000, "session check operations")
	flag.IntVar(&o.targets, "lockout-targets", 20, "accounts attacked with wrong passwords")
	flag.StringVar(&o.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flag.StringVar(&o.prefix, "prefix", "sgload", "redis key prefix")
	flag.Parse()

	if o.accounts <= 0 || o.concurrency <= 0 || o.logins <= 0 || o.checks <= 0 || o.targets < 0 || o.targets >= o.accounts {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, logins and checks must be > 0; lockout-targets must be in [0, accounts)")
		os.Exit(2)
	}
	if err := run(context.Background(), o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}
	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func run(ctx context.Context, o options) error {
	client, cleanup, err := connect(o.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()

	// Minimum cost keeps the run about the stores, not the hash.
	hasher, err := password.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(loadSecret)
	if err != nil {
		return err
	}

	engine, err := staffguard.New().
		WithRedis(client, o.prefix).
		WithAccountProvider(staticAccounts{n: o.accounts, hash: hash}).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	// The attacked accounts sit at the top of the id range and are kept out
	// of the login phase so their lockouts are not reset.
	legit := o.accounts - o.targets

	var (
		mu         sync.Mutex
		sessionIDs = make([]string, 0, o.logins)
	)
	logins := runPhase(o.logins, o.concurrency, func(r *rand.Rand) error {
		res, err := engine.Login(ctx, fmt.Sprintf("acct-%d", r.Intn(legit)), loadSecret)
		if err != nil {
			return err
		}
		mu.Lock()
		sessionIDs = append(sessionIDs, res.SessionID)
		mu.Unlock()
		return nil
	})
	logins.name = "login"
	if len(sessionIDs) == 0 {
		return errors.New("no sessions created")
	}

	// Evicted sessions come back as not found; that is the quota working.
	var staleChecks atomic.Int64
	checks := runPhase(o.checks, o.concurrency, func(r *rand.Rand) error {
		_, err := engine.CheckSession(ctx, sessionIDs[r.Intn(len(sessionIDs))])
		if errors.Is(err, staffguard.ErrSessionNotFound) {
			staleChecks.Add(1)
			return nil
		}
		return err
	})
	checks.name = "check"

	threshold := engine.Config().Lockout.Threshold
	var justLocked atomic.Int64
	guesses := runPhase(o.targets*threshold*2, o.concurrency, func(r *rand.Rand) error {
		_, err := engine.Login(ctx, fmt.Sprintf("acct-%d", legit+r.Intn(o.targets)), "wrong-guess")
		var locked *staffguard.LockedError
		switch {
		case errors.As(err, &locked):
			if locked.JustLocked {
				justLocked.Add(1)
			}
			return nil
		case errors.Is(err, staffguard.ErrInvalidCredentials):
			return nil
		default:
			return err
		}
	})
	guesses.name = "guess"

	lockedAccounts := 0
	for i := legit; i < o.accounts; i++ {
		st, err := engine.LockoutStatus(ctx, fmt.Sprintf("acct-%d", i))
		if err != nil {
			return err
		}
		if st.Locked {
			lockedAccounts++
		}
	}

	snap := engine.MetricsSnapshot()
	fmt.Println("---- results ----")
	for _, s := range []phaseStats{logins, checks, guesses} {
		s.write(os.Stdout)
	}
	fmt.Printf("sessions evicted by quota: %d, checks on evicted ids: %d\n",
		snap.Counters[staffguard.MetricSessionEvicted], staleChecks.Load())
	fmt.Printf("accounts locked: %d of %d targets, lock transitions observed: %d\n",
		lockedAccounts, o.targets, justLocked.Load())
	return nil
}
