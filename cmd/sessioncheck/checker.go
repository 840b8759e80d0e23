package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"reflect"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/S0me0neR0man/qtistate/internal/config"
	"github.com/S0me0neR0man/qtistate/internal/definition"
	"github.com/S0me0neR0man/qtistate/internal/fixture"
	"github.com/S0me0neR0man/qtistate/internal/runtime"
	"github.com/S0me0neR0man/qtistate/internal/storage"
)

const (
	displayCounter = 100
)

var errMismatch = errors.New("retrieved session differs from the persisted one")

type sessionRecord struct {
	id      storage.SessionID
	test    *definition.AssessmentTest
	session *runtime.TestSession
	deleted bool
	updated bool
}

func (r sessionRecord) String() string {
	if r.id.IsZero() {
		return "uninitialized"
	}
	return fmt.Sprintf("id=%s test=%s deleted=%v updated=%v", r.id, r.test.ID, r.deleted, r.updated)
}

type Stats struct {
	Persisted, Retrieved, Updated, Removed, Mismatched int64
}

func (s *Stats) String() string {
	return fmt.Sprintf("persisted=%d retrieved=%d updated=%d removed=%d mismatched=%d",
		atomic.LoadInt64(&s.Persisted), atomic.LoadInt64(&s.Retrieved), atomic.LoadInt64(&s.Updated),
		atomic.LoadInt64(&s.Removed), atomic.LoadInt64(&s.Mismatched))
}

// Checker persists random sessions and reads them back: every session is
// inserted, read, then either updated or removed, and read again.
type Checker struct {
	toDisplay chan string

	store *storage.SessionStorage
	files *storage.FileManager
	tests []*definition.AssessmentTest
	conf  *config.Config
	stats Stats

	sugar *zap.SugaredLogger
}

func NewChecker(store *storage.SessionStorage, files *storage.FileManager, conf *config.Config, logger *zap.Logger) *Checker {
	return &Checker{
		toDisplay: make(chan string, conf.Workers),
		store:     store,
		files:     files,
		tests:     []*definition.AssessmentTest{fixture.FlatTest(), fixture.NestedTest()},
		conf:      conf,
		sugar:     logger.Sugar(),
	}
}

// Run checks conf.Sessions sessions with conf.Workers workers. It stops at
// the first storage error; mismatches are counted and reported at the end.
func (c *Checker) Run(ctx context.Context) (*Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int64)

	displayDone := make(chan struct{})
	go c.display(displayDone)

	g.Go(func() error {
		defer close(jobs)
		for seed := int64(1); seed <= int64(c.conf.Sessions); seed++ {
			select {
			case jobs <- seed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < c.conf.Workers; w++ {
		g.Go(func() error {
			for seed := range jobs {
				if err := c.check(ctx, seed); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	close(c.toDisplay)
	<-displayDone
	if err == nil && c.stats.Mismatched > 0 {
		err = errors.Wrapf(errMismatch, "%d session(s)", c.stats.Mismatched)
	}
	return &c.stats, err
}

func (c *Checker) display(done chan<- struct{}) {
	defer close(done)
	for s := range c.toDisplay {
		if _, err := fmt.Fprint(os.Stdout, s); err != nil {
			c.sugar.Errorw("fprint stdout", "error", err)
		}
	}
}

func (c *Checker) count(counter *int64, mark string) {
	if atomic.AddInt64(counter, 1)%displayCounter == 0 {
		c.toDisplay <- mark
	}
}

func (c *Checker) newSession(ctx context.Context, rng *rand.Rand, test *definition.AssessmentTest) (*runtime.TestSession, error) {
	return fixture.RandomSession(rng, test, c.files.Bind(ctx))
}

func (c *Checker) check(ctx context.Context, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	test := c.tests[rng.Intn(len(c.tests))]
	session, err := c.newSession(ctx, rng, test)
	if err != nil {
		return errors.Wrapf(err, "generate seed %d", seed)
	}

	rec := sessionRecord{id: storage.NewSessionID(), test: test, session: session}
	if err := c.store.Persist(ctx, rec.id, rec.session); err != nil {
		return err
	}
	c.sugar.Debugw("insert ok", "rec", rec)
	c.count(&c.stats.Persisted, "I")

	if err := c.get(ctx, rec); err != nil {
		return err
	}

	if rng.Intn(2) == 0 {
		if err := c.store.Delete(ctx, rec.id); err != nil {
			return err
		}
		rec.deleted = true
		c.count(&c.stats.Removed, "R")
	} else {
		if rec.session, err = c.newSession(ctx, rng, test); err != nil {
			return errors.Wrapf(err, "generate seed %d", seed)
		}
		if err := c.store.Persist(ctx, rec.id, rec.session); err != nil {
			return err
		}
		rec.updated = true
		c.count(&c.stats.Updated, "U")
	}
	c.sugar.Debugw("after", "rec", rec)

	return c.get(ctx, rec)
}

func (c *Checker) get(ctx context.Context, rec sessionRecord) error {
	got, err := c.store.Retrieve(ctx, rec.id, rec.test)
	if rec.deleted {
		if !errors.Is(err, storage.ErrNotFound) {
			c.sugar.Errorw("removed session still readable", "rec", rec, "error", err)
			atomic.AddInt64(&c.stats.Mismatched, 1)
		}
		return nil
	}
	if err != nil {
		return err
	}
	c.count(&c.stats.Retrieved, "G")

	if !reflect.DeepEqual(rec.session, got) {
		c.sugar.Errorw("not equal", "rec", rec)
		atomic.AddInt64(&c.stats.Mismatched, 1)
	}
	return nil
}
