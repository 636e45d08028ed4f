package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"stock_trader/internal/feature/quotes/adapters"
	"stock_trader/internal/feature/quotes/domain"
)

type snapshotCmd struct {
	path string
	top  int
	out  io.Writer
	now  func() time.Time
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "show the persisted quote snapshot" }
func (*snapshotCmd) Usage() string {
	return `admin snapshot [-path <file>] [-n <count>]

  Prints the age and size of the quote snapshot file and, with -n,
  the first entries in listing order.
`
}

func (s *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.path, "path", adapters.SnapshotPathFromEnv(), "Snapshot file (defaults to QUOTE_SNAPSHOT_PATH).")
	f.IntVar(&s.top, "n", 0, "Number of quotes to print.")
}

func (s *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := s.out
	if out == nil {
		out = os.Stdout
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	store := adapters.NewFileSnapshotStore(s.path)
	snap, err := store.Load(ctx)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		fmt.Fprintf(out, "no snapshot at %s\n", store.Path())
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(out, "path: %s\n", store.Path())
	fmt.Fprintf(out, "last_cache_time: %s\n", snap.LastCacheTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "age: %s\n", now().Sub(snap.LastCacheTime).Truncate(time.Second))
	fmt.Fprintf(out, "count: %d\n", len(snap.Stocks))
	for _, q := range snap.Stocks[:max(0, min(s.top, len(snap.Stocks)))] {
		fmt.Fprintf(out, "%s\t%s\t%.2f\t%+.2f%%\n", q.Code, q.Name, q.Price, q.ChangePct)
	}
	return subcommands.ExitSuccess
}
