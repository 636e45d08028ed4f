package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"stock_trader/internal/app/di"
	"stock_trader/internal/feature/quotes/domain/entity"
)

type refreshQuotesCmd struct {
	timeout time.Duration
}

func (*refreshQuotesCmd) Name() string { return "refresh-quotes" }
func (*refreshQuotesCmd) Synopsis() string {
	return "fetch the full quote universe once and persist it to the snapshot file"
}
func (*refreshQuotesCmd) Usage() string {
	return `admin refresh-quotes [-timeout <duration>]

  Loads the current snapshot (or the bundled seed), runs one refresh
  against the upstream listing and writes the result to QUOTE_SNAPSHOT_PATH.
`
}

func (r *refreshQuotesCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&r.timeout, "timeout", 2*time.Minute, "Upper bound for the whole command.")
}

func (r *refreshQuotesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	market := di.NewMarket(nil, nil)
	before := market.Universe.Warm(ctx)
	updated := market.Universe.Refresh(ctx)
	after := market.Universe.Status()

	printStatus(os.Stdout, "before", before)
	printStatus(os.Stdout, "after", after)
	fmt.Printf("updated: %d\n", updated)

	if updated == 0 {
		fmt.Fprintln(os.Stderr, "refresh returned no quotes; kept the previous data")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printStatus(w io.Writer, label string, st entity.Status) {
	last := "-"
	if !st.LastRefresh.IsZero() {
		last = st.LastRefresh.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(w, "%-7s source=%s count=%d stale=%t last_refresh=%s\n", label+":", st.Source, st.Count, st.Stale, last)
}
