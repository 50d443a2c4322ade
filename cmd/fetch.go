package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/fetch"
)

// fetchFlags holds flag values for the `sigex fetch` command.
type fetchFlags struct {
	clean        bool
	skipRebuild  bool
	limit        int
	timeLimitSec int
	onlyAPI      string
	onlyCollab   string
}

type fetchFlagsKey struct{}

func withFetchFlags(ctx context.Context, f fetchFlags) context.Context {
	return context.WithValue(ctx, fetchFlagsKey{}, f)
}

func fetchFlagsFrom(ctx context.Context) fetchFlags {
	f, _ := ctx.Value(fetchFlagsKey{}).(fetchFlags)
	return f
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download signal updates from every configured exchange",
	Long: `Fetch pulls signal updates for every enabled collaboration, merges
them into the local state files under ~/.sigex/state/, and rebuilds the
match indexes. Interrupted runs resume from their checkpoint.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	var f fetchFlags
	fetchCmd.Flags().BoolVar(&f.clean, "clean", false, "Discard fetched state and refetch from the beginning")
	fetchCmd.Flags().BoolVar(&f.skipRebuild, "skip-index-rebuild", false, "Do not rebuild match indexes after fetching")
	fetchCmd.Flags().IntVar(&f.limit, "limit", 0, "Stop after this many fetched records (0 = unlimited)")
	fetchCmd.Flags().IntVar(&f.timeLimitSec, "time-limit-sec", 0, "Stop fetching after this many seconds (0 = unlimited)")
	fetchCmd.Flags().StringVar(&f.onlyAPI, "only-api", "", "Fetch from a single exchange API")
	fetchCmd.Flags().StringVar(&f.onlyCollab, "only-collab", "", "Fetch a single collaboration")
	fetchCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withFetchFlags(cmd.Context(), f))
		return nil
	}
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	f := fetchFlagsFrom(cmd.Context())

	env, err := loadEnv()
	if err != nil {
		return err
	}
	unlock, err := env.acquireStateLock(10 * time.Second)
	if err != nil {
		return err
	}
	defer unlock()

	apis, err := env.exchangeAPIs()
	if err != nil {
		return err
	}
	collabs, err := env.collabs.GetAll()
	if err != nil {
		return err
	}
	if len(collabs) == 0 {
		printMiss("", "no collaborations configured; run 'sigex collab create' or 'sigex init'")
		return nil
	}

	printSection("Fetch")
	fetcher := fetch.NewFetcher(apis, env.states, fetch.Options{
		Clean:      f.clean,
		Limit:      f.limit,
		TimeLimit:  time.Duration(f.timeLimitSec) * time.Second,
		OnlyAPI:    f.onlyAPI,
		OnlyCollab: f.onlyCollab,
		Progress:   func(line string) { printInfo("", line) },
	})
	res, err := fetcher.Run(cmd.Context(), collabs)
	if err != nil {
		return err
	}

	for name, ferr := range res.Failures {
		printErr(name, ferr.Error())
	}
	printOK("", fmt.Sprintf("%d record(s) fetched", res.Fetched))

	if f.skipRebuild {
		printSkip("", "index rebuild skipped")
		return nil
	}
	if !res.AnySucceeded && len(res.Failures) > 0 {
		printWarn("", "every fetch failed; keeping existing indexes")
		return fmt.Errorf("fetch failed for all collaborations")
	}

	counts, err := fetch.RebuildIndexes(env.registry, collabs, env.states, env.indexes)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		printMiss("", "no signals to index")
		return nil
	}
	for typeName, n := range counts {
		printOK(typeName, fmt.Sprintf("index rebuilt with %d entr%s", n, pluralY(n)))
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
