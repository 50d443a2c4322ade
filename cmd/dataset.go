package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/fetch"
)

var (
	flagDatasetClear    bool
	flagDatasetRebuild  bool
	flagDatasetOnlyType string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect or maintain the fetched signal datasets",
	Long: `Dataset prints per-collaboration, per-signal-type record counts.
With --clear it drops fetched state (optionally for one signal type via
--only-type); with --rebuild it rebuilds the match indexes from the
state already on disk.`,
	Args: cobra.NoArgs,
	RunE: runDataset,
}

func init() {
	datasetCmd.Flags().BoolVar(&flagDatasetClear, "clear", false, "Delete fetched state and indexes")
	datasetCmd.Flags().BoolVar(&flagDatasetRebuild, "rebuild", false, "Rebuild indexes from stored state")
	datasetCmd.Flags().StringVar(&flagDatasetOnlyType, "only-type", "", "Restrict --clear to one signal type")
	rootCmd.AddCommand(datasetCmd)
}

func runDataset(_ *cobra.Command, _ []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	switch {
	case flagDatasetClear:
		return clearDataset(env)
	case flagDatasetRebuild:
		return rebuildDataset(env)
	}
	if flagDatasetOnlyType != "" {
		return fmt.Errorf("--only-type requires --clear")
	}
	return printDataset(env)
}

func printDataset(env *cliEnv) error {
	names, err := env.states.Available()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printMiss("", "no fetched state; run 'sigex fetch' first")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLLABORATION\tSIGNAL TYPE\tRECORDS\tLAST FETCH")
	for _, name := range names {
		state, err := env.states.Read(name)
		if err != nil {
			return err
		}
		if state == nil {
			continue
		}
		counts := state.TypeCounts()
		typeNames := make([]string, 0, len(counts))
		for t := range counts {
			typeNames = append(typeNames, t)
		}
		sort.Strings(typeNames)
		last := "never"
		if state.Checkpoint.LastFetch > 0 {
			last = time.Unix(state.Checkpoint.LastFetch, 0).UTC().Format(time.RFC3339)
		}
		if len(typeNames) == 0 {
			fmt.Fprintf(w, "%s\t-\t0\t%s\n", name, last)
			continue
		}
		for _, t := range typeNames {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, t, counts[t], last)
		}
	}
	return w.Flush()
}

func clearDataset(env *cliEnv) error {
	unlock, err := env.acquireStateLock(10 * time.Second)
	if err != nil {
		return err
	}
	defer unlock()

	if flagDatasetOnlyType != "" {
		if _, err := env.registry.ByName(flagDatasetOnlyType); err != nil {
			return err
		}
		return clearSignalType(env, flagDatasetOnlyType)
	}

	names, err := env.states.Available()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := env.states.Clear(name); err != nil {
			return err
		}
		printOK(name, "state cleared")
	}
	available, err := env.indexes.Available()
	if err != nil {
		return err
	}
	if err := env.indexes.Clear(available...); err != nil {
		return err
	}
	printOK("", "indexes cleared")
	return nil
}

// clearSignalType drops one signal type's records from every collab state
// and removes its index, leaving everything else untouched.
func clearSignalType(env *cliEnv, typeName string) error {
	names, err := env.states.Available()
	if err != nil {
		return err
	}
	for _, name := range names {
		state, err := env.states.Read(name)
		if err != nil {
			return err
		}
		if state == nil || state.Records[typeName] == nil {
			continue
		}
		delete(state.Records, typeName)
		if err := env.states.Write(name, state); err != nil {
			return err
		}
		printOK(name, fmt.Sprintf("%s records cleared", typeName))
	}
	if err := env.indexes.Clear(typeName); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("%s index cleared", typeName))
	return nil
}

func rebuildDataset(env *cliEnv) error {
	unlock, err := env.acquireStateLock(10 * time.Second)
	if err != nil {
		return err
	}
	defer unlock()

	collabs, err := env.collabs.GetAll()
	if err != nil {
		return err
	}
	counts, err := fetch.RebuildIndexes(env.registry, collabs, env.states, env.indexes)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		printMiss("", "no signals to index")
		return nil
	}
	typeNames := make([]string, 0, len(counts))
	for t := range counts {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)
	for _, t := range typeNames {
		printOK(t, fmt.Sprintf("index rebuilt with %d entr%s", counts[t], pluralY(counts[t])))
	}
	return nil
}
