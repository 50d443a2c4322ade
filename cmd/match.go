package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal"
)

var flagMatchAsHash bool

var matchCmd = &cobra.Command{
	Use:   "match <content-type> <input>",
	Short: "Match content against every fetched signal set",
	Long: `Match hashes the input with every signal type registered for the
content type and looks each hash up in the stored indexes. Every hit
prints the signal type, distance, owning collaboration and any opinions
recorded for the matched signal. With --hash the input is treated as an
already-computed hash instead of content.`,
	Args: cobra.ExactArgs(2),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&flagMatchAsHash, "hash", false, "Treat the input as a hash, not content")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(_ *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	var hashes []hashedInput
	if flagMatchAsHash {
		hashes, err = validateHash(env.registry, args[0], args[1])
	} else {
		hashes, err = hashInput(env.registry, args[0], args[1])
	}
	if err != nil {
		return err
	}

	anyMatch := false
	for _, h := range hashes {
		st, err := env.registry.ByName(h.typeName)
		if err != nil {
			return err
		}
		idx, err := env.indexes.Load(st.Name, st.IndexClass, st.IndexCompare())
		if err != nil {
			return err
		}
		if idx == nil {
			printMiss(st.Name, "no index built; run 'sigex fetch' first")
			continue
		}
		for _, m := range idx.Query(h.hash) {
			anyMatch = true
			line := fmt.Sprintf("distance %d, collaboration %s", m.Distance, m.Payload)
			if ops := opinionsFor(env, m.Payload, st.Name, h.hash); ops != "" {
				line += ", opinions: " + ops
			}
			printOK(st.Name, line)
		}
	}
	if !anyMatch {
		printMiss("", "no matches")
	}
	return nil
}

// validateHash treats input as an already-computed hash and pairs it with
// every type registered for the content type that accepts it.
func validateHash(reg *signal.Registry, contentType, hash string) ([]hashedInput, error) {
	ct, err := content.Parse(contentType)
	if err != nil {
		return nil, err
	}
	var out []hashedInput
	for _, st := range reg.ForContentType(ct) {
		if st.Validate != nil && !st.Validate(hash) {
			continue
		}
		out = append(out, hashedInput{typeName: st.Name, hash: hash})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no %s signal type accepts this hash", signal.ErrMalformedHash, ct)
	}
	return out, nil
}

// opinionsFor resolves recorded opinions for a matched signal. Fuzzy
// matches may hit a stored hash that differs from the queried one; those
// resolve to no opinions rather than failing.
func opinionsFor(env *cliEnv, collabName, typeName, hash string) string {
	state, err := env.states.Read(collabName)
	if err != nil || state == nil {
		return ""
	}
	md := state.Records[typeName][hash]
	if md == nil {
		return ""
	}
	var parts []string
	for _, op := range md.Opinions {
		parts = append(parts, op.Category.String())
	}
	return strings.Join(parts, ", ")
}
