package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/content"
	"github.com/sigexhq/sigex-cli/internal/signal"
)

var hashCmd = &cobra.Command{
	Use:   "hash <content-type> <input>",
	Short: "Hash content with every applicable signal type",
	Long: `Hash runs the given input through every signal type registered for
the content type and prints one "<signal-type> <hash>" line per hasher.
The input is read as a file when a file at that path exists, otherwise
it is hashed as a literal string.`,
	Args: cobra.ExactArgs(2),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)
}

func runHash(_ *cobra.Command, args []string) error {
	reg, err := signal.NewRegistry()
	if err != nil {
		return err
	}
	hashes, err := hashInput(reg, args[0], args[1])
	if err != nil {
		return err
	}
	for _, h := range hashes {
		fmt.Printf("%s %s\n", h.typeName, h.hash)
	}
	return nil
}

type hashedInput struct {
	typeName string
	hash     string
}

// hashInput hashes input with every type registered for the content type,
// skipping types whose hashers cannot handle it. At least one type must
// produce a hash.
func hashInput(reg *signal.Registry, contentType, input string) ([]hashedInput, error) {
	ct, err := content.Parse(contentType)
	if err != nil {
		return nil, err
	}
	types := reg.ForContentType(ct)
	if len(types) == 0 {
		return nil, fmt.Errorf("no signal types registered for content type %q", ct)
	}

	fromFile := false
	if info, err := os.Stat(input); err == nil && info.Mode().IsRegular() {
		fromFile = true
	}

	var out []hashedInput
	var lastErr error
	for _, st := range types {
		var hash string
		var err error
		switch {
		case fromFile:
			hash, err = st.HashFromFile(input)
		case st.HashFromString != nil:
			hash, err = st.HashFromString(input)
		default:
			continue
		}
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", st.Name, err)
			continue
		}
		out = append(out, hashedInput{typeName: st.Name, hash: hash})
	}
	if len(out) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no signal type could hash %s content from this input", ct)
	}
	return out, nil
}
