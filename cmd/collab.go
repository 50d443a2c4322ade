package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/fetch"
	"github.com/sigexhq/sigex-cli/internal/fetch/graph"
)

var collabCmd = &cobra.Command{
	Use:   "collab",
	Short: "Manage collaboration configs",
}

var collabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured collaborations",
	Args:  cobra.NoArgs,
	RunE:  runCollabList,
}

var (
	flagCollabAPI          string
	flagCollabDisabled     bool
	flagCollabPrivacyGroup string
	flagCollabOnlyTypes    []string
	flagCollabNotTypes     []string
)

var collabCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create or update a collaboration config",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollabCreate,
}

var collabDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collaboration config and its fetched state",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollabDelete,
}

func init() {
	collabCreateCmd.Flags().StringVar(&flagCollabAPI, "api", fetch.SampleAPIName, "Exchange API the collaboration fetches from")
	collabCreateCmd.Flags().BoolVar(&flagCollabDisabled, "disabled", false, "Create the collaboration disabled")
	collabCreateCmd.Flags().StringVar(&flagCollabPrivacyGroup, "privacy-group", "", "Privacy group ID (graph API only)")
	collabCreateCmd.Flags().StringSliceVar(&flagCollabOnlyTypes, "only-type", nil, "Restrict the collaboration to these signal types")
	collabCreateCmd.Flags().StringSliceVar(&flagCollabNotTypes, "not-type", nil, "Exclude these signal types")

	collabCmd.AddCommand(collabListCmd, collabCreateCmd, collabDeleteCmd)
	rootCmd.AddCommand(collabCmd)
}

func runCollabList(_ *cobra.Command, _ []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	collabs, err := env.collabs.GetAll()
	if err != nil {
		return err
	}
	if len(collabs) == 0 {
		printMiss("", "no collaborations configured")
		return nil
	}
	for _, c := range collabs {
		detail := fmt.Sprintf("api=%s", c.API)
		if c.PrivacyGroup != "" {
			detail += fmt.Sprintf(" privacy-group=%s", c.PrivacyGroup)
		}
		if len(c.OnlySignalTypes) > 0 {
			detail += fmt.Sprintf(" only=%s", strings.Join(c.OnlySignalTypes, ","))
		}
		if len(c.NotSignalTypes) > 0 {
			detail += fmt.Sprintf(" not=%s", strings.Join(c.NotSignalTypes, ","))
		}
		if c.Enabled {
			printOK(c.Name, detail)
		} else {
			printSkip(c.Name, detail+" (disabled)")
		}
	}
	return nil
}

func runCollabCreate(_ *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	if flagCollabAPI != fetch.SampleAPIName && flagCollabAPI != graph.APIName {
		return fmt.Errorf("unknown exchange API %q (known: %s, %s)",
			flagCollabAPI, fetch.SampleAPIName, graph.APIName)
	}
	if flagCollabAPI == graph.APIName && flagCollabPrivacyGroup == "" {
		return fmt.Errorf("the graph API requires --privacy-group")
	}
	for _, t := range append(append([]string{}, flagCollabOnlyTypes...), flagCollabNotTypes...) {
		if _, err := env.registry.ByName(t); err != nil {
			return err
		}
	}

	c := &fetch.Collab{
		Name:            args[0],
		API:             flagCollabAPI,
		Enabled:         !flagCollabDisabled,
		OnlySignalTypes: flagCollabOnlyTypes,
		NotSignalTypes:  flagCollabNotTypes,
		PrivacyGroup:    flagCollabPrivacyGroup,
	}
	if err := env.collabs.Save(c); err != nil {
		return err
	}
	printOK(c.Name, "collaboration saved")
	return nil
}

func runCollabDelete(_ *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	name := args[0]
	if _, err := env.collabs.Get(name); err != nil {
		return err
	}
	if err := env.collabs.Delete(name); err != nil {
		return err
	}
	if err := env.states.Clear(name); err != nil {
		return err
	}
	printOK(name, "collaboration and fetched state deleted")
	printInfo("", "run 'sigex dataset --rebuild' to drop its signals from the indexes")
	return nil
}
