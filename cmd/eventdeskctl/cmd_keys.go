package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eventdesk/internal/models"
)

func providerNames() []string {
	out := make([]string, 0, len(models.Providers))
	for _, p := range models.Providers {
		out = append(out, string(p))
	}
	return out
}

// keysCmd manages provider API keys
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys",
	Long: `Manage the API keys used for model provider calls.

Keys are validated by prefix (openai: sk-, deepseek: dsk-, claude: sk-,
qwen: qwk-) and stored only on this machine.`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers with a stored key",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

var keysSetCmd = &cobra.Command{
	Use:   "set [provider] [key]",
	Short: "Store the API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE:  runKeysSet,
}

var keysRemoveCmd = &cobra.Command{
	Use:       "remove [provider]",
	Short:     "Remove the API key for a provider",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: providerNames(),
	RunE:      runKeysRemove,
}

var keysClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored API key",
	Args:  cobra.NoArgs,
	RunE:  runKeysClear,
}

func init() {
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysRemoveCmd)
	keysCmd.AddCommand(keysClearCmd)
}

func runKeysList(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	summary := stores.APIKeys.Summary()
	out := cmd.OutOrStdout()
	if len(summary.ActiveProviders) == 0 {
		fmt.Fprintln(out, "no API keys stored")
		return nil
	}
	for _, p := range summary.ActiveProviders {
		used := "never"
		if t, ok := summary.LastUsed[p]; ok {
			used = t.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-10s last used %s\n", p, used)
	}
	return nil
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	provider := models.Provider(args[0])
	ok, err := stores.APIKeys.SetKey(provider, args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("empty key for %s", provider)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s key\n", provider)
	return nil
}

func runKeysRemove(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	provider := models.Provider(args[0])
	if !stores.APIKeys.RemoveKey(provider) {
		fmt.Fprintf(cmd.OutOrStdout(), "no %s key stored\n", provider)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s key\n", provider)
	return nil
}

func runKeysClear(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	stores.APIKeys.ClearAllKeys()
	fmt.Fprintln(cmd.OutOrStdout(), "all API keys removed")
	return nil
}
