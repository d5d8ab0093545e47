package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"eventdesk/internal/models"
)

// prefsCmd groups the preference subcommands
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show and change UI preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the locally stored preferences",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

var prefsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Sync preferences from the backend and print the result",
	Args:  cobra.NoArgs,
	RunE:  runPrefsFetch,
}

var prefsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Push the current preferences to the backend",
	Args:  cobra.NoArgs,
	RunE:  runPrefsSave,
}

var prefsSetThemeCmd = &cobra.Command{
	Use:       "set-theme [light|dark|system]",
	Short:     "Change the theme",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(models.ThemeLight), string(models.ThemeDark), string(models.ThemeSystem)},
	RunE:      runPrefsSetTheme,
}

var prefsSetLanguageCmd = &cobra.Command{
	Use:   "set-language [code]",
	Short: "Change the UI language",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrefsSetLanguage,
}

var prefsSetModelCmd = &cobra.Command{
	Use:   "set-model [model]",
	Short: "Change the selected remote model",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrefsSetModel,
}

var prefsOllamaCmd = &cobra.Command{
	Use:   "ollama",
	Short: "Check the Ollama server and refresh its model list",
	Args:  cobra.NoArgs,
	RunE:  runPrefsOllama,
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsFetchCmd)
	prefsCmd.AddCommand(prefsSaveCmd)
	prefsCmd.AddCommand(prefsSetThemeCmd)
	prefsCmd.AddCommand(prefsSetLanguageCmd)
	prefsCmd.AddCommand(prefsSetModelCmd)
	prefsCmd.AddCommand(prefsOllamaCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	return printPreferences(cmd.OutOrStdout(), stores.Preferences.Snapshot())
}

func runPrefsFetch(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	if !stores.Preferences.FetchPreferences(cmd.Context()) {
		fmt.Fprintln(cmd.ErrOrStderr(), "backend unavailable, showing local preferences")
	}
	return printPreferences(cmd.OutOrStdout(), stores.Preferences.Snapshot())
}

func runPrefsSave(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	ok, err := stores.Preferences.SaveSettings(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "a save is already in progress")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "preferences saved")
	return nil
}

func runPrefsSetTheme(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	stores.Preferences.SetTheme(models.Theme(args[0]))
	stores.Preferences.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", args[0])
	return nil
}

func runPrefsSetLanguage(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	stores.Preferences.SetLanguage(strings.TrimSpace(args[0]))
	stores.Preferences.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "language set to %s\n", stores.Preferences.ActiveLanguage())
	return nil
}

func runPrefsSetModel(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	stores.Preferences.SetSelectedModel(args[0])
	stores.Preferences.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "model set to %s\n", stores.Preferences.ActiveModel())
	return nil
}

func runPrefsOllama(cmd *cobra.Command, args []string) error {
	stores, closeFn, err := openStores()
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	if !stores.Preferences.CheckOllamaConnection(cmd.Context()) {
		fmt.Fprintln(out, "ollama: not connected")
		return nil
	}
	fmt.Fprintln(out, "ollama: connected")

	names, ok := stores.Preferences.RefreshOllamaModels(cmd.Context())
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "could not refresh model list, showing cached models")
	}
	for _, n := range names {
		fmt.Fprintf(out, "  %s\n", n)
	}
	return nil
}

func printPreferences(w io.Writer, state models.PreferencesState) error {
	// Keys are managed by the keys command and never printed.
	state.ModelSettings.APIKeys = nil
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
