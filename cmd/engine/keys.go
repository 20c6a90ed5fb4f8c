package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/secrets"
)

// providerAccount maps a provider name to its env var and keyring account.
func providerAccount(cfg config.Config, provider string) (envVar, account string, err error) {
	switch strings.ToLower(provider) {
	case "brave":
		return secrets.BraveEnv, cfg.Search.KeyringAccount, nil
	case "anthropic":
		return secrets.AnthropicEnv, cfg.Drafting.KeyringAccount, nil
	}
	return "", "", fmt.Errorf("unknown provider %q (want brave or anthropic)", provider)
}

func newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys in the OS keychain",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <brave|anthropic> <key>",
		Short: "Store an API key in the keychain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			_, acct, err := providerAccount(cfg, args[0])
			if err != nil {
				return err
			}
			return secrets.SetAPIKey(acct, args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <brave|anthropic>",
		Short: "Remove an API key from the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			_, acct, err := providerAccount(cfg, args[0])
			if err != nil {
				return err
			}
			return secrets.DeleteAPIKey(acct)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report which API keys are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			for _, p := range []string{"brave", "anthropic"} {
				env, acct, _ := providerAccount(cfg, p)
				state := "missing"
				if secrets.HasAPIKey(env, acct) {
					state = "ok"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", p, state)
			}
			return nil
		},
	})
	return cmd
}
