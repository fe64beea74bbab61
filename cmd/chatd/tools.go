package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chat_backend/internal/catalog"
	"chat_backend/internal/keys"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new base64 AES-256 key for KEY_MANAGEMENT_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keys.GenerateKey(32)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models [provider]",
		Short: "List the built-in model catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filterProvider := ""
			if len(args) > 0 {
				filterProvider = args[0]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-28s %-30s %-8s %s\n", "Model", "Name", "Mode", "Adapters")
			fmt.Fprintln(out, strings.Repeat("-", 100))

			byProvider := catalog.Default().ByProvider()
			for _, m := range catalog.ListModels() {
				if filterProvider != "" && !contains(byProvider[filterProvider], m.ID) {
					continue
				}
				fmt.Fprintf(out, "%-28s %-30s %-8s %s\n", m.ID, m.Name, m.Mode, strings.Join(m.Adapters, ", "))
			}
			return nil
		},
	}
}

func contains(ids []string, id string) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}
