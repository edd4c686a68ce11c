package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
)

var (
	configShow        bool
	configSetProvider string
	configModel       string
	configAPIKey      string
	configEdit        bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		switch {
		case configShow:
			fmt.Printf("Current AI Provider: %s\n", cfg.AI.Primary)
			if model, ok := cfg.AI.Models[cfg.AI.Primary]; ok {
				if model.Endpoint != "" {
					fmt.Printf("Endpoint: %s\n", model.Endpoint)
				}
				fmt.Printf("Model: %s\n", model.Model)
			}
			return nil

		case configSetProvider != "":
			cfg.AI.Primary = configSetProvider
			if cfg.AI.Models == nil {
				cfg.AI.Models = map[string]config.AIModel{}
			}
			m := cfg.AI.Models[configSetProvider]
			if configModel != "" {
				m.Model = configModel
			}
			if configAPIKey != "" {
				m.APIKey = configAPIKey
				m.Enabled = true
			}
			cfg.AI.Models[configSetProvider] = m

			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Printf("AI provider set to %s\n", configSetProvider)
			return nil

		case configEdit:
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "nano"
			}
			c := exec.Command(editor, path)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c.Run()

		default:
			fmt.Println("Use --show, --set-provider, or --edit")
			return nil
		}
	},
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "show the active AI provider")
	configCmd.Flags().StringVar(&configSetProvider, "set-provider", "", "set the AI provider (ollama, openai, anthropic)")
	configCmd.Flags().StringVar(&configModel, "model", "", "model name for --set-provider")
	configCmd.Flags().StringVar(&configAPIKey, "api-key", "", "API key for --set-provider")
	configCmd.Flags().BoolVar(&configEdit, "edit", false, "open the config file in $EDITOR")
	rootCmd.AddCommand(configCmd)
}
