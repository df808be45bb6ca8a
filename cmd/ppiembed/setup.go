// ABOUTME: Cobra command for interactive node2vec and FAIRSCAPE setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect and validate settings.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/ppiembed/internal/config"
	"github.com/2389-research/ppiembed/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure node2vec and FAIRSCAPE registration",
	Long:  "Interactive wizard to choose the node2vec binary and store FAIRSCAPE API credentials.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(tui.Values{
		Node2VecCommand: cfg.Node2Vec.Command,
		APIURL:          cfg.Fairscape.APIURL,
		Username:        cfg.Fairscape.Username,
		Token:           cfg.Fairscape.Token,
	})

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	values := final.Result()
	cfg.Node2Vec.Command = values.Node2VecCommand
	cfg.Fairscape.APIURL = values.APIURL
	cfg.Fairscape.Username = values.Username
	cfg.Fairscape.Token = values.Token

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}
