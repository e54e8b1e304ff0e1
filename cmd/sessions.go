package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gentaxai/gentax/internal/config"
	"github.com/gentaxai/gentax/internal/log"
	"github.com/gentaxai/gentax/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect persisted chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions and their turn counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsList()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the transcript of one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsShow(args[0])
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openStore() (*session.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := session.Open(cfg.SessionsFile, log.NewNop())
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return store, nil
}

func runSessionsList() error {
	store, err := openStore()
	if err != nil {
		return err
	}

	ids := store.SessionIDs()
	if len(ids) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Sessions (%d):\n", len(ids))
	for _, id := range ids {
		turns, _ := store.Turns(id)
		fmt.Printf("  %s  %d turns\n", id, len(turns))
	}
	return nil
}

func runSessionsShow(id string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	turns, ok := store.Turns(id)
	if !ok {
		return fmt.Errorf("session %q: %w", id, session.ErrSessionNotFound)
	}

	fmt.Printf("Session: %s (%d turns)\n\n", id, len(turns))
	for _, turn := range turns {
		fmt.Printf("%s> %s\n\n", turn.Role, turn.Content)
	}
	return nil
}
