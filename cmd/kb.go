package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gentaxai/gentax/internal/config"
	"github.com/gentaxai/gentax/internal/knowledge"
	"github.com/gentaxai/gentax/internal/log"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the knowledge base",
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base source and chunk counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKBStats()
	},
}

var kbSearchTopK int

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a retrieval query against the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKBSearch(cmd.Context(), args[0])
	},
}

func init() {
	kbSearchCmd.Flags().IntVarP(&kbSearchTopK, "top-k", "k", 5, "number of snippets to return")
	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbSearchCmd)
	rootCmd.AddCommand(kbCmd)
}

func openKB() (*knowledge.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	kb := knowledge.NewStore(cfg.KnowledgeDir, log.NewNop())
	if err := kb.Load(); err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	return kb, nil
}

func runKBStats() error {
	kb, err := openKB()
	if err != nil {
		return err
	}

	sources, chunks, err := kb.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Sources: %d\n", sources)
	fmt.Printf("Chunks:  %d\n", chunks)
	return nil
}

func runKBSearch(ctx context.Context, query string) error {
	kb, err := openKB()
	if err != nil {
		return err
	}

	snippets, err := kb.Search(ctx, query, kbSearchTopK)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	if len(snippets) == 0 {
		fmt.Println("No matching snippets.")
		return nil
	}

	for i, sn := range snippets {
		fmt.Printf("[%d] %s#chunk%d\n%s\n\n", i+1, sn.Source, sn.ChunkID, sn.Text)
	}
	return nil
}
