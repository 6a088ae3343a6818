// Package main provides the tutor kernel's CLI entry point.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orneryd/tutorkernel/pkg/config"
	"github.com/orneryd/tutorkernel/pkg/kernel"
	"github.com/orneryd/tutorkernel/pkg/orchestrator"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tutor",
		Short: "A local, LLM-free reasoning kernel for a Socratic tutor",
		Long: `tutor drives a graph-backed reasoning kernel that turns short
natural-language utterances into guiding questions instead of declarative
answers, densifying its knowledge graph one turn at a time.`,
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive line-at-a-time tutoring session",
		RunE:  runRepl,
	}
	replCmd.Flags().String("data-dir", config.GetEnvStr("TUTORKERNEL_DATA_DIR", "./data"), "Graph store directory")
	replCmd.Flags().Bool("debug", config.GetEnvBool("TUTORKERNEL_DEBUG", false), "Print the per-tick scheduling trace after each reply")
	replCmd.Flags().Bool("tutor-profile", false, "Use the tighter 15/4/80/300ms orchestrator profile instead of the 20/5/100/500ms default")
	rootCmd.AddCommand(replCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the graph store directory and a default config file",
		RunE:  runInit,
	}
	initCmd.Flags().String("data-dir", "./data", "Graph store directory")
	rootCmd.AddCommand(initCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print memory, graph, and demon counters for an existing store",
		RunE:  runStats,
	}
	statsCmd.Flags().String("data-dir", config.GetEnvStr("TUTORKERNEL_DATA_DIR", "./data"), "Graph store directory")
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runRepl(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	debug, _ := cmd.Flags().GetBool("debug")
	tutorProfile, _ := cmd.Flags().GetBool("tutor-profile")

	cfg := config.LoadFromEnv()
	if dataDir != "" {
		cfg.GraphDataDir = dataDir
	}

	profile := orchestrator.Profile{
		MaxTicksPerTurn:  cfg.Orchestrator.MaxTicksPerTurn,
		MaxDemonsPerTick: cfg.Orchestrator.MaxDemonsPerTick,
		MaxMemorySlots:   cfg.Orchestrator.MaxMemorySlots,
		TickTimeout:      cfg.Orchestrator.TickTimeout,
	}
	if tutorProfile {
		tp := config.TutorProfile()
		profile = orchestrator.Profile{
			MaxTicksPerTurn:  tp.MaxTicksPerTurn,
			MaxDemonsPerTick: tp.MaxDemonsPerTick,
			MaxMemorySlots:   tp.MaxMemorySlots,
			TickTimeout:      tp.TickTimeout,
		}
	}

	k, err := kernel.Open(cfg.GraphDataDir, profile)
	if err != nil {
		return fmt.Errorf("opening kernel: %w", err)
	}
	defer k.Close()

	fmt.Printf("Connected to graph store at %s\n", cfg.GraphDataDir)
	fmt.Println("Type a message, or 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		result, err := k.Process(text, debug)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("tutor> %s\n", result.Response)
		if debug {
			for _, tick := range result.Trace {
				fmt.Printf("  %s\n", tick.String())
			}
		}
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Println("Goodbye.")
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dataDir, err)
	}

	configPath := dataDir + "/tutor.yaml"
	content := `data_dir: ` + dataDir + `
orchestrator:
  max_ticks_per_turn: 20
  max_demons_per_tick: 5
  max_memory_slots: 100
  tick_timeout: 500ms
logging:
  level: info
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Initialized graph store directory: %s\n", dataDir)
	fmt.Printf("Wrote default config: %s\n", configPath)
	fmt.Println("Next: tutor repl --data-dir", dataDir)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	k, err := kernel.Open(dataDir, orchestrator.DefaultProfile())
	if err != nil {
		return fmt.Errorf("opening kernel: %w", err)
	}
	defer k.Close()

	stats, err := k.Stats()
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	fmt.Println("Memory:")
	fmt.Printf("  slots:       %d\n", stats.Memory.Slots)
	fmt.Printf("  focused:     %d\n", stats.Memory.Focused)
	fmt.Printf("  total ticks: %d\n", stats.Memory.TotalTicks)
	fmt.Println("Graph:")
	fmt.Printf("  nouns:       %d\n", stats.Graph.Nouns)
	fmt.Printf("  relations:   %d\n", stats.Graph.Relations)
	fmt.Println("Demons:")
	fmt.Printf("  registered:  %d\n", stats.Demons.Registered)
	fmt.Printf("  total fired: %d\n", stats.Demons.TotalFired)
	fmt.Printf("  turns:       %d\n", stats.Demons.TurnsServed)
	return nil
}
