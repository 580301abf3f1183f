// Package main implements the daktusqa CLI for clinical protocol QA
// operations: memory initialization, feedback inspection, and the
// analyze-and-fix pipeline.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daktuslabs/daktus-qa-agent/internal/config"
	"github.com/daktuslabs/daktus-qa-agent/internal/feedback"
	"github.com/daktuslabs/daktus-qa-agent/internal/logging"
	"github.com/daktuslabs/daktus-qa-agent/internal/memory"
	"github.com/daktuslabs/daktus-qa-agent/internal/pipeline"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"

	// feedback filters
	filterMonth    string
	filterProtocol string
	filterModel    string

	// analyze options
	analyzePlaybook  string
	analyzeModel     string
	analyzeAutoApply bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "daktusqa",
	Short: "QA agent for Daktus clinical protocols",
	Long: `daktusqa analyzes Daktus Studio clinical protocols, learns from
reviewer feedback, and maintains the structured memory that filters
previously rejected suggestions.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	feedbackCmd.PersistentFlags().StringVar(&filterMonth, "month", "", "restrict to one month partition (e.g. 202512)")
	feedbackListCmd.Flags().StringVar(&filterProtocol, "protocol", "", "filter by protocol name")
	feedbackListCmd.Flags().StringVar(&filterModel, "model", "", "filter by LLM model")
	feedbackCmd.AddCommand(feedbackListCmd)
	feedbackCmd.AddCommand(feedbackStatsCmd)

	analyzeCmd.Flags().StringVar(&analyzePlaybook, "playbook", "", "path to the clinical playbook")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "LLM model override")
	analyzeCmd.Flags().BoolVar(&analyzeAutoApply, "auto-apply", false, "apply corrections automatically")

	rootCmd.AddCommand(initMemoryCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// initMemoryCmd mines the feedback history into structured rules
var initMemoryCmd = &cobra.Command{
	Use:   "init-memory [memory-file]",
	Short: "Mine feedback history into structured memory rules",
	Long: `Parse the feedback history in the memory file, distill every
rejected suggestion into a content-addressed rule, and merge the result
into the RULES_REJECTED block. Re-running over unchanged history adds
nothing.

Examples:
  # Initialize the default memory file
  daktusqa init-memory

  # Initialize a specific file
  daktusqa init-memory reports/memory_qa.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInitMemory,
}

// feedbackCmd groups feedback session operations
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Inspect stored feedback sessions",
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored feedback sessions",
	Long: `List feedback sessions, optionally filtered by month, protocol
name, or LLM model.

Examples:
  # All sessions
  daktusqa feedback list

  # One month, one protocol
  daktusqa feedback list --month 202512 --protocol prot-sepse-adulto`,
	RunE: runFeedbackList,
}

var feedbackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate feedback into relevance statistics",
	Long: `Compute session counts, average quality rating, relevance rates,
and the most rejected suggestion categories.

Examples:
  # Over all history
  daktusqa feedback stats

  # Over one month
  daktusqa feedback stats --month 202512`,
	RunE: runFeedbackStats,
}

// analyzeCmd runs the analyze-and-fix pipeline
var analyzeCmd = &cobra.Command{
	Use:   "analyze <protocol.json>",
	Short: "Analyze a protocol and apply corrections",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func runInitMemory(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	path := cfg.Memory.File
	if len(args) == 1 {
		path = args[0]
	}

	engine, err := memory.NewEngine(&memory.Config{
		Path:                path,
		SimilarityThreshold: cfg.Memory.SimilarityThreshold,
	}, logger)
	if err != nil {
		return err
	}

	result, err := engine.InitializeFromHistory(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Memory initialized: %s\n", path)
	fmt.Printf("  Extracted suggestions: %d\n", result.Extracted)
	fmt.Printf("  New rules:             %d\n", result.NewRules)
	fmt.Printf("  Total rules:           %d\n", result.TotalRules)
	return nil
}

func runFeedbackList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := feedback.NewStore(&feedback.Config{BasePath: cfg.Feedback.Path}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Load(cmd.Context(), feedback.LoadFilter{
		Month:        filterMonth,
		ProtocolName: filterProtocol,
		ModelUsed:    filterModel,
	})
	if err != nil {
		return err
	}

	for _, session := range sessions {
		fmt.Printf("%s  %s  %s\n", session.ID(), session.ProtocolName(), session.ModelUsed())
	}
	fmt.Printf("%d sessions\n", len(sessions))
	return nil
}

func runFeedbackStats(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := feedback.NewStore(&feedback.Config{BasePath: cfg.Feedback.Path}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Statistics(cmd.Context(), filterMonth)
	if err != nil {
		return err
	}

	return printJSON(stats)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	model := cfg.Pipeline.Model
	if analyzeModel != "" {
		model = analyzeModel
	}

	result, err := pipeline.AnalyzeAndFix(cmd.Context(), pipeline.Options{
		ProtocolPath:        args[0],
		PlaybookPath:        analyzePlaybook,
		Model:               model,
		AutoApply:           analyzeAutoApply || cfg.Pipeline.AutoApply,
		ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold,
		CostLimit:           cfg.Pipeline.CostLimit,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
