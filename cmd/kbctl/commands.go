package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/services"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	faint   = color.New(color.Faint)

	similarLimit int
	searchSystem string
	saveAfter    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <problem description>",
	Short: "Suggest solutions for a problem",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := kb.Knowledge.Analyze(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		heading.Printf("System: %s", res.SystemType)
		fmt.Printf("  confidence %.0f%%\n", res.Confidence*100)
		if res.Degraded {
			warn.Println("Case history unavailable, suggestions come from rules only")
		}
		for i, s := range res.SuggestedSolutions {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
		if len(res.SimilarCases) > 0 {
			heading.Println("Similar cases")
			for _, c := range res.SimilarCases {
				printCase(c)
			}
		}
		faint.Printf("analysis %s\n", res.AnalysisID)
		return nil
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <problem description>",
	Short: "List cases similar to a problem",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scored, err := kb.Knowledge.FindSimilarCases(cmd.Context(), strings.Join(args, " "), similarLimit)
		if err != nil {
			return err
		}
		if len(scored) == 0 {
			warn.Println("No similar cases")
			return nil
		}
		for _, s := range scored {
			fmt.Printf("%s ", relevanceColor(s.Relevance).Sprintf("[%.2f %s]", s.Score, s.Relevance))
			printCase(s.Case)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search cases by text, optionally within one system",
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := kb.Knowledge.SearchCases(cmd.Context(), strings.Join(args, " "), searchSystem)
		if err != nil {
			return err
		}
		heading.Printf("%d case(s)\n", len(cases))
		for _, c := range cases {
			printCase(c)
		}
		return nil
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the system classifier on every stored case",
	RunE: func(cmd *cobra.Command, args []string) error {
		trained, err := kb.Knowledge.TrainModels(cmd.Context())
		if errors.Is(err, services.ErrNotEnoughCases) || errors.Is(err, services.ErrNotEnoughLabels) {
			warn.Printf("Not trained: %v\n", err)
			return nil
		}
		if err != nil {
			return err
		}
		if !trained {
			warn.Println("Not trained")
			return nil
		}
		good.Println("Classifier trained")
		if saveAfter {
			return saveModels(cmd.Context())
		}
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the learning state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveModels(cmd.Context())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show model status and learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := kb.Knowledge.GetModelInfo(cmd.Context())
		heading.Println("Model")
		if info.IsTrained {
			good.Println("  trained")
		} else {
			warn.Println("  not trained")
		}
		st := info.LearningStatistics
		fmt.Printf("  feedback events:         %d\n", st.FeedbackEvents)
		fmt.Printf("  learned tokens:          %d\n", st.LearnedTokens)
		fmt.Printf("  successful combinations: %d\n", st.SuccessfulCombinations)
		fmt.Printf("  ranking weights:         %d\n", st.RankingWeights)
		fmt.Printf("  systems: %s\n", strings.Join(info.SupportedSystems, ", "))
		fmt.Printf("  store:   %s\n", kb.StoreName)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := kb.Knowledge.Statistics(cmd.Context())
		if err != nil {
			return err
		}
		heading.Printf("%d case(s)", stats.TotalCases)
		fmt.Printf(", %d with feedback, %d in the last 7 days\n", stats.CasesWithFeedback, stats.RecentCases)
		fmt.Printf("average effectiveness: %.2f\n", stats.AverageEffectiveness)

		systems := make([]string, 0, len(stats.CasesBySystem))
		for s := range stats.CasesBySystem {
			systems = append(systems, s)
		}
		sort.Strings(systems)
		for _, s := range systems {
			fmt.Printf("  %-20s %d\n", s, stats.CasesBySystem[s])
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the demonstration cases and train",
	RunE: func(cmd *cobra.Command, args []string) error {
		added, trained, err := kb.Knowledge.PopulateSampleCases(cmd.Context())
		if err != nil {
			return err
		}
		good.Printf("%d case(s) added", added)
		fmt.Printf(", trained: %t\n", trained)
		if trained {
			return saveModels(cmd.Context())
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 5, "maximum number of cases")
	searchCmd.Flags().StringVarP(&searchSystem, "system", "s", "", "only search this system")
	trainCmd.Flags().BoolVar(&saveAfter, "save", true, "persist the model after training")

	rootCmd.AddCommand(analyzeCmd, similarCmd, searchCmd, trainCmd, saveCmd, infoCmd, statsCmd, seedCmd)
}

func saveModels(ctx context.Context) error {
	if err := kb.Knowledge.SaveModels(ctx); err != nil {
		return err
	}
	good.Println("Model saved")
	return nil
}

func printCase(c models.Case) {
	score := "-"
	if c.EffectivenessScore != nil {
		score = fmt.Sprintf("%.1f", *c.EffectivenessScore)
	}
	fmt.Printf("#%d %s ", c.ID, color.New(color.Bold).Sprint(c.SystemType))
	faint.Printf("(score %s)\n", score)
	fmt.Printf("    %s\n", truncate(c.ProblemDescription, 100))
}

func relevanceColor(relevance string) *color.Color {
	switch relevance {
	case "high":
		return good
	case "medium":
		return warn
	}
	return faint
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
