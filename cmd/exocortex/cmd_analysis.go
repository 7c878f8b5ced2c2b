package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exocortex-go/exocortex/internal/patterns"
)

var (
	consolidateTag        string
	consolidateMinCluster int
	consolidateThreshold  float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a health check over the knowledge base",
	Run: func(cmd *cobra.Command, args []string) {
		runAnalyze()
	},
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Cluster similar memories into patterns",
	Run: func(cmd *cobra.Command, args []string) {
		runConsolidate()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus-wide counts and top tags",
	Run: func(cmd *cobra.Command, args []string) {
		runStats()
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd, consolidateCmd, statsCmd)

	consolidateCmd.Flags().StringVar(&consolidateTag, "tag", "", "restrict consolidation to memories with this tag")
	consolidateCmd.Flags().IntVar(&consolidateMinCluster, "min-cluster-size", 3, "minimum memories to form a pattern")
	consolidateCmd.Flags().Float64Var(&consolidateThreshold, "threshold", 0, "override the clustering similarity threshold")
}

func runAnalyze() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	result, err := a.svc.AnalyzeKnowledge(context.Background())
	if err != nil {
		fatalf("Error analyzing: %v", err)
	}

	fmt.Printf("Health score: %.0f/100 (%d memories)\n", result.HealthScore, result.TotalMemories)
	for _, issue := range result.Issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.IssueType, issue.Message)
		if issue.SuggestedAction != "" {
			fmt.Printf("    -> %s\n", issue.SuggestedAction)
		}
	}
	for _, s := range result.Suggestions {
		fmt.Printf("  suggestion: %s\n", s)
	}
}

func runConsolidate() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	result, err := a.svc.ConsolidatePatterns(context.Background(), patterns.Options{
		TagFilter:           consolidateTag,
		MinClusterSize:      consolidateMinCluster,
		SimilarityThreshold: consolidateThreshold,
	})
	if err != nil {
		fatalf("Error consolidating: %v", err)
	}

	fmt.Printf("Found %d candidate cluster(s), created %d pattern(s), linked %d memorie(s)\n",
		result.PatternsFound, result.PatternsCreated, result.MemoriesLinked)
	for _, d := range result.Details {
		fmt.Printf("  [%s] %s (%d instances)\n", d.PatternID[:8], d.Summary, d.InstanceCount)
	}
}

func runStats() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	s, err := a.svc.Stats(context.Background())
	if err != nil {
		fatalf("Error: %v", err)
	}

	fmt.Printf("Total memories:    %d\n", s.TotalMemories)
	fmt.Printf("Total patterns:    %d\n", s.TotalPatterns)
	fmt.Printf("Total links:       %d\n", s.TotalLinks)
	fmt.Printf("Unlinked memories: %d\n", s.UnlinkedMemories)

	var byType []string
	for t, n := range s.ByType {
		byType = append(byType, fmt.Sprintf("%s=%d", t, n))
	}
	fmt.Printf("By type:           %s\n", strings.Join(byType, ", "))

	fmt.Println("Top tags:")
	for _, tc := range s.TopTags {
		fmt.Printf("  %s (%d)\n", tc.Tag, tc.Count)
	}
}
