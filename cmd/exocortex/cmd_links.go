package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exocortex-go/exocortex/internal/memory"
)

var (
	linkRelation string
	linkReason   string

	exploreTagSiblings     bool
	exploreContextSiblings bool
	exploreLimit           int

	traceDirection string
	traceDepth     int
)

var linkCmd = &cobra.Command{
	Use:   "link <source> <target>",
	Short: "Create a typed relation between two memories",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runLink(args[0], args[1])
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <source> <target>",
	Short: "Remove the relation between two memories",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runUnlink(args[0], args[1])
	},
}

var exploreCmd = &cobra.Command{
	Use:   "explore <id>",
	Short: "Show a memory's direct links, tag siblings, and context siblings",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runExplore(args[0])
	},
}

var traceCmd = &cobra.Command{
	Use:   "trace <id>",
	Short: "Walk the lineage relations (supersedes/evolved_from/caused_by/rejected_because) from a memory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTrace(args[0])
	},
}

func init() {
	rootCmd.AddCommand(linkCmd, unlinkCmd, exploreCmd, traceCmd)

	linkCmd.Flags().StringVar(&linkRelation, "relation", "related", "relation type")
	linkCmd.Flags().StringVar(&linkReason, "reason", "", "why these memories are related")

	exploreCmd.Flags().BoolVar(&exploreTagSiblings, "tag-siblings", true, "include memories sharing tags")
	exploreCmd.Flags().BoolVar(&exploreContextSiblings, "context-siblings", true, "include memories from the same context")
	exploreCmd.Flags().IntVar(&exploreLimit, "max-per-category", 10, "maximum results per category")

	traceCmd.Flags().StringVar(&traceDirection, "direction", "backward", "backward (what led here) or forward (what came after)")
	traceCmd.Flags().IntVar(&traceDepth, "depth", memory.DefaultMaxLineageDepth, "maximum hops to follow")
}

func runLink(source, target string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	edge, err := a.svc.Link(context.Background(), source, target, memory.RelationType(linkRelation), linkReason)
	if err != nil {
		fatalf("Error linking: %v", err)
	}
	fmt.Printf("Linked %s -%s-> %s\n", edge.Source, edge.RelationType, edge.Target)
}

func runUnlink(source, target string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	ok, err := a.svc.Unlink(context.Background(), source, target)
	if err != nil {
		fatalf("Error unlinking: %v", err)
	}
	if !ok {
		fatalf("no link found %s -> %s", source, target)
	}
	fmt.Printf("Unlinked %s -> %s\n", source, target)
}

func runExplore(id string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	result, err := a.svc.Explore(context.Background(), memory.ExploreOptions{
		ID: id, TagSiblings: exploreTagSiblings, ContextSiblings: exploreContextSiblings, MaxPerCategory: exploreLimit,
	})
	if err != nil {
		fatalf("Error exploring: %v", err)
	}

	fmt.Println("Directly linked:")
	for _, m := range result.Linked {
		printMemorySummary(m)
	}
	fmt.Println("Tag siblings:")
	for _, m := range result.ByTag {
		printMemorySummary(m)
	}
	fmt.Println("Context siblings:")
	for _, m := range result.ByContext {
		printMemorySummary(m)
	}
}

func runTrace(id string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	direction := memory.DirectionBackward
	if traceDirection == "forward" {
		direction = memory.DirectionForward
	}

	nodes, err := a.svc.TraceLineage(context.Background(), id, direction, nil, traceDepth)
	if err != nil {
		fatalf("Error tracing lineage: %v", err)
	}
	for _, n := range nodes {
		fmt.Printf("depth %d: [%s] %s (%s, via %s)\n", n.Depth, n.ID[:8], n.Summary, n.MemoryType, n.RelationType)
	}
}
