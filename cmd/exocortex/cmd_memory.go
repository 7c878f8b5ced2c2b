package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exocortex-go/exocortex/internal/memory"
	"github.com/exocortex-go/exocortex/internal/service"
)

var (
	storeType      string
	storeTags      []string
	storeContext   string
	storePainful   bool
	storeAutoLink  bool

	recallLimit   int
	recallContext string
	recallTag     string
	recallType    string

	listLimit  int
	listOffset int

	updateContent string
	updateTags    []string
	updateType    string
)

var storeCmd = &cobra.Command{
	Use:   "store <content>",
	Short: "Store a memory",
	Long: `Store a new memory with the given content.

Examples:
  exocortex store "Switching to connection pooling fixed the timeout bug" --type success
  exocortex store "Retry with backoff before giving up" --tags networking,retries`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStore(strings.Join(args, " "))
	},
}

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search memories by hybrid similarity",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRecall(strings.Join(args, " "))
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one memory by id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGet(args[0])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories newest-first",
	Run: func(cmd *cobra.Command, args []string) {
		runList()
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a memory's content, tags, or type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runUpdate(args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a memory and its incident links",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runDelete(args[0])
	},
}

func init() {
	rootCmd.AddCommand(storeCmd, recallCmd, getCmd, listCmd, updateCmd, deleteCmd)

	storeCmd.Flags().StringVarP(&storeType, "type", "t", "note", "memory type (insight, success, failure, decision, note)")
	storeCmd.Flags().StringSliceVar(&storeTags, "tags", nil, "comma-separated tags")
	storeCmd.Flags().StringVar(&storeContext, "context", "default", "context/project name")
	storeCmd.Flags().BoolVar(&storePainful, "painful", false, "override sentiment with a painful/not-painful hint")
	storeCmd.Flags().BoolVar(&storeAutoLink, "auto-analyze", true, "suggest links and insights against the existing corpus")

	recallCmd.Flags().IntVarP(&recallLimit, "limit", "l", 10, "maximum results")
	recallCmd.Flags().StringVar(&recallContext, "context", "", "filter by context/project name")
	recallCmd.Flags().StringVar(&recallTag, "tag", "", "filter by tag")
	recallCmd.Flags().StringVar(&recallType, "type", "", "filter by memory type")

	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "maximum results")
	listCmd.Flags().IntVarP(&listOffset, "offset", "o", 0, "offset for pagination")

	updateCmd.Flags().StringVar(&updateContent, "content", "", "replace content (re-embeds and preserves links)")
	updateCmd.Flags().StringSliceVar(&updateTags, "tags", nil, "replace tags")
	updateCmd.Flags().StringVar(&updateType, "type", "", "replace memory type")
}

func runStore(content string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	opts := service.StoreOptions{
		Content:     content,
		ContextName: storeContext,
		Tags:        storeTags,
		MemoryType:  memory.Type(storeType),
		AutoAnalyze: storeAutoLink,
	}
	if cmdFlagChanged("painful") {
		opts.IsPainful = &storePainful
	}

	result, err := a.svc.Store(context.Background(), opts)
	if err != nil {
		fatalf("Error storing memory: %v", err)
	}

	fmt.Printf("Stored %s\n", result.MemoryID)
	fmt.Printf("  summary: %s\n", result.Summary)
	for _, l := range result.SuggestedLinks {
		fmt.Printf("  suggested link -> %s (%s, %.0f%% similar): %s\n", l.TargetID, l.SuggestedRelation, l.Similarity*100, l.Reason)
	}
	for _, ins := range result.Insights {
		fmt.Printf("  insight [%s]: %s\n", ins.InsightType, ins.Message)
	}
}

func runRecall(query string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	result, err := a.svc.Recall(context.Background(), service.RecallOptions{
		Query: query, Limit: recallLimit, ContextFilter: recallContext,
		TagFilter: recallTag, TypeFilter: memory.Type(recallType), TouchOnRecall: true,
	})
	if err != nil {
		fatalf("Error recalling: %v", err)
	}

	fmt.Printf("%d result(s) for %q:\n\n", len(result.Memories), query)
	for _, m := range result.Memories {
		printMemorySummary(m)
	}
}

func runGet(id string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	m, err := a.svc.Get(context.Background(), id)
	if err != nil {
		fatalf("Error: %v", err)
	}
	if m == nil {
		fatalf("memory not found: %s", id)
	}
	printMemoryDetail(m)
}

func runList() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	result, err := a.svc.List(context.Background(), service.ListOptions{Limit: listLimit, Offset: listOffset})
	if err != nil {
		fatalf("Error: %v", err)
	}
	for _, m := range result.Memories {
		printMemorySummary(m)
	}
	if result.HasMore {
		fmt.Printf("... more available, try --offset %d\n", listOffset+listLimit)
	}
}

func runUpdate(id string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	opts := memory.UpdateOptions{}
	if cmdFlagChanged("content") {
		opts.Content = &updateContent
	}
	if cmdFlagChanged("tags") {
		opts.Tags = updateTags
	}
	if cmdFlagChanged("type") {
		t := memory.Type(updateType)
		opts.MemoryType = &t
	}

	result, err := a.svc.Update(context.Background(), id, opts)
	if err != nil {
		fatalf("Error updating: %v", err)
	}
	fmt.Printf("Updated %s: %s\n", id, strings.Join(result.Changed, ", "))
}

func runDelete(id string) {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	ok, err := a.svc.Delete(context.Background(), id)
	if err != nil {
		fatalf("Error deleting: %v", err)
	}
	if !ok {
		fatalf("memory not found: %s", id)
	}
	fmt.Printf("Deleted %s\n", id)
}

func printMemorySummary(m *memory.Memory) {
	fmt.Printf("[%s] %s (%s, %s)\n", m.ID[:8], m.Summary, m.MemoryType, m.ContextName)
}

func printMemoryDetail(m *memory.Memory) {
	fmt.Printf("ID:      %s\n", m.ID)
	fmt.Printf("Type:    %s\n", m.MemoryType)
	fmt.Printf("Context: %s\n", m.ContextName)
	fmt.Printf("Tags:    %s\n", strings.Join(m.Tags, ", "))
	fmt.Printf("Content: %s\n", m.Content)
	fmt.Printf("Created: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Accessed %d time(s)\n", m.AccessCount)
}

// cmdFlagChanged reports whether the named flag was explicitly set on
// whichever command just ran, so zero-value defaults don't overwrite
// unspecified fields.
func cmdFlagChanged(name string) bool {
	for _, c := range []*cobra.Command{storeCmd, updateCmd} {
		if f := c.Flags().Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}
