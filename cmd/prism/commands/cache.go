package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCacheCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Result cache management",
		Long: `Inspect and manage the tiered result cache.

Lookups check the in-process memory tier, then the distributed tier,
then the precomputed disk tier. Disk entries are JSON files named by
the hash of the cache key and survive process restarts.`,
	}

	cmd.AddCommand(newCacheStatsCommand(version))
	cmd.AddCommand(newCacheClearCommand(version))

	return cmd
}

func newCacheStatsCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			stats := app.orch.CacheStats()
			memo := app.orch.WorkflowCacheStats()
			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(struct {
					Tiers    interface{} `json:"tiers"`
					Workflow interface{} `json:"workflow"`
				}{stats, memo})
			}

			fmt.Printf("Directory:  %s\n", app.cfg.Cache.DiskDir)
			fmt.Printf("L1 hits:    %d\n", stats.L1Hits)
			fmt.Printf("L2 hits:    %d\n", stats.L2Hits)
			fmt.Printf("L3 hits:    %d\n", stats.L3Hits)
			fmt.Printf("Misses:     %d\n", stats.Misses)
			fmt.Printf("Requests:   %d\n", stats.TotalRequests)
			fmt.Printf("Hit rate:   %.2f\n", stats.HitRate())
			fmt.Printf("Workflow memo: %d hits, %d misses, %d evictions\n",
				memo.Hits, memo.Misses, memo.Evictions)
			return nil
		},
	}

	return cmd
}

func newCacheClearCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty every cache tier",
		Long: `Empty every cache tier, including precomputed results on disk.

Disk entries under the configured cache directory are removed; memory
tiers start cold on the next run regardless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			if err := app.cache.ClearAll(cmd.Context()); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Println("Cache cleared")
			return nil
		},
	}

	return cmd
}
