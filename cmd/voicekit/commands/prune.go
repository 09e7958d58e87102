package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneMaxAgeDays    int
	pruneMinConfidence float64
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old low-confidence embeddings from the index",
	Long: `Remove embedding records that are BOTH older than the age limit AND
below the confidence floor. Recent evidence and high-confidence evidence
is always retained, whatever its age.

Defaults come from the prune section of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		maxAgeDays := cfg.Prune.MaxAgeDays
		if cmd.Flags().Changed("max-age-days") {
			maxAgeDays = pruneMaxAgeDays
		}
		minConfidence := cfg.Prune.MinConfidence
		if cmd.Flags().Changed("min-confidence") {
			minConfidence = pruneMinConfidence
		}

		idx, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
		removed, err := idx.PruneOldEmbeddings(cmd.Context(), maxAge, minConfidence)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d embeddings (older than %dd and confidence < %.2f).\n",
			removed, maxAgeDays, minConfidence)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMaxAgeDays, "max-age-days", 180, "age limit in days")
	pruneCmd.Flags().Float64Var(&pruneMinConfidence, "min-confidence", 0.7, "confidence floor")

	rootCmd.AddCommand(pruneCmd)
}
