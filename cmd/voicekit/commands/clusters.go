package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var clustersMinSize int

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Group unlabeled embeddings into recurring speakers",
	Long: `Cluster the unlabeled voice embeddings in the index into groups of
mutually similar voices. Each cluster is a recurring speaker waiting for
a human label; assign one with 'voicekit label'.

Cluster assignments are persisted, so future episodes matching a
clustered voice resolve to the cluster id until it is labeled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		idx, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()

		clusters, err := idx.GetSpeakerClusters(cmd.Context(), clustersMinSize)
		if err != nil {
			return err
		}
		if len(clusters) == 0 {
			fmt.Println("No clusters found.")
			return nil
		}

		ids := make([]string, 0, len(clusters))
		for id := range clusters {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			members := clusters[id]
			fmt.Printf("%s (%d voices)\n", id, len(members))
			for _, rec := range members {
				fmt.Printf("  %s\n", rec)
			}
		}
		return nil
	},
}

func init() {
	clustersCmd.Flags().IntVar(&clustersMinSize, "min-size", 2, "minimum cluster size")

	rootCmd.AddCommand(clustersCmd)
}
