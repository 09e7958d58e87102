package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askthegame/voicekit/pkg/cli"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Show the total number of voice embeddings in the index and the
record count per identity. Unlabeled, unclustered voices are grouped
under "unknown".

Examples:
  voicekit stats
  voicekit stats -o json`,
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

		stats, err := idx.GetStatistics(cmd.Context())
		if err != nil {
			return err
		}

		if format := cli.OutputFormat(statsFormat); format != cli.FormatText {
			return cli.Output(stats, format, nil)
		}

		rows := []cli.Row{
			{Label: "Embeddings", Value: fmt.Sprintf("%d", stats.TotalEmbeddings)},
			{Label: "Identities", Value: fmt.Sprintf("%d", len(stats.BySpeaker))},
		}
		speakerRows := make([]cli.Row, 0, len(stats.BySpeaker))
		for _, sc := range stats.BySpeaker {
			speakerRows = append(speakerRows, cli.Row{
				Label: sc.Label,
				Value: fmt.Sprintf("%d", sc.Count),
			})
		}

		sections := []cli.Section{{Title: "Index", Rows: rows}}
		if len(speakerRows) > 0 {
			sections = append(sections, cli.Section{Title: "Speakers", Rows: speakerRows})
		}
		fmt.Print(cli.NewStyles(cli.DefaultTheme).RenderSections(sections))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsFormat, "output", "o", "text", "output format (text, json, yaml)")

	rootCmd.AddCommand(statsCmd)
}
