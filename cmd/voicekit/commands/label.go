package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label <record-id> <name>",
	Short: "Assign a human-verified name to an embedding record",
	Long: `Set a confirmed identity label on an embedding record. The label
supersedes any cluster assignment: future searches matching this voice
resolve directly to the name.

Record ids come from 'voicekit clusters' output.

Examples:
  voicekit label 7f3cbd2e-... "Alex Hormozi"`,
	Args: cobra.ExactArgs(2),
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

		recordID, name := args[0], args[1]
		if err := idx.AssignSpeakerLabel(cmd.Context(), recordID, name); err != nil {
			return err
		}
		fmt.Printf("Labeled %s as %q.\n", recordID, name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)
}
