package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/linguaspark/linguaspark-go/internal/modelconfig"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model directories found under the models dir",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().Bool("render", false, "Print the engine config rendered for each model")
	modelsCmd.Flags().Int("beam-size", 1, "Beam size used with --render")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	found, err := modelconfig.Discover(appConfig.ModelsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintf(out, "no models in %s\n", appConfig.ModelsDir)
		return nil
	}

	render, _ := cmd.Flags().GetBool("render")
	beam, _ := cmd.Flags().GetInt("beam-size")
	for _, pair := range modelconfig.SortedPairs(found) {
		files := found[pair]
		fmt.Fprintln(out, titleStyle.Render(pair.String()))
		fmt.Fprintf(out, "  model:     %s\n", files.Model)
		fmt.Fprintf(out, "  vocab:     %s\n", files.SrcVocab)
		if files.TrgVocab != files.SrcVocab {
			fmt.Fprintf(out, "  trg vocab: %s\n", files.TrgVocab)
		}
		if files.Shortlist != "" {
			fmt.Fprintf(out, "  shortlist: %s\n", files.Shortlist)
		}
		if render {
			fmt.Fprintln(out, lipgloss.NewStyle().Faint(true).Render(files.Render(modelconfig.RenderOptions{BeamSize: beam})))
		}
	}
	return nil
}
