package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linguaspark/linguaspark-go/internal/language"
)

var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Print the detected language of text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		code := language.Detect(text)
		if code == "" {
			return fmt.Errorf("language could not be detected reliably")
		}
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
