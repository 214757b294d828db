package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/language"
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text once and print the result",
	Long: `Translate the given text, or standard input when no text is given.

Examples:
  linguaspark translate --from en --to fr "Hello, world"
  echo "Bonjour" | linguaspark translate --to en`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().StringP("from", "f", "", "Source language (detected when empty)")
	translateCmd.Flags().StringP("to", "t", "", "Target language")
	translateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if strings.TrimSpace(from) == "" {
		from = language.Detect(text)
		if from == "" {
			return domain.ErrUsage("cannot detect the source language, pass --from").WithParam("from")
		}
	}
	pair, err := domain.NewLanguagePair(from, to)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tr, err := newTranslator(appConfig, slog.Default())
	if err != nil {
		return err
	}
	defer tr.Close()

	if err := loadPairs(ctx, tr, appConfig.ModelsDir, pair); err != nil {
		return err
	}
	out, err := tr.Translate(ctx, pair.From, pair.To, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

