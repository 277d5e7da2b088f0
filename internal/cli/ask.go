package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civicpulse/civicpulse/internal/model"
)

var askJSON bool

// askCmd answers a single query from the terminal.
var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer one question about the survey data",
	Long: `Run a single free-text question through the query pipeline and print
the answer.

Examples:
  civicpulse ask "Mostrar análise de satisfação"
  civicpulse ask "Quantos moradores responderam a pesquisa?"
  civicpulse ask --json "buscar Maria Souza"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is required")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg := loadConfig()
		orchestrator, source, _, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = source.Close(ctx) }()

		result := orchestrator.Answer(ctx, query)

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		if !result.Success {
			return fmt.Errorf("query failed: %s", result.Error)
		}
		return nil
	},
}

func printResult(result *model.Result) {
	fmt.Println(result.Response)

	if len(result.Residents) > 0 {
		fmt.Printf("\nMunícipes (%d):\n", len(result.Residents))
		for _, res := range result.Residents {
			line := "  - " + res.Name
			if res.Neighborhood != "" {
				line += " (" + res.Neighborhood + ")"
			}
			if res.Priority != "" {
				line += " [" + res.Priority + "]"
			}
			fmt.Println(line)
		}
	}

	if len(result.Insights) > 0 {
		fmt.Println("\nInsights:")
		for _, insight := range result.Insights {
			fmt.Println("  •", insight)
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecomendações:")
		for _, rec := range result.Recommendations {
			fmt.Println("  •", rec)
		}
	}

	fmt.Printf("\nConfiança: %.0f%%  |  Fonte: %s  |  %d ms\n",
		result.Confidence*100, result.Provenance.Source, result.ProcessingMs)
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full structured result as JSON")
	rootCmd.AddCommand(askCmd)
}
