package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/learning-agent/internal/models"
)

var (
	inputFile string
	modeFlag  string
	symbol    string
	timeframe string
	barLimit  int
	compact   bool
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Run one learning cycle on a JSON learn request",
	Example: `  learning-agent learn --input request.json
  cat request.json | learning-agent learn --mode zero_sum`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req models.LearnRequest
		if err := readInput(cmd, &req); err != nil {
			return err
		}
		if modeFlag != "" {
			req.Mode = models.LearningMode(modeFlag)
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.learning.Learn(cmd.Context(), req)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), resp)
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the market regime of a JSON price request or a fetched symbol",
	Example: `  learning-agent classify --input bars.json
  learning-agent classify --symbol BTC-USD --timeframe 1h --limit 300`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		var resp *models.ClassifyResponse
		if inputFile == "" && symbol != "" {
			resp, err = a.classify.ClassifySymbol(cmd.Context(), symbol, timeframe, barLimit)
		} else {
			var req models.ClassifyRequest
			if err := readInput(cmd, &req); err != nil {
				return err
			}
			if symbol != "" {
				req.Symbol = symbol
			}
			if timeframe != "" {
				req.Timeframe = timeframe
			}
			resp, err = a.classify.Classify(cmd.Context(), req)
		}
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), resp)
	},
}

func init() {
	for _, c := range []*cobra.Command{learnCmd, classifyCmd} {
		c.Flags().StringVarP(&inputFile, "input", "i", "", "Request JSON file, '-' or empty for stdin")
		c.Flags().BoolVar(&compact, "compact", false, "Print single-line JSON")
	}
	learnCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Learning mode: global, zero_sum, regime_aware or asset")
	classifyCmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Symbol to tag or fetch")
	classifyCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "Timeframe to tag or fetch")
	classifyCmd.Flags().IntVar(&barLimit, "limit", 0, "Bars to fetch when classifying a symbol")
}

func readInput(cmd *cobra.Command, dst interface{}) error {
	var r io.Reader = cmd.InOrStdin()
	if inputFile != "" && inputFile != "-" {
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	return nil
}

func writeOutput(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
