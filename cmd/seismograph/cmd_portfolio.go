package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seismograph/pkg/util"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio SYMBOL=WEIGHT...",
	Short: "Weighted risk state of a portfolio",
	Long: `Combines the latest state of every holding into one weighted criticality
and a hysteresis-smoothed regime. Weights must be non-negative and sum to 1.

Example:
  seismograph portfolio SPY=0.6 TLT=0.3 GLD=0.1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	holdings, err := util.ParseKeyFloats(args, true)
	if err != nil {
		return fmt.Errorf("holdings: %w", err)
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.svc.Portfolio.Evaluate(cmdContext(cmd), holdings, s.period)
	if err != nil {
		return err
	}
	if !verbose {
		r.History = nil
	}
	if format == "json" {
		return writeJSON(s.out, r)
	}
	printPortfolio(s.out, r)
	return nil
}
