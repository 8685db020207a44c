package main

import (
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <TICKER>",
	Short: "Backtest the exposure strategy against buy and hold",
	Long: `Runs the causal exposure fold over the whole history: the exposure chosen
at each close earns the next bar's return, trades pay the fee and cash earns
the configured interest.

Examples:
  seismograph simulate SPY
  seismograph simulate BTC-USD --strategy aggressive --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

var forensicsCmd = &cobra.Command{
	Use:   "forensics <TICKER>",
	Short: "Grade regime warnings against historical crashes",
	Args:  cobra.ExactArgs(1),
	RunE:  runForensics,
}

var regimesFine bool

var regimesCmd = &cobra.Command{
	Use:   "regimes <TICKER>",
	Short: "Duration and frequency statistics per regime",
	Long: `Groups the state stream into consecutive blocks and reports how long each
regime lasts and what the price did during and around it. --fine switches
from the three coarse regimes to the five phases.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegimes,
}

var auditCmd = &cobra.Command{
	Use:   "audit <TICKER>",
	Short: "Audit how the strategy behaved during stress",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	regimesCmd.Flags().BoolVar(&regimesFine, "fine", false, "Use the five fine phases instead of coarse regimes")
	rootCmd.AddCommand(simulateCmd, forensicsCmd, regimesCmd, auditCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.svc.Analysis.Simulate(cmdContext(cmd), args[0], s.period, s.strategy)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(s.out, res)
	}
	printSimulation(s.out, args[0], res)
	return nil
}

func runForensics(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.svc.Analysis.Forensics(cmdContext(cmd), args[0], s.period)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(s.out, m)
	}
	printForensics(s.out, args[0], m)
	return nil
}

func runRegimes(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.svc.Analysis.Regimes(cmdContext(cmd), args[0], s.period, regimesFine)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(s.out, stats)
	}
	printRegimeStats(s.out, args[0], stats)
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.svc.Analysis.Audit(cmdContext(cmd), args[0], s.period, s.strategy)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(s.out, r)
	}
	printAudit(s.out, args[0], r)
	return nil
}
