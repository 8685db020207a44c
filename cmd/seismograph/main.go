package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"seismograph/internal/di"
	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	"seismograph/internal/services/simulation"
	"seismograph/pkg/config"
)

var (
	configPath string
	periodFlag string
	strategy   string
	verbose    bool
	format     string
)

// rootCmd prints the live exposure recommendation for one ticker.
var rootCmd = &cobra.Command{
	Use:   "seismograph <TICKER>",
	Short: "Market regime and exposure monitor",
	Long: `seismograph classifies the volatility regime of a ticker from its daily
history and reports the exposure a defensive or aggressive strategy would hold
today. The same causal state stream drives the backtest, crash forensics and
regime statistics subcommands.

Examples:
  seismograph SPY
  seismograph BTC-USD --strategy aggressive
  seismograph QQQ --period 10y --verbose`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runState,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML configuration (defaults plus SEISMO_* env when empty)")
	pf.StringVar(&periodFlag, "period", string(domrepo.DefaultPeriod()), "History to analyze: 1y, 2y, 5y, 10y or max")
	pf.StringVar(&strategy, "strategy", "", "Strategy profile: defensive or aggressive (config default when empty)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show detailed metrics and debug logs")
	pf.StringVar(&format, "format", "text", "Output format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, exitMessage(err))
		os.Exit(1)
	}
}

// exitMessage turns a failure into the one line shown to the user.
func exitMessage(err error) string {
	var du *models.DataUnavailableError
	switch {
	case errors.As(err, &du):
		return fmt.Sprintf("Error: no price data for %s (%s). Check the ticker symbol or try again later.", du.Symbol, du.Period)
	case errors.Is(err, models.ErrInsufficientHistory):
		return fmt.Sprintf("Error: %v. Try a longer --period.", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// session is the per-command analysis stack.
type session struct {
	cfg      *config.Config
	svc      *di.Services
	period   domrepo.Period
	strategy models.StrategyConfig
	out      io.Writer
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Log.Format = "console"
	cfg.Log.Output = "stderr"
	cfg.Log.Level = "warn"
	if verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Metrics.Enabled = false

	p := domrepo.Period(strings.ToLower(periodFlag))
	if !domrepo.IsValidPeriod(p) {
		return nil, &models.ConfigError{Field: "period", Reason: fmt.Sprintf("unsupported period %q", periodFlag)}
	}
	if format != "text" && format != "json" {
		return nil, &models.ConfigError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", format)}
	}

	name := strategy
	if name == "" {
		name = cfg.Strategy.Profile
	}
	sc, err := simulation.Resolve(name, cfg.Strategy.Overrides)
	if err != nil {
		return nil, err
	}

	svc, err := di.InitializeServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return &session{cfg: cfg, svc: svc, period: p, strategy: sc, out: cmd.OutOrStdout()}, nil
}

func (s *session) Close() { _ = s.svc.Close() }

func runState(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	live, err := s.svc.States.Current(cmdContext(cmd), args[0], s.period, s.strategy)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(s.out, live)
	}
	printLiveState(s.out, live, verbose)
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
