package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"seismograph/internal/domain/models"
	domrepo "seismograph/internal/domain/repository"
	"seismograph/internal/service/metrics"
	"seismograph/internal/services/simulation"
	"seismograph/internal/usecase"
	xhttp "seismograph/pkg/http"
	xlogger "seismograph/pkg/logger"
)

// MarketHandler serves live states and historical analysis over echo.
type MarketHandler struct {
	logger    *xlogger.Logger
	states    *usecase.MarketStateUseCase
	analysis  *usecase.AnalysisUseCase
	portfolio *usecase.PortfolioUseCase
	cache     domrepo.HistoryCache

	profile   string
	overrides map[string]float64
}

var _ xhttp.Handler = (*MarketHandler)(nil)

// NewMarketHandler wires the use cases behind the /api routes.
func NewMarketHandler(
	logger *xlogger.Logger,
	states *usecase.MarketStateUseCase,
	analysis *usecase.AnalysisUseCase,
	portfolio *usecase.PortfolioUseCase,
	cache domrepo.HistoryCache,
	profile string,
	overrides map[string]float64,
) *MarketHandler {
	metrics.Register()
	if profile == "" {
		profile = simulation.ProfileDefensive
	}
	return &MarketHandler{
		logger:    logger,
		states:    states,
		analysis:  analysis,
		portfolio: portfolio,
		cache:     cache,
		profile:   profile,
		overrides: overrides,
	}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/state/:symbol", h.State)
	g.GET("/analysis/:symbol", h.Analysis)
	g.GET("/simulation/:symbol", h.Simulation)
	g.GET("/audit/:symbol", h.Audit)
	g.GET("/forensics/:symbol", h.Forensics)
	g.GET("/regimes/:symbol", h.Regimes)
	g.POST("/portfolio", h.Portfolio)
	g.DELETE("/cache/:symbol", h.InvalidateCache)
}

// State returns the live exposure recommendation.
func (h *MarketHandler) State(c echo.Context) error {
	req, cfg, verr := h.readSymbol(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "state", func(ctx context.Context) (interface{}, error) {
		return h.states.Current(ctx, req.Symbol, domrepo.Period(req.Period), cfg)
	}, "private, max-age=300")
}

// Analysis returns the full report for one symbol.
func (h *MarketHandler) Analysis(c echo.Context) error {
	req, cfg, verr := h.readSymbol(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "analysis", func(ctx context.Context) (interface{}, error) {
		return h.analysis.Analyze(ctx, req.Symbol, domrepo.Period(req.Period), cfg)
	}, "private, max-age=900")
}

func (h *MarketHandler) Simulation(c echo.Context) error {
	req, cfg, verr := h.readSymbol(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "simulation", func(ctx context.Context) (interface{}, error) {
		return h.analysis.Simulate(ctx, req.Symbol, domrepo.Period(req.Period), cfg)
	}, "private, max-age=900")
}

func (h *MarketHandler) Audit(c echo.Context) error {
	req, cfg, verr := h.readSymbol(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "audit", func(ctx context.Context) (interface{}, error) {
		return h.analysis.Audit(ctx, req.Symbol, domrepo.Period(req.Period), cfg)
	}, "private, max-age=900")
}

func (h *MarketHandler) Forensics(c echo.Context) error {
	req, _, verr := h.readSymbol(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "forensics", func(ctx context.Context) (interface{}, error) {
		return h.analysis.Forensics(ctx, req.Symbol, domrepo.Period(req.Period))
	}, "private, max-age=900")
}

func (h *MarketHandler) Regimes(c echo.Context) error {
	req := &models.RegimesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "regimes", func(ctx context.Context) (interface{}, error) {
		return h.analysis.Regimes(ctx, req.Symbol, domrepo.Period(req.Period), req.Fine)
	}, "private, max-age=900")
}

// Portfolio aggregates weighted holdings into one risk state.
func (h *MarketHandler) Portfolio(c echo.Context) error {
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, "portfolio", func(ctx context.Context) (interface{}, error) {
		r, err := h.portfolio.Evaluate(ctx, req.Holdings, domrepo.Period(req.Period))
		if err != nil {
			return nil, err
		}
		if !req.History {
			r.History = nil
		}
		return r, nil
	}, "")
}

// InvalidateCache drops every cached history of a symbol.
func (h *MarketHandler) InvalidateCache(c echo.Context) error {
	req := &models.CacheRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.cache == nil {
		return xhttp.NoContentResponse(c)
	}
	if err := h.cache.InvalidateSymbol(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("cache invalidation failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("cache invalidation failed").WithError(err))
	}
	h.logger.Info("cache invalidated", xlogger.String("symbol", strings.ToUpper(req.Symbol)))
	return xhttp.NoContentResponse(c)
}

func (h *MarketHandler) readSymbol(c echo.Context) (*models.SymbolRequest, models.StrategyConfig, interface{}) {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, models.StrategyConfig{}, verr
	}
	if req.Strategy == "" {
		req.Strategy = h.profile
	}
	cfg, err := simulation.Resolve(req.Strategy, h.overrides)
	if err != nil {
		return nil, models.StrategyConfig{}, []xhttp.ValidationError{{Code: "ERR_INVALID", Field: "strategy", Message: err.Error()}}
	}
	return req, cfg, nil
}

func (h *MarketHandler) run(c echo.Context, endpoint string, fn func(context.Context) (interface{}, error), cacheControl string) error {
	start := time.Now()
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	res, err := fn(c.Request().Context())
	if err != nil {
		appErr, kind := toAppError(err)
		metrics.AnalysisErrors.WithLabelValues(endpoint, kind).Inc()
		if appErr.Status >= 500 {
			h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		} else {
			h.logger.Warn(endpoint+" request rejected", xlogger.String("kind", kind), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	if cacheControl != "" {
		c.Response().Header().Set(echo.HeaderCacheControl, cacheControl)
	}
	return xhttp.SuccessResponse(c, res)
}

// toAppError maps domain failures onto HTTP errors.
func toAppError(err error) (*xhttp.AppError, string) {
	var (
		ih *models.InsufficientHistoryError
		ce *models.ConfigError
		du *models.DataUnavailableError
	)
	switch {
	case errors.As(err, &ih):
		return xhttp.UnprocessableError("%s", err.Error()).
			WithParam("have", ih.Have).
			WithParam("need", ih.Need).
			WithError(err), "insufficient_history"
	case errors.As(err, &ce):
		return xhttp.BadRequestError("%s", err.Error()).WithField(ce.Field).WithError(err), "invalid_configuration"
	case errors.As(err, &du):
		return xhttp.NotFoundError("no price data for %s", du.Symbol).WithError(err), "data_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.TimeoutError("analysis timed out").WithError(err), "timeout"
	default:
		return xhttp.InternalError("Something went wrong").WithError(err), "internal"
	}
}
