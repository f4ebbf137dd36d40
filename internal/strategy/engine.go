package strategy

import (
	"context"
	"errors"
	"fmt"

	"ZoneBacktester/internal/calculator"
	"ZoneBacktester/internal/fund"
	"ZoneBacktester/internal/logger"
	"ZoneBacktester/internal/model"

	"golang.org/x/sync/errgroup"
)

// AttemptKind records how the evaluation of one coarse bar ended.
type AttemptKind int

const (
	AttemptNoBias AttemptKind = iota
	AttemptGateRejected
	AttemptNotConfirmed
	AttemptDegenerate
	AttemptResolved
)

func (k AttemptKind) String() string {
	switch k {
	case AttemptNoBias:
		return "no_bias"
	case AttemptGateRejected:
		return "gate_rejected"
	case AttemptNotConfirmed:
		return "not_confirmed"
	case AttemptDegenerate:
		return "degenerate"
	case AttemptResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Attempt is the balance-independent evaluation of one coarse bar.
// Trade is only meaningful when Kind is AttemptResolved.
type Attempt struct {
	Index int
	Kind  AttemptKind
	Setup model.Setup
	Trade model.Trade
}

// Evaluate runs gate, scanner, constructor and resolver for coarse bar i.
// It does not touch account state, so attempts may be computed in any order.
func Evaluate(ds *model.Dataset, biases []model.Bias, i int, rr float64) Attempt {
	bar := ds.Coarse.At(i)
	a := Attempt{Index: i}
	if biases[i] == model.BiasNone {
		a.Kind = AttemptNoBias
		return a
	}
	a.Setup = calculator.NewSetup(i, bar, biases[i])
	if calculator.Crossed(a.Setup, bar.Close) {
		a.Kind = AttemptGateRejected
		return a
	}

	window := ds.Fine.Range(bar.Time, bar.Time.Add(ScanWindow))
	scan := Scan(window, a.Setup.Bias)
	if scan.Kind != ScanConfirmed {
		a.Kind = AttemptNotConfirmed
		return a
	}

	trade, ok := Construct(window, scan.Index, a.Setup.Bias, rr)
	if !ok {
		a.Kind = AttemptDegenerate
		a.Trade = trade
		return a
	}
	a.Trade = Resolve(trade, window[scan.Index+1:])
	a.Kind = AttemptResolved
	return a
}

// Step is the ledger reducer: it folds one attempt into the account.
func Step(acct model.Account, a Attempt, rr float64) model.Account {
	if a.Kind != AttemptResolved {
		return fund.Hold(acct)
	}
	return fund.Settle(acct, a.Trade, rr)
}

// Run backtests the dataset and returns the equity curve and trade log.
func Run(ctx context.Context, ds *model.Dataset, p Params) (*model.Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.Coarse == nil || ds.Fine == nil {
		return nil, errors.New("dataset requires both coarse and fine series")
	}

	biases := calculator.ClassifyStructure(ds.Coarse.Bars())
	attempts, err := evaluateAll(ctx, ds, biases, p)
	if err != nil {
		return nil, err
	}

	acct := fund.NewAccount(p.InitialBalance)
	var counters model.Counters
	for _, a := range attempts {
		acct = Step(acct, a, p.RiskReward)
		count(&counters, a)
		if a.Kind == AttemptDegenerate {
			logger.Warnf("[engine] degenerate range at %s: entry equals stop %.5f, skipped",
				a.Trade.EntryTime.Format("2006-01-02 15:04"), a.Trade.StopPrice)
		}
	}

	n := ds.Coarse.Len()
	res := &model.Result{
		Symbol:         ds.Symbol,
		RiskReward:     p.RiskReward,
		InitialBalance: p.InitialBalance,
		FinalBalance:   acct.Balance,
		Start:          ds.Coarse.At(0).Time,
		End:            ds.Coarse.At(n - 1).Time,
		Equity:         acct.Equity,
		Trades:         acct.Trades,
		Counters:       counters,
	}
	logger.Debugf("[engine] %s: %d coarse bars, %d trades, balance %.2f -> %.2f",
		ds.Symbol, counters.Iterations, len(res.Trades), p.InitialBalance, res.FinalBalance)
	return res, nil
}

func evaluateAll(ctx context.Context, ds *model.Dataset, biases []model.Bias, p Params) ([]Attempt, error) {
	n := ds.Coarse.Len()
	if n <= FirstCoarseIndex {
		return nil, nil
	}
	attempts := make([]Attempt, n-FirstCoarseIndex)

	if p.Workers <= 1 {
		for i := FirstCoarseIndex; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("backtest aborted at coarse bar %d: %w", i, err)
			}
			attempts[i-FirstCoarseIndex] = Evaluate(ds, biases, i, p.RiskReward)
		}
		return attempts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := FirstCoarseIndex; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("backtest aborted at coarse bar %d: %w", i, err)
			}
			attempts[i-FirstCoarseIndex] = Evaluate(ds, biases, i, p.RiskReward)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func count(c *model.Counters, a Attempt) {
	c.Iterations++
	switch a.Kind {
	case AttemptNoBias:
		c.NoBias++
	case AttemptGateRejected:
		c.GateRejected++
	case AttemptNotConfirmed:
		c.NotConfirmed++
	case AttemptDegenerate:
		c.Degenerate++
	case AttemptResolved:
		switch a.Trade.Outcome {
		case model.OutcomeStopLoss:
			c.StopLosses++
		case model.OutcomeTakeProfit:
			c.TakeProfits++
		default:
			c.Timeouts++
		}
	}
}
