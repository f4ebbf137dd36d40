package fund

import "ZoneBacktester/internal/model"

// RiskFraction is the share of the current balance risked on every trade.
const RiskFraction = 0.01

// NewAccount seeds an account with the starting balance as its first equity sample.
func NewAccount(initialBalance float64) model.Account {
	return model.Account{
		Balance: initialBalance,
		Equity:  []float64{initialBalance},
	}
}

// Hold appends an unchanged equity sample.
func Hold(acct model.Account) model.Account {
	acct.Equity = append(acct.Equity, acct.Balance)
	return acct
}

// Settle applies a resolved trade to the account. A stop loss loses
// RiskFraction of the current balance, a take profit gains RiskFraction*rr.
// Timeouts leave the balance untouched and are not logged.
func Settle(acct model.Account, trade model.Trade, rr float64) model.Account {
	switch trade.Outcome {
	case model.OutcomeStopLoss:
		acct.Balance -= acct.Balance * RiskFraction
	case model.OutcomeTakeProfit:
		acct.Balance += acct.Balance * RiskFraction * rr
	default:
		return Hold(acct)
	}
	acct.Equity = append(acct.Equity, acct.Balance)
	acct.Trades = append(acct.Trades, trade)
	return acct
}
