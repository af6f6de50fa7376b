package ibkr

// accounts.go — implements ports.AccountService against the Client Portal
// portfolio and iserver endpoints.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/rebalancer/internal/domain"
)

// SwitchAccount selects accountID for all subsequent iserver calls.
// The gateway answers "Account already set" when switching to the current
// account; that is not an error.
func (c *Client) SwitchAccount(ctx context.Context, accountID string) error {
	status, body, err := c.postOnce(ctx, "/iserver/account", map[string]string{"acctId": accountID})
	if err != nil {
		return fmt.Errorf("ibkr.SwitchAccount: %w", err)
	}
	if status >= 400 && !strings.Contains(string(body), "already set") {
		return fmt.Errorf("ibkr.SwitchAccount: [%d] %s", status, string(body))
	}
	c.accountID = accountID
	slog.Debug("ibkr: account selected", "account", accountID)
	return nil
}

type ledgerEntry struct {
	NetLiquidationValue json.Number `json:"netliquidationvalue"`
}

// NetValue returns the selected account's USD net liquidation value.
func (c *Client) NetValue(ctx context.Context) (decimal.Decimal, error) {
	if c.accountID == "" {
		return decimal.Zero, fmt.Errorf("ibkr.NetValue: no account selected")
	}
	var ledger map[string]ledgerEntry
	if err := c.get(ctx, "/portfolio/"+c.accountID+"/ledger", nil, &ledger); err != nil {
		return decimal.Zero, fmt.Errorf("ibkr.NetValue: %w", err)
	}
	usd, ok := ledger["USD"]
	if !ok || usd.NetLiquidationValue == "" {
		return decimal.Zero, fmt.Errorf("ibkr.NetValue: no USD netliquidationvalue in ledger")
	}
	net, err := domain.ToDecimal(usd.NetLiquidationValue.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("ibkr.NetValue: %w", err)
	}
	return net, nil
}

type positionRow struct {
	Conid           int64       `json:"conid"`
	ContractDesc    string      `json:"contractDesc"`
	Position        json.Number `json:"position"`
	ListingExchange string      `json:"listingExchange"`
}

// Positions returns the selected account's current holdings. Pricing is
// attached later by the engine so every instrument is quoted through the
// same per-run cache.
func (c *Client) Positions(ctx context.Context) ([]domain.Position, error) {
	if c.accountID == "" {
		return nil, fmt.Errorf("ibkr.Positions: no account selected")
	}
	var rows []positionRow
	if err := c.get(ctx, "/portfolio/"+c.accountID+"/positions/0", nil, &rows); err != nil {
		return nil, fmt.Errorf("ibkr.Positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(rows))
	for _, row := range rows {
		qty, err := domain.ToDecimal(row.Position.String())
		if err != nil {
			return nil, fmt.Errorf("ibkr.Positions: quantity of %s: %w", row.ContractDesc, err)
		}
		positions = append(positions, domain.Position{
			Conid:    row.Conid,
			Symbol:   row.ContractDesc,
			Exchange: row.ListingExchange,
			Quantity: qty,
		})
	}
	return positions, nil
}
