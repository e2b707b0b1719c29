package core

import (
	"context"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/logging"
)

// BalanceInfo is the caller's balance with what they can buy.
type BalanceInfo struct {
	Account string                   `json:"account"`
	Balance billing.Balance          `json:"balance"`
	Total   int                      `json:"totalBubbles"`
	Options []billing.PurchaseOption `json:"options"`
}

func (s *Service) Balance(ctx context.Context) (*BalanceInfo, error) {
	account := s.account(ctx)
	b, err := s.store.GetBalance(ctx, account, s.opts.StartBalance)
	if err != nil {
		return nil, err
	}
	return &BalanceInfo{Account: account, Balance: b, Total: b.Total(), Options: billing.PurchaseOptions}, nil
}

// Purchase credits a bundle to the caller's account. Payment is out of
// scope; the bundle is granted as soon as it is requested.
func (s *Service) Purchase(ctx context.Context, optionID string) (*BalanceInfo, error) {
	opt, err := billing.FindOption(optionID)
	if err != nil {
		return nil, err
	}
	account := s.account(ctx)
	b, err := s.store.Purchase(ctx, account, s.opts.StartBalance, opt)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("bundle purchased", "account", account, "option", opt.ID)
	return &BalanceInfo{Account: account, Balance: b, Total: b.Total(), Options: billing.PurchaseOptions}, nil
}
