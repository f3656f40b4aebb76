package creation

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/druarnfield/stakehut/internal/ledger"
)

// Quote is the pricing a session validates against.
type Quote struct {
	FactoryID    ledger.Principal
	CreationFee  ledger.Tokens
	PremiumFee   ledger.Tokens
	TransferFee  ledger.Tokens
	TargetCycles uint64
	Premium      bool
	Balance      ledger.Tokens

	// Rate is only used for display estimates and may be nil.
	Rate *ledger.XDRRate
}

// EffectiveFee is the creation fee the user actually pays.
func (q Quote) EffectiveFee() ledger.Tokens {
	if q.Premium {
		return q.PremiumFee
	}
	return q.CreationFee
}

// EstimatedCycles converts extra gas to cycles for display, or 0 without a rate.
func (q Quote) EstimatedCycles(gas ledger.Tokens) uint64 {
	if q.Rate == nil {
		return 0
	}
	return q.Rate.EstimateCycles(gas)
}

// QuoteSources are the services a quote is assembled from.
type QuoteSources struct {
	Ledger     ledger.Ledger
	Factory    ledger.Factory
	Conversion ledger.Conversion
}

// LoadQuote fetches pricing and the user's balance concurrently. The premium
// fee is only requested for premium users; a failing rate lookup leaves Rate
// nil.
func LoadQuote(ctx context.Context, src QuoteSources, user ledger.Principal, transferFee ledger.Tokens, premium bool) (Quote, error) {
	var (
		cfg  ledger.PaymentConfig
		fee  ledger.Tokens
		bal  ledger.Tokens
		rate *ledger.XDRRate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg, err = src.Factory.PaymentConfig(gctx); err != nil {
			return fmt.Errorf("loading payment config: %w", err)
		}
		return nil
	})
	if premium {
		g.Go(func() error {
			var err error
			if fee, err = src.Factory.PremiumFee(gctx); err != nil {
				return fmt.Errorf("loading premium fee: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		if bal, err = src.Ledger.BalanceOf(gctx, ledger.Account{Owner: user}); err != nil {
			return fmt.Errorf("loading balance: %w", err)
		}
		return nil
	})
	if src.Conversion != nil {
		g.Go(func() error {
			if r, err := src.Conversion.Rate(gctx); err == nil {
				rate = &r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Quote{}, err
	}

	return Quote{
		FactoryID:    cfg.FactoryID,
		CreationFee:  cfg.CreationFee,
		PremiumFee:   fee,
		TransferFee:  transferFee,
		TargetCycles: cfg.TargetCycles,
		Premium:      premium,
		Balance:      bal,
		Rate:         rate,
	}, nil
}

// CheckPremium asks the membership service whether user gets the discounted
// fee. Failures count as non-premium; the regular fee is always accepted.
func CheckPremium(ctx context.Context, m ledger.Membership, user ledger.Principal, logger *slog.Logger) bool {
	if m == nil {
		return false
	}
	premium, err := m.IsPremium(ctx, user)
	if err != nil {
		logger.Warn("premium lookup failed, using regular fee",
			slog.String("principal", user.String()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return premium
}
