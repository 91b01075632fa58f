package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lending-backend/internal/domain/audit"
	domainLoan "lending-backend/internal/domain/loan"
	domain "lending-backend/internal/domain/payment"
	"lending-backend/internal/domain/uow"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/pkg/id"
	"lending-backend/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const usd = "USD"

// InitiateCrypto quotes the processing fee in coin. Base currencies other
// than USD are converted first because coin rates are quoted in USD.
func (u *Usecase) InitiateCrypto(ctx context.Context, p domainUser.Principal, in CryptoInput) (*PaymentDTO, error) {
	coin := domain.Coin(strings.ToLower(string(in.Coin)))
	if !coin.Valid() {
		return nil, domain.ErrUnsupportedCurrency
	}
	a, err := u.ownedPayable(ctx, p, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	wallet, err := u.settings.Wallet(ctx, coin)
	if err != nil {
		return nil, err
	}
	rules, err := u.settings.CryptoRules(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := u.settings.BaseCurrency(ctx)
	if err != nil {
		return nil, err
	}

	fiat := a.ProcessingFee
	if cur != usd {
		if fiat, err = u.fx.Convert(ctx, a.ProcessingFee, cur, usd); err != nil {
			return nil, fmt.Errorf("%w: fx %s->%s: %v", ErrGateway, cur, usd, err)
		}
	}
	rate, err := u.rates.USDRate(ctx, coin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s rate: %v", ErrGateway, coin, err)
	}
	amount := money.CryptoAmount(fiat, rate)
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: no usable %s rate", ErrGateway, coin)
	}

	expires := u.now().UTC().Add(rules.TTL)
	pay := &domain.Payment{
		PaymentID:         id.NewID32(),
		Reference:         uuid.NewString(),
		LoanApplicationID: a.ID,
		UserID:            a.UserID,
		Amount:            a.ProcessingFee,
		Currency:          cur,
		Method:            domain.MethodCrypto,
		Provider:          string(coin),
		CryptoCurrency:    coin,
		CryptoAmount:      amount,
		CryptoRate:        rate,
		WalletAddress:     wallet,
		Status:            domain.StatusPending,
		ExpiresAt:         &expires,
	}

	var e effects
	err = u.uow.WithinLoanTx(ctx, a.ApplicationID, func(r uow.Repos, l *domainLoan.Application) error {
		if err := u.lockFee(ctx, r, l, &e); err != nil {
			return err
		}
		return r.Payments.Create(ctx, pay)
	})
	if err != nil {
		return nil, err
	}
	e.payment(pay)
	u.flush(ctx, &e)

	dto := toDTO(pay)
	return &dto, nil
}

// SubmitTx records the borrower's transaction hash and verifies it on chain.
func (u *Usecase) SubmitTx(ctx context.Context, p domainUser.Principal, in TxInput) (*PaymentDTO, error) {
	hash := domain.NormalizeTxHash(in.TxHash)
	if hash == "" {
		return nil, ErrTxHashRequired
	}
	pre, err := u.payments.GetByPaymentID(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if pre.UserID != p.ID {
		return nil, domainLoan.ErrForbidden
	}
	if pre.Method != domain.MethodCrypto {
		return nil, domain.ErrWrongMethod
	}
	used, err := u.payments.TxHashExists(ctx, hash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, domain.ErrTxHashUsed
	}

	var (
		e       effects
		expired bool
	)
	err = u.withPayment(ctx, pre.PaymentID, func(r uow.Repos, a *domainLoan.Application, pay *domain.Payment) error {
		if pay.Status.Final() {
			return domain.ErrAlreadyFinal
		}
		if pay.TxHash != nil {
			return domain.ErrTxHashUsed
		}
		if pay.ExpiresAt != nil && u.now().After(*pay.ExpiresAt) {
			expired = true
			return u.fail(ctx, r, a, pay, domain.StatusExpired, "quote expired", &e)
		}
		pay.TxHash = &hash
		pay.Status = domain.StatusProcessing
		e.payment(pay)
		return r.Payments.Save(ctx, pay)
	})
	if err != nil {
		return nil, err
	}
	u.flush(ctx, &e)
	if expired {
		return nil, domain.ErrExpired
	}
	return u.verify(ctx, pre.PaymentID)
}

// Recheck re-runs on-chain verification of a processing crypto payment.
func (u *Usecase) Recheck(ctx context.Context, p domainUser.Principal, paymentID string) (*PaymentDTO, error) {
	pay, err := u.payments.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if pay.UserID != p.ID && !p.IsAdmin() {
		return nil, domainLoan.ErrForbidden
	}
	if pay.Method != domain.MethodCrypto {
		return nil, domain.ErrWrongMethod
	}
	if pay.Status.Final() {
		return nil, domain.ErrAlreadyFinal
	}
	if pay.TxHash == nil {
		return nil, ErrTxHashRequired
	}
	return u.verify(ctx, paymentID)
}

// verify asks the explorer about the submitted hash. Explorer outages leave
// the payment processing so it can be rechecked later.
func (u *Usecase) verify(ctx context.Context, paymentID string) (*PaymentDTO, error) {
	pay, err := u.payments.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	rules, err := u.settings.CryptoRules(ctx)
	if err != nil {
		return nil, err
	}
	entry := u.log.WithFields(logrus.Fields{"payment": pay.PaymentID, "coin": pay.CryptoCurrency})

	chain, err := u.explorer.Transaction(ctx, pay.CryptoCurrency, *pay.TxHash, pay.WalletAddress)
	if err != nil {
		if !errors.Is(err, ErrTxNotFound) {
			entry.WithError(err).Warn("crypto verification deferred")
		}
		dto := toDTO(pay)
		return &dto, nil
	}

	var (
		e     effects
		final *domain.Payment
	)
	err = u.withPayment(ctx, paymentID, func(r uow.Repos, a *domainLoan.Application, locked *domain.Payment) error {
		final = locked
		if locked.Status != domain.StatusProcessing {
			return nil
		}
		locked.Confirmations = chain.Confirmations
		switch {
		case chain.Hash != "" && domain.NormalizeTxHash(chain.Hash) != *locked.TxHash:
			return u.fail(ctx, r, a, locked, domain.StatusFailed, "transaction hash mismatch", &e)
		case !strings.EqualFold(strings.TrimSpace(chain.To), locked.WalletAddress):
			return u.fail(ctx, r, a, locked, domain.StatusFailed, "destination address mismatch", &e)
		case !money.WithinTolerance(chain.Amount, locked.CryptoAmount, rules.TolerancePercent):
			return u.fail(ctx, r, a, locked, domain.StatusFailed,
				fmt.Sprintf("received %s %s, expected %s", chain.Amount.String(), locked.CryptoCurrency, locked.CryptoAmount.String()), &e)
		case chain.Confirmations < rules.MinConfirmations:
			return r.Payments.Save(ctx, locked)
		default:
			return u.succeed(ctx, r, a, locked, &e)
		}
	})
	if err != nil {
		return nil, err
	}
	u.flush(ctx, &e)
	entry.WithFields(logrus.Fields{"status": final.Status, "confirmations": final.Confirmations}).Info("crypto verification")
	dto := toDTO(final)
	return &dto, nil
}

// ExpireStale closes pending crypto quotes past their expiry and returns how
// many were expired.
func (u *Usecase) ExpireStale(ctx context.Context) (int, error) {
	stale, err := u.payments.ListExpiredCrypto(ctx, u.now().UTC())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range stale {
		var (
			e       effects
			changed bool
		)
		err := u.withPayment(ctx, s.PaymentID, func(r uow.Repos, a *domainLoan.Application, pay *domain.Payment) error {
			if pay.Status != domain.StatusPending {
				return nil
			}
			changed = true
			return u.fail(ctx, r, a, pay, domain.StatusExpired, "quote expired", &e)
		})
		if err != nil {
			u.log.WithError(err).WithField("payment", s.PaymentID).Error("expire crypto quote")
			continue
		}
		u.flush(ctx, &e)
		if changed {
			n++
		}
	}
	return n, nil
}

// AdminConfirm settles a payment manually, e.g. after an off-band bank check.
func (u *Usecase) AdminConfirm(ctx context.Context, p domainUser.Principal, in AdminInput) (*PaymentDTO, error) {
	var (
		e   effects
		out PaymentDTO
	)
	err := u.withPayment(ctx, in.PaymentID, func(r uow.Repos, a *domainLoan.Application, pay *domain.Payment) error {
		if pay.Status.Final() {
			return domain.ErrAlreadyFinal
		}
		paid, err := r.Payments.HasSucceeded(ctx, a.ID)
		if err != nil {
			return err
		}
		if paid || a.Status == domainLoan.StatusFeePaid || a.Status == domainLoan.StatusDisbursed {
			return domain.ErrAlreadyPaid
		}
		if err := u.succeed(ctx, r, a, pay, &e); err != nil {
			return err
		}
		out = toDTO(pay)
		return auditPayment(ctx, r, p, audit.ActionPaymentConfirmed, pay, a, strings.TrimSpace(in.Reason))
	})
	if err != nil {
		return nil, err
	}
	u.flush(ctx, &e)
	return &out, nil
}

func (u *Usecase) AdminFail(ctx context.Context, p domainUser.Principal, in AdminInput) (*PaymentDTO, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	var (
		e   effects
		out PaymentDTO
	)
	err := u.withPayment(ctx, in.PaymentID, func(r uow.Repos, a *domainLoan.Application, pay *domain.Payment) error {
		if pay.Status.Final() {
			return domain.ErrAlreadyFinal
		}
		if err := u.fail(ctx, r, a, pay, domain.StatusFailed, reason, &e); err != nil {
			return err
		}
		out = toDTO(pay)
		return auditPayment(ctx, r, p, audit.ActionPaymentFailed, pay, a, reason)
	})
	if err != nil {
		return nil, err
	}
	u.flush(ctx, &e)
	return &out, nil
}

func auditPayment(ctx context.Context, r uow.Repos, p domainUser.Principal, action string, pay *domain.Payment, a *domainLoan.Application, reason string) error {
	details := map[string]any{
		"application_id": a.ApplicationID,
		"method":         string(pay.Method),
		"amount":         pay.Amount.StringFixed(2),
	}
	if reason != "" {
		details["reason"] = reason
	}
	if !pay.CryptoAmount.Equal(decimal.Zero) {
		details["crypto_amount"] = pay.CryptoAmount.String()
	}
	return r.Audits.Create(ctx, audit.NewLog(audit.Entry{
		ActorID:    p.ID,
		Action:     action,
		EntityType: "payment",
		EntityID:   pay.PaymentID,
		Details:    details,
		IP:         p.IP,
	}))
}
