package setting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainAudit "lending-backend/internal/domain/audit"
	domainPayment "lending-backend/internal/domain/payment"
	domain "lending-backend/internal/domain/setting"
	"lending-backend/internal/domain/uow"
	"lending-backend/pkg/money"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Usecase struct {
	repo domain.Repository
	uow  uow.UnitOfWork
}

// NewUsecase: tx may be nil for read-only callers.
func NewUsecase(repo domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{repo: repo, uow: tx}
}

// raw returns the stored value, or the built-in default when the row is missing.
func (u *Usecase) raw(ctx context.Context, key string) (string, error) {
	def, ok := domain.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownKey, key)
	}
	s, err := u.repo.Get(ctx, key)
	switch {
	case err == nil:
		return s.Value, nil
	case errors.Is(err, domain.ErrNotFound):
		return def.Default, nil
	default:
		return "", err
	}
}

func (u *Usecase) String(ctx context.Context, key string) (string, error) {
	return u.raw(ctx, key)
}

func (u *Usecase) Decimal(ctx context.Context, key string) (decimal.Decimal, error) {
	v, err := u.raw(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s: %w", key, err)
	}
	return d, nil
}

func (u *Usecase) Int(ctx context.Context, key string) (int, error) {
	v, err := u.raw(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return n, nil
}

func (u *Usecase) Bool(ctx context.Context, key string) (bool, error) {
	v, err := u.raw(ctx, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}
	return b, nil
}

func (u *Usecase) FeeSchedule(ctx context.Context) (money.FeeSchedule, error) {
	var (
		fs  money.FeeSchedule
		err error
	)
	if fs.Percent, err = u.Decimal(ctx, domain.KeyFeePercent); err != nil {
		return fs, err
	}
	if fs.Fixed, err = u.Decimal(ctx, domain.KeyFeeFixed); err != nil {
		return fs, err
	}
	if fs.Minimum, err = u.Decimal(ctx, domain.KeyFeeMinimum); err != nil {
		return fs, err
	}
	return fs, nil
}

func (u *Usecase) LoanLimits(ctx context.Context) (LoanLimits, error) {
	var (
		l   LoanLimits
		err error
	)
	if l.MinAmount, err = u.Decimal(ctx, domain.KeyLoanMinAmount); err != nil {
		return l, err
	}
	if l.MaxAmount, err = u.Decimal(ctx, domain.KeyLoanMaxAmount); err != nil {
		return l, err
	}
	if l.MinTerm, err = u.Int(ctx, domain.KeyLoanMinTerm); err != nil {
		return l, err
	}
	if l.MaxTerm, err = u.Int(ctx, domain.KeyLoanMaxTerm); err != nil {
		return l, err
	}
	return l, nil
}

func (u *Usecase) BaseCurrency(ctx context.Context) (string, error) {
	v, err := u.raw(ctx, domain.KeyBaseCurrency)
	return strings.ToUpper(v), err
}

// Wallet returns the receiving address for coin, or ErrWalletNotConfigured.
func (u *Usecase) Wallet(ctx context.Context, coin domainPayment.Coin) (string, error) {
	key := map[domainPayment.Coin]string{
		domainPayment.CoinBTC:  domain.KeyWalletBTC,
		domainPayment.CoinETH:  domain.KeyWalletETH,
		domainPayment.CoinUSDT: domain.KeyWalletUSDT,
	}[coin]
	if key == "" {
		return "", domainPayment.ErrUnsupportedCurrency
	}
	addr, err := u.raw(ctx, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(addr) == "" {
		return "", domainPayment.ErrWalletNotConfigured
	}
	return strings.TrimSpace(addr), nil
}

func (u *Usecase) CryptoRules(ctx context.Context) (CryptoRules, error) {
	var (
		c   CryptoRules
		err error
	)
	if c.MinConfirmations, err = u.Int(ctx, domain.KeyCryptoMinConfirm); err != nil {
		return c, err
	}
	if c.TolerancePercent, err = u.Decimal(ctx, domain.KeyCryptoTolerance); err != nil {
		return c, err
	}
	minutes, err := u.Int(ctx, domain.KeyCryptoTTLMinutes)
	if err != nil {
		return c, err
	}
	c.TTL = time.Duration(minutes) * time.Minute
	return c, nil
}

// List merges every known key with its stored value.
func (u *Usecase) List(ctx context.Context) ([]SettingDTO, error) {
	stored, err := u.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]domain.SystemSetting, len(stored))
	for _, s := range stored {
		byKey[s.Key] = s
	}
	out := make([]SettingDTO, 0, len(domain.Definitions))
	for _, def := range domain.Definitions {
		dto := SettingDTO{Key: def.Key, Value: def.Default, Default: def.Default, Description: def.Description}
		if s, ok := byKey[def.Key]; ok {
			dto.Value = s.Value
			at := s.UpdatedAt
			dto.UpdatedAt = &at
		}
		out = append(out, dto)
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, key string) (*SettingDTO, error) {
	def, ok := domain.Lookup(key)
	if !ok {
		return nil, domain.ErrUnknownKey
	}
	v, err := u.raw(ctx, key)
	if err != nil {
		return nil, err
	}
	return &SettingDTO{Key: key, Value: v, Default: def.Default, Description: def.Description}, nil
}

// Update validates the value against the key's kind, bounds and paired key,
// then audits the change.
func (u *Usecase) Update(ctx context.Context, in UpdateInput) (*SettingDTO, error) {
	if u.uow == nil {
		return nil, errors.New("settings: unit of work not configured")
	}
	def, ok := domain.Lookup(in.Key)
	if !ok {
		return nil, domain.ErrUnknownKey
	}
	value := strings.TrimSpace(in.Value)
	if def.Kind == domain.KindCurrency {
		value = strings.ToUpper(value)
	}
	if err := def.Check(value); err != nil {
		return nil, err
	}

	var dto *SettingDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		old, err := current(ctx, r.Settings, def)
		if err != nil {
			return err
		}
		if err := checkPair(ctx, r.Settings, in.Key, value); err != nil {
			return err
		}

		actor := in.ActorID
		s := &domain.SystemSetting{Key: in.Key, Value: value, Description: def.Description, UpdatedBy: &actor}
		if err := r.Settings.Upsert(ctx, s); err != nil {
			return err
		}
		if err := r.Audits.Create(ctx, domainAudit.NewLog(domainAudit.Entry{
			ActorID:    in.ActorID,
			Action:     domainAudit.ActionSettingUpdated,
			EntityType: "setting",
			EntityID:   in.Key,
			Details:    map[string]any{"old": old, "new": value},
			IP:         in.IP,
		})); err != nil {
			return err
		}
		now := time.Now().UTC()
		dto = &SettingDTO{Key: in.Key, Value: value, Default: def.Default, Description: def.Description, UpdatedAt: &now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func current(ctx context.Context, repo domain.Repository, def domain.Definition) (string, error) {
	s, err := repo.Get(ctx, def.Key)
	switch {
	case err == nil:
		return s.Value, nil
	case errors.Is(err, domain.ErrNotFound):
		return def.Default, nil
	default:
		return "", err
	}
}

// checkPair keeps a lower bound such as loan_min_amount at or below its upper
// counterpart.
func checkPair(ctx context.Context, repo domain.Repository, key, value string) error {
	otherKey, lower, ok := domain.Counterpart(key)
	if !ok {
		return nil
	}
	otherDef, _ := domain.Lookup(otherKey)
	raw, err := current(ctx, repo, otherDef)
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidValue, key)
	}
	other, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	if lower && v.GreaterThan(other) {
		return fmt.Errorf("%w: %s must not exceed %s (%s)", domain.ErrInvalidValue, key, otherKey, raw)
	}
	if !lower && v.LessThan(other) {
		return fmt.Errorf("%w: %s must not be below %s (%s)", domain.ErrInvalidValue, key, otherKey, raw)
	}
	return nil
}

// Seed writes defaults for keys that have no row yet and applies overrides
// unconditionally. It returns the number of rows written.
func (u *Usecase) Seed(ctx context.Context, overrides map[string]string) (int, error) {
	for k, v := range overrides {
		def, ok := domain.Lookup(k)
		if !ok {
			return 0, fmt.Errorf("%w: %s", domain.ErrUnknownKey, k)
		}
		if err := def.Check(v); err != nil {
			return 0, err
		}
	}
	written := 0
	for _, def := range domain.Definitions {
		value, override := overrides[def.Key]
		if !override {
			_, err := u.repo.Get(ctx, def.Key)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return written, err
			}
			value = def.Default
		}
		if err := u.repo.Upsert(ctx, &domain.SystemSetting{Key: def.Key, Value: value, Description: def.Description}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

type seedFile struct {
	Settings map[string]any `yaml:"settings"`
}

// LoadSeedFile reads a YAML document of the form `settings: {key: value}`.
func LoadSeedFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]string, len(f.Settings))
	for k, v := range f.Settings {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}
