package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// accountService implements the chart of accounts.
type accountService struct {
	BaseService
}

// NewAccountService creates the chart of accounts service. It also implements
// portssvc.ChartSeeder.
func NewAccountService(base BaseService) portssvc.AccountSvcFacade {
	return &accountService{BaseService: base}
}

var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.ChartSeeder      = (*accountService)(nil)
)

func (s *accountService) GetAccountByID(ctx context.Context, clubID, accountID string) (*domain.Account, error) {
	acc, err := s.DB.Accounts().FindAccountByID(ctx, clubID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to fetch account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return acc, nil
}

func (s *accountService) ListAccounts(ctx context.Context, clubID string) ([]domain.Account, error) {
	accounts, err := s.DB.Accounts().ListAccounts(ctx, clubID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.String("club_id", clubID))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) CreateAccount(ctx context.Context, clubID string, req dto.CreateAccountRequest, actor string) (*domain.Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	var created *domain.Account
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		acc, err := s.createAccount(ctx, tx, audit, clubID, req)
		created = acc
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create account", slog.String("club_id", clubID), slog.String("code", req.Code))
		return nil, err
	}
	s.LogInfo(ctx, "Account created", slog.String("account_id", created.AccountID), slog.String("full_path", created.FullPath))
	return created, nil
}

func (s *accountService) createAccount(ctx context.Context, tx portsrepo.Store, audit *auditRecorder, clubID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	side := req.NormalSide
	if side == "" {
		side = req.Category.DefaultNormalSide()
	}
	if !accounting.HasAmountPrecision(req.OpeningBalance) {
		return nil, fmt.Errorf("%w: opening balance exceeds %d decimal places", apperrors.ErrValidation, accounting.AmountPlaces)
	}
	if req.IsHeader && !req.OpeningBalance.IsZero() {
		return nil, fmt.Errorf("%w: header accounts carry no opening balance", apperrors.ErrValidation)
	}
	if req.IsBankAccount && (req.Category != domain.Asset || req.IsHeader) {
		return nil, fmt.Errorf("%w: bank accounts must be asset leaf accounts", apperrors.ErrValidation)
	}

	if _, err := tx.Accounts().FindAccountByCode(ctx, clubID, req.Code); err == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateCode, req.Code)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check account code: %w", err)
	}

	level, fullPath := 0, req.Code
	if req.ParentAccountID != "" {
		parent, err := s.headerParent(ctx, tx, clubID, req.ParentAccountID)
		if err != nil {
			return nil, err
		}
		level = parent.Level + 1
		fullPath = parent.FullPath + domain.PathSeparator + req.Code
	}

	now := s.now()
	opening := accounting.Round(req.OpeningBalance)
	acc := domain.Account{
		AccountID:       newID(),
		ClubID:          clubID,
		Code:            req.Code,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		NormalSide:      side,
		ParentAccountID: req.ParentAccountID,
		Level:           level,
		FullPath:        fullPath,
		IsHeader:        req.IsHeader,
		IsBankAccount:   req.IsBankAccount,
		IsActive:        true,
		OpeningBalance:  opening,
		CurrentBalance:  opening,
		AuditFields:     domain.NewAuditFields(audit.actor, now),
	}
	if err := tx.Accounts().SaveAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	if _, err := audit.record(ctx, auditEvent{
		EntityType: domain.EntityAccount,
		EntityID:   acc.AccountID,
		Action:     domain.ActionCreate,
		After:      acc,
	}); err != nil {
		return nil, err
	}
	return &acc, nil
}

// headerParent loads a prospective parent, which must be a header of the same club.
func (s *accountService) headerParent(ctx context.Context, tx portsrepo.Store, clubID, parentID string) (*domain.Account, error) {
	parent, err := tx.Accounts().FindAccountByID(ctx, clubID, parentID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s does not exist in this club", apperrors.ErrInvalidParent, parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parent account: %w", err)
	}
	if !parent.IsHeader {
		return nil, fmt.Errorf("%w: %s is not a header account", apperrors.ErrInvalidParent, parent.Code)
	}
	return parent, nil
}

func (s *accountService) MoveAccount(ctx context.Context, clubID, accountID, newParentID, actor string) (*domain.Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var moved *domain.Account
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		accounts, err := tx.Accounts().ListAccounts(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		byID := make(map[string]domain.Account, len(accounts))
		for _, a := range accounts {
			byID[a.AccountID] = a
		}
		acc, ok := byID[accountID]
		if !ok {
			return apperrors.ErrNotFound
		}

		level, prefix := 0, ""
		if newParentID != "" {
			parent, err := s.headerParent(ctx, tx, clubID, newParentID)
			if err != nil {
				return err
			}
			for cur := parent.AccountID; cur != ""; cur = byID[cur].ParentAccountID {
				if cur == accountID {
					return fmt.Errorf("%w: %s cannot be moved beneath its own subtree", apperrors.ErrInvalidParent, acc.Code)
				}
			}
			level = parent.Level + 1
			prefix = parent.FullPath + domain.PathSeparator
		}

		before := acc
		now := s.now()
		acc.ParentAccountID = newParentID
		acc.Level = level
		acc.FullPath = prefix + acc.Code
		acc.Touch(actor, now)
		if err := tx.Accounts().UpdateAccount(ctx, acc); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		parentAudit, err := audit.record(ctx, auditEvent{
			EntityType: domain.EntityAccount,
			EntityID:   acc.AccountID,
			Action:     domain.ActionMove,
			Before:     before,
			After:      acc,
		})
		if err != nil {
			return err
		}
		byID[acc.AccountID] = acc

		for _, id := range descendants(accounts, accountID) {
			child := byID[id]
			parent := byID[child.ParentAccountID]
			childBefore := child
			child.Level = parent.Level + 1
			child.FullPath = parent.FullPath + domain.PathSeparator + child.Code
			child.Touch(actor, now)
			if err := tx.Accounts().UpdateAccount(ctx, child); err != nil {
				return fmt.Errorf("failed to update account path: %w", err)
			}
			byID[id] = child
			if _, err := audit.record(ctx, auditEvent{
				EntityType: domain.EntityAccount,
				EntityID:   child.AccountID,
				Action:     domain.ActionMove,
				Before:     childBefore,
				After:      child,
				ParentID:   parentAudit,
			}); err != nil {
				return err
			}
		}
		moved = &acc
		return nil
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to move account", slog.String("account_id", accountID))
		return nil, err
	}
	return moved, nil
}

func (s *accountService) LockAccount(ctx context.Context, clubID, accountID, actor string) (*domain.Account, error) {
	return s.setLocked(ctx, clubID, accountID, true, actor)
}

func (s *accountService) UnlockAccount(ctx context.Context, clubID, accountID, actor string) (*domain.Account, error) {
	return s.setLocked(ctx, clubID, accountID, false, actor)
}

func (s *accountService) setLocked(ctx context.Context, clubID, accountID string, locked bool, actor string) (*domain.Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	action := domain.ActionUnlock
	if locked {
		action = domain.ActionLock
	}
	var updated *domain.Account
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		acc, err := tx.Accounts().FindAccountByID(ctx, clubID, accountID)
		if err != nil {
			return err
		}
		if acc.IsLocked == locked {
			return fmt.Errorf("%w: account %s is already in the requested lock state", apperrors.ErrInvalidTransition, acc.Code)
		}
		before := *acc
		acc.IsLocked = locked
		acc.Touch(actor, s.now())
		if err := tx.Accounts().UpdateAccount(ctx, *acc); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		updated = acc
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityAccount,
			EntityID:   acc.AccountID,
			Action:     action,
			Before:     before,
			After:      *acc,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to change account lock", slog.String("account_id", accountID), slog.Bool("locked", locked))
		return nil, err
	}
	return updated, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, clubID, accountID, actor string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		acc, err := tx.Accounts().FindAccountByID(ctx, clubID, accountID)
		if err != nil {
			return err
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrInvalidTransition, acc.Code)
		}
		if !acc.CurrentBalance.IsZero() {
			return fmt.Errorf("%w: account %s has a balance of %s", apperrors.ErrInvalidTransition, acc.Code, acc.CurrentBalance.StringFixed(accounting.AmountPlaces))
		}
		accounts, err := tx.Accounts().ListAccounts(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, a := range accounts {
			if a.ParentAccountID == accountID && a.IsActive {
				return fmt.Errorf("%w: account %s has active children", apperrors.ErrInvalidTransition, acc.Code)
			}
		}
		before := *acc
		acc.IsActive = false
		acc.Touch(actor, s.now())
		if err := tx.Accounts().UpdateAccount(ctx, *acc); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		_, err = audit.record(ctx, auditEvent{
			EntityType: domain.EntityAccount,
			EntityID:   acc.AccountID,
			Action:     domain.ActionDeactivate,
			Before:     before,
			After:      *acc,
		})
		return err
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
	}
	return err
}

// GetBalance rebuilds the balance from posted lines rather than the cached columns.
func (s *accountService) GetBalance(ctx context.Context, clubID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	acc, err := s.GetAccountByID(ctx, clubID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	asOf = domain.DateOnly(asOf)

	leaves := map[string]domain.Account{acc.AccountID: *acc}
	if acc.IsHeader {
		accounts, err := s.DB.Accounts().ListAccounts(ctx, clubID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to list accounts: %w", err)
		}
		byID := make(map[string]domain.Account, len(accounts))
		for _, a := range accounts {
			byID[a.AccountID] = a
		}
		leaves = map[string]domain.Account{}
		for _, id := range descendants(accounts, acc.AccountID) {
			if !byID[id].IsHeader {
				leaves[id] = byID[id]
			}
		}
	}
	if len(leaves) == 0 {
		return decimal.Zero, nil
	}

	ids := make([]string, 0, len(leaves))
	for id := range leaves {
		ids = append(ids, id)
	}
	lines, err := s.DB.Journals().ListLedgerLines(ctx, clubID, domain.LedgerLineFilter{AccountIDs: ids, To: &asOf})
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger lines", slog.String("account_id", accountID))
		return decimal.Zero, fmt.Errorf("failed to load ledger lines: %w", err)
	}
	activity, err := signedActivity(lines, leaves)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for id, leaf := range leaves {
		own := leaf.OpeningBalance.Add(activity[id])
		total = total.Add(accounting.ConvertSide(own, leaf.NormalSide, acc.NormalSide))
	}
	return accounting.Round(total), nil
}

// GetTrialBalance rebuilds every posting account's balance from posted lines.
// Header accounts are omitted since their subtree is already listed.
func (s *accountService) GetTrialBalance(ctx context.Context, clubID string, asOf time.Time) (*domain.TrialBalance, error) {
	asOf = domain.DateOnly(asOf)
	accounts, err := s.DB.Accounts().ListAccounts(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	leaves := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		if !a.IsHeader {
			leaves[a.AccountID] = a
		}
	}
	lines, err := s.DB.Journals().ListLedgerLines(ctx, clubID, domain.LedgerLineFilter{To: &asOf})
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger lines for trial balance")
		return nil, fmt.Errorf("failed to load ledger lines: %w", err)
	}
	activity, err := signedActivity(lines, leaves)
	if err != nil {
		return nil, err
	}

	tb := &domain.TrialBalance{ClubID: clubID, AsOf: asOf, Rows: []domain.TrialBalanceRow{}}
	for _, a := range accounts {
		if a.IsHeader {
			continue
		}
		// Balance in the debit convention: positive is a debit balance.
		bal := accounting.Round(accounting.ConvertSide(a.OpeningBalance.Add(activity[a.AccountID]), a.NormalSide, domain.Debit))
		if bal.IsZero() {
			continue
		}
		row := domain.TrialBalanceRow{AccountID: a.AccountID, Code: a.Code, Name: a.Name, Category: a.Category}
		if bal.IsPositive() {
			row.Debit = bal
		} else {
			row.Credit = bal.Neg()
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	tb.IsBalanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}

// SeedChart creates the accounts of a YAML seed document, parents before children.
func (s *accountService) SeedChart(ctx context.Context, clubID string, seed []byte, actor string) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	var doc dto.ChartSeed
	if err := yaml.Unmarshal(seed, &doc); err != nil {
		return 0, fmt.Errorf("%w: invalid seed document: %v", apperrors.ErrValidation, err)
	}
	if err := dto.Validate(doc); err != nil {
		return 0, err
	}
	created := 0
	err := s.runAudited(ctx, clubID, actor, func(ctx context.Context, tx portsrepo.Store, audit *auditRecorder) error {
		var walk func(nodes []dto.AccountSeed, parentID string) error
		walk = func(nodes []dto.AccountSeed, parentID string) error {
			for _, n := range nodes {
				acc, err := s.createAccount(ctx, tx, audit, clubID, dto.CreateAccountRequest{
					Code:            n.Code,
					Name:            n.Name,
					Description:     n.Description,
					Category:        domain.AccountCategory(n.Category),
					NormalSide:      domain.NormalSide(n.NormalSide),
					ParentAccountID: parentID,
					IsHeader:        n.IsHeader || len(n.Children) > 0,
					IsBankAccount:   n.IsBankAccount,
				})
				if err != nil {
					return fmt.Errorf("seed account %s: %w", n.Code, err)
				}
				created++
				if err := walk(n.Children, acc.AccountID); err != nil {
					return err
				}
			}
			return nil
		}
		return walk(doc.Accounts, "")
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to seed chart of accounts", slog.String("club_id", clubID))
		return 0, err
	}
	s.LogInfo(ctx, "Chart of accounts seeded", slog.String("club_id", clubID), slog.Int("accounts", created))
	return created, nil
}

// descendants returns the ids beneath rootID in breadth-first order, so every
// parent precedes its children.
func descendants(accounts []domain.Account, rootID string) []string {
	children := map[string][]string{}
	for _, a := range accounts {
		if a.ParentAccountID != "" {
			children[a.ParentAccountID] = append(children[a.ParentAccountID], a.AccountID)
		}
	}
	var out []string
	queue := append([]string(nil), children[rootID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out
}
