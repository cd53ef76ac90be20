package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/club_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/core/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock audit repository ---
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) AppendAuditLog(ctx context.Context, record domain.FinancialAuditLog) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepository) FindAuditLogByID(ctx context.Context, clubID, auditLogID string) (*domain.FinancialAuditLog, error) {
	args := m.Called(ctx, clubID, auditLogID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialAuditLog), args.Error(1)
}

func (m *MockAuditRepository) ListAuditLogs(ctx context.Context, clubID string, entityType domain.AuditEntityType, entityID string) ([]domain.FinancialAuditLog, error) {
	args := m.Called(ctx, clubID, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialAuditLog), args.Error(1)
}

func (m *MockAuditRepository) MarkReviewed(ctx context.Context, clubID, auditLogID, reviewer string, at time.Time) error {
	args := m.Called(ctx, clubID, auditLogID, reviewer, at)
	return args.Error(0)
}

// failingAuditDB hands units of work a store whose audit repository is mocked.
type failingAuditDB struct {
	portsrepo.Database
	audit *MockAuditRepository
}

type auditOverrideStore struct {
	portsrepo.Store
	audit portsrepo.AuditRepositoryFacade
}

func (s auditOverrideStore) Audit() portsrepo.AuditRepositoryFacade { return s.audit }

func (d failingAuditDB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	return d.Database.WithinTx(ctx, func(ctx context.Context, tx portsrepo.Store) error {
		return fn(ctx, auditOverrideStore{Store: tx, audit: d.audit})
	})
}

type AuditServiceTestSuite struct {
	ledgerSuite
}

func TestAuditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (s *AuditServiceTestSuite) TestAuditFailureRollsBackMutation() {
	mockAudit := new(MockAuditRepository)
	mockAudit.On("AppendAuditLog", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc := services.NewServiceContainer(failingAuditDB{Database: s.db, audit: mockAudit},
		services.WithClock(func() time.Time { return s.now }))

	_, err := svc.Journal.RecordEntry(s.ctx, testClub,
		s.entryRequest(date(3, 10), s.cash, s.revenue, "100.00", "100.00"), portssvc.PostOptions{}, testActor)
	s.ErrorIs(err, apperrors.ErrInternal)
	mockAudit.AssertCalled(s.T(), "AppendAuditLog", mock.Anything, mock.Anything)

	page, err := s.svc.Journal.ListEntries(s.ctx, testClub, dto.ListJournalEntriesParams{Limit: 10})
	s.Require().NoError(err)
	s.Empty(page.Entries)
	cash, err := s.svc.Account.GetAccountByID(s.ctx, testClub, s.cash.AccountID)
	s.Require().NoError(err)
	s.assertMoney("1000.00", cash.CurrentBalance)

	_, err = svc.Account.CreateAccount(s.ctx, testClub, dto.CreateAccountRequest{Code: "6000", Name: "Unaudited", Category: domain.Expense}, testActor)
	s.ErrorIs(err, apperrors.ErrInternal)
	_, err = s.db.Accounts().FindAccountByCode(s.ctx, testClub, "6000")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AuditServiceTestSuite) TestPostingWritesHeaderAndLineRecords() {
	id := s.record(date(3, 10), s.cash, s.revenue, "100.00")

	records, err := s.svc.Audit.ListAuditRecords(s.ctx, testClub, domain.EntityJournalEntry, id)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(domain.ActionCreate, records[0].Action)
	s.Equal(domain.ActionPost, records[1].Action)
	s.Equal(testActor, records[1].Actor)
	s.Equal(s.now, records[1].OccurredAt)

	var after domain.JournalEntry
	s.Require().NoError(json.Unmarshal(records[1].After, &after))
	s.Equal(domain.EntryPosted, after.Status)
	var before domain.JournalEntry
	s.Require().NoError(json.Unmarshal(records[1].Before, &before))
	s.Equal(domain.EntryDraft, before.Status)

	entry, err := s.svc.Journal.GetEntry(s.ctx, testClub, id)
	s.Require().NoError(err)
	for _, l := range entry.Lines {
		lineRecords, err := s.svc.Audit.ListAuditRecords(s.ctx, testClub, domain.EntityJournalLine, l.LineID)
		s.Require().NoError(err)
		s.Require().Len(lineRecords, 1)
		s.Equal(records[1].AuditLogID, lineRecords[0].ParentAuditID)
	}
}

func (s *AuditServiceTestSuite) TestVoidIsAuditedWithReason() {
	id := s.record(date(3, 10), s.cash, s.revenue, "100.00")
	_, err := s.svc.Journal.Void(s.ctx, testClub, id, "duplicate", testActor)
	s.Require().NoError(err)

	records, err := s.svc.Audit.ListAuditRecords(s.ctx, testClub, domain.EntityJournalEntry, id)
	s.Require().NoError(err)
	last := records[len(records)-1]
	s.Equal(domain.ActionVoid, last.Action)
	s.Equal("duplicate", last.Reason)
}

func (s *AuditServiceTestSuite) TestMarkReviewed() {
	records, err := s.svc.Audit.ListAuditRecords(s.ctx, testClub, domain.EntityAccount, s.cash.AccountID)
	s.Require().NoError(err)
	s.Require().NotEmpty(records)
	target := records[0]
	s.False(target.HasBeenReviewed)

	reviewed, err := s.svc.Audit.MarkReviewed(s.ctx, testClub, target.AuditLogID, "auditor")
	s.Require().NoError(err)
	s.True(reviewed.HasBeenReviewed)
	s.Equal("auditor", reviewed.ReviewedBy)
	s.NotNil(reviewed.ReviewedAt)
	s.Equal(target.After, reviewed.After, "only the review fields change")

	_, err = s.svc.Audit.MarkReviewed(s.ctx, testClub, target.AuditLogID, "auditor")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.svc.Audit.MarkReviewed(s.ctx, otherClub, target.AuditLogID, "auditor")
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Audit.ListAuditRecords(s.ctx, testClub, "", "")
	s.ErrorIs(err, apperrors.ErrValidation)
}
