package services_test

import (
	"context"
	"testing"

	"github.com/shadwattai/miniwallet/internal/apperrors"
	"github.com/shadwattai/miniwallet/internal/core/domain"
	portsrepo "github.com/shadwattai/miniwallet/internal/core/ports/repositories"
	portssvc "github.com/shadwattai/miniwallet/internal/core/ports/services"
	"github.com/shadwattai/miniwallet/internal/core/services"
	"github.com/shadwattai/miniwallet/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByKey(ctx context.Context, actor domain.Actor, key string) (*domain.Account, error) {
	args := m.Called(ctx, actor, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindInitialAccount(ctx context.Context, actor domain.Actor, userKey, currency string) (*domain.Account, error) {
	args := m.Called(ctx, actor, userKey, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindCommissionAccount(ctx context.Context, actor domain.Actor, currency string) (*domain.Account, error) {
	args := m.Called(ctx, actor, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByUser(ctx context.Context, actor domain.Actor, userKey string) ([]domain.Account, error) {
	args := m.Called(ctx, actor, userKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, actor domain.Actor, account domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, actor, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, actor domain.Actor, key string, newBalance decimal.Decimal, expectedVersion int64) (int64, error) {
	args := m.Called(ctx, actor, key, newBalance, expectedVersion)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) CreditBalance(ctx context.Context, actor domain.Actor, key string, amount decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, actor, key, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SetActive(ctx context.Context, actor domain.Actor, key string, active bool, expectedVersion int64) (int64, error) {
	args := m.Called(ctx, actor, key, active, expectedVersion)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) SetDefault(ctx context.Context, actor domain.Actor, key string, isDefault bool, expectedVersion int64) (int64, error) {
	args := m.Called(ctx, actor, key, isDefault, expectedVersion)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionManager runs the callback directly against the mocked repositories.
type MockTransactionManager struct {
	mock.Mock
	repos portsrepo.TxRepositories
}

func (m *MockTransactionManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	m.Called(ctx)
	return fn(ctx, m.repos)
}

// MockAuditRepository is a mock type for the AuditRepository interface
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) ListAuditEntries(ctx context.Context, filter portsrepo.AuditFilter) ([]domain.AuditEntry, *string, error) {
	args := m.Called(ctx, filter)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.AuditEntry), next, args.Error(2)
}

// MockRecordRepository is a mock type for the RecordRepository interface
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) ListRecords(ctx context.Context, actor domain.Actor, table string, limit int, nextToken string) (*portsrepo.RecordPage, error) {
	args := m.Called(ctx, actor, table, limit, nextToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.RecordPage), args.Error(1)
}

func (m *MockRecordRepository) GetRecord(ctx context.Context, actor domain.Actor, table, key string) (domain.Record, error) {
	args := m.Called(ctx, actor, table, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Record), args.Error(1)
}

func (m *MockRecordRepository) RecordStats(ctx context.Context, actor domain.Actor, table string) (*portsrepo.RecordStats, error) {
	args := m.Called(ctx, actor, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.RecordStats), args.Error(1)
}

// --- Wallet service suite ---

type WalletServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	mockRepo  *MockAccountRepository
	mockTxMgr *MockTransactionManager
	service   portssvc.WalletSvcFacade
}

func (suite *WalletServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockRepo = new(MockAccountRepository)
	suite.mockTxMgr = &MockTransactionManager{repos: portsrepo.TxRepositories{Accounts: suite.mockRepo}}
	suite.service = services.NewWalletService(portsrepo.RepositoryProvider{
		AccountRepo: suite.mockRepo,
		TxManager:   suite.mockTxMgr,
	})
}

func (suite *WalletServiceTestSuite) TestCreateWallet_RetriesAccountNumberCollision() {
	suite.mockTxMgr.On("RunInTx", mock.Anything).Return().Once()
	duplicate := &apperrors.DuplicateError{Table: "wlt_accounts", Fields: []string{"account_number"}}
	var numbers []string
	suite.mockRepo.On("SaveAccount", mock.Anything, alice, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) {
			numbers = append(numbers, args.Get(2).(domain.Account).AccountNumber)
		}).
		Return(nil, duplicate).Once()
	suite.mockRepo.On("SaveAccount", mock.Anything, alice, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) {
			numbers = append(numbers, args.Get(2).(domain.Account).AccountNumber)
		}).
		Return(&domain.Account{Key: "w1", AccountNumber: "WLT00000002"}, nil).Once()

	account, err := suite.service.CreateWallet(suite.ctx, alice, dto.CreateWalletRequest{
		AccountName: "Main", AccountType: domain.AccountTypeWallet, Currency: "AED",
	})

	suite.Require().NoError(err)
	suite.Equal("w1", account.Key)
	suite.Len(numbers, 2)
	for _, n := range numbers {
		suite.Regexp(`^WLT[0-9]{8}$`, n)
	}
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockTxMgr.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestCreateWallet_GivesUpAfterRepeatedCollisions() {
	suite.mockTxMgr.On("RunInTx", mock.Anything).Return().Once()
	suite.mockRepo.On("SaveAccount", mock.Anything, alice, mock.AnythingOfType("domain.Account")).
		Return(nil, &apperrors.DuplicateError{Table: "wlt_accounts"}).Times(5)

	_, err := suite.service.CreateWallet(suite.ctx, alice, dto.CreateWalletRequest{
		AccountName: "Main", AccountType: domain.AccountTypeWallet, Currency: "AED",
	})

	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestListWallets_HidesSystemAccounts() {
	suite.mockRepo.On("ListAccountsByUser", mock.Anything, alice, "alice").Return([]domain.Account{
		{Key: "i1", AccountType: domain.AccountTypeInitial},
		{Key: "w1", AccountType: domain.AccountTypeWallet},
		{Key: "s1", AccountType: domain.AccountTypeSavings},
	}, nil).Once()

	wallets, err := suite.service.ListWallets(suite.ctx, alice)

	suite.Require().NoError(err)
	suite.Len(wallets, 2)
	suite.Equal("w1", wallets[0].Key)
	suite.Equal("s1", wallets[1].Key)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestWalletServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}

// --- Ledger service suite ---

type LedgerServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	mockRepo  *MockAccountRepository
	mockTxMgr *MockTransactionManager
	service   portssvc.LedgerSvcFacade
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockRepo = new(MockAccountRepository)
	suite.mockTxMgr = &MockTransactionManager{repos: portsrepo.TxRepositories{Accounts: suite.mockRepo}}
	suite.service = services.NewLedgerService(portsrepo.RepositoryProvider{
		AccountRepo: suite.mockRepo,
		TxManager:   suite.mockTxMgr,
	})
}

func (suite *LedgerServiceTestSuite) TestTransfer_SameWalletNeverTouchesStorage() {
	_, err := suite.service.Transfer(suite.ctx, alice, dto.TransferRequest{
		SenderWalletKey: "w1", ReceiverWalletKey: "w1", Amount: decimal.NewFromInt(5),
	})

	suite.ErrorIs(err, apperrors.ErrSameWallet)
	suite.mockTxMgr.AssertNotCalled(suite.T(), "RunInTx", mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestDeposit_InactiveSavingsIsRejected() {
	suite.mockTxMgr.On("RunInTx", mock.Anything).Return().Once()
	suite.mockRepo.On("FindAccountByKey", mock.Anything, alice, "s1").Return(&domain.Account{
		Key: "s1", UserKey: "alice", AccountType: domain.AccountTypeSavings, Currency: "AED", IsActive: false,
	}, nil).Once()

	_, err := suite.service.Deposit(suite.ctx, alice, dto.DepositRequest{WalletKey: "s1", Amount: decimal.NewFromInt(5)})

	suite.ErrorIs(err, apperrors.ErrInactiveAccount)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

// --- Audit and records ---

func TestAuditService_ScopesUsersToTheirOwnEntries(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := services.NewAuditService(repo)
	ctx := context.Background()
	next := "token"

	repo.On("ListAuditEntries", mock.Anything, portsrepo.AuditFilter{
		Table: "wlt_accounts", Action: domain.ActionUpdate, ActorKey: "alice", Limit: 10,
	}).Return([]domain.AuditEntry{{Key: "a1"}}, &next, nil).Once()

	resp, err := svc.List(ctx, alice, dto.ListAuditParams{Table: "wlt_accounts", Action: "update", Limit: 10})
	assert.NoError(t, err)
	assert.Len(t, resp.Entries, 1)
	assert.Equal(t, &next, resp.NextToken)

	_, err = svc.List(ctx, alice, dto.ListAuditParams{ActorKey: "bob"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.List(ctx, alice, dto.ListAuditParams{Action: "export"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	repo.On("ListAuditEntries", mock.Anything, portsrepo.AuditFilter{ActorKey: "bob"}).
		Return([]domain.AuditEntry{}, nil, nil).Once()
	_, err = svc.List(ctx, domain.SystemActor(), dto.ListAuditParams{ActorKey: "bob"})
	assert.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestRecordService_RequiresAdmin(t *testing.T) {
	repo := new(MockRecordRepository)
	svc := services.NewRecordService(repo, func(userKey string) bool { return userKey == "ops" })
	ctx := context.Background()
	ops := domain.Actor{UserKey: "ops"}

	_, err := svc.ListRecords(ctx, alice, "wlt_accounts", dto.ListRecordsParams{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.GetRecord(ctx, alice, "wlt_accounts", "k1")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	repo.On("ListRecords", mock.Anything, ops, "wlt_accounts", 5, "t").
		Return(&portsrepo.RecordPage{Rows: []domain.Record{{"key": "k1"}}}, nil).Once()
	repo.On("RecordStats", mock.Anything, ops, "wlt_accounts").
		Return(&portsrepo.RecordStats{Table: "wlt_accounts", Total: 1}, nil).Once()

	page, err := svc.ListRecords(ctx, ops, "wlt_accounts", dto.ListRecordsParams{Limit: 5, NextToken: "t"})
	assert.NoError(t, err)
	assert.Len(t, page.Rows, 1)
	stats, err := svc.RecordStats(ctx, ops, "wlt_accounts")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)

	repo.AssertExpectations(t)
}
