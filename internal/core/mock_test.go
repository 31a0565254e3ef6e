package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/mailpanel/internal/mailcow"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Mock Gateway ----------

// mockGateway implements the Gateway interface for testing.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateDomain(ctx context.Context, p mailcow.DomainParams) mailcow.Result {
	args := m.Called(ctx, p)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) EditDomain(ctx context.Context, name string, p mailcow.DomainParams) mailcow.Result {
	args := m.Called(ctx, name, p)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) CreateDomainAdmin(ctx context.Context, username, password string, domains []string) mailcow.Result {
	args := m.Called(ctx, username, password, domains)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) CreateMailbox(ctx context.Context, p mailcow.MailboxParams) mailcow.Result {
	args := m.Called(ctx, p)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) CreateAlias(ctx context.Context, address, target string) mailcow.Result {
	args := m.Called(ctx, address, target)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) DeleteDomain(ctx context.Context, name string) mailcow.Result {
	args := m.Called(ctx, name)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) DeleteDomainAdmin(ctx context.Context, username string) mailcow.Result {
	args := m.Called(ctx, username)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) DeleteMailbox(ctx context.Context, address string) mailcow.Result {
	args := m.Called(ctx, address)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) DeleteAlias(ctx context.Context, id string) mailcow.Result {
	args := m.Called(ctx, id)
	return args.Get(0).(mailcow.Result)
}

func (m *mockGateway) ListMailboxes(ctx context.Context, domain string) ([]mailcow.Mailbox, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mailcow.Mailbox), args.Error(1)
}

func (m *mockGateway) ListAliases(ctx context.Context, domain string) ([]mailcow.Alias, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mailcow.Alias), args.Error(1)
}

// sqlContains matches a query by a distinctive substring, so tests can wire
// different results to the different statements one service call issues.
func sqlContains(fragment string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, fragment)
	})
}
