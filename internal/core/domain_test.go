package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailpanel/internal/crypto"
	"github.com/edvin/mailpanel/internal/mailcow"
	"github.com/edvin/mailpanel/internal/model"
)

func testCredKey(t *testing.T) []byte {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func success() mailcow.Result {
	return mailcow.Result{Outcome: mailcow.Success}
}

// expectUserWithPackage wires the user and package lookups for a user on a
// plan with the given ceilings.
func expectUserWithPackage(db *mockDB, ctx context.Context, userID string, maxDomains, maxMailboxes, maxAliases, storageGB int) {
	pkgID := "pkg-1"
	userRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = userID
		*(dest[1].(*string)) = "Test User"
		*(dest[2].(*string)) = "owner@example.com"
		*(dest[3].(*string)) = model.RoleUser
		*(dest[4].(**string)) = &pkgID
		*(dest[5].(*string)) = model.SubscriptionActive
		return nil
	}}
	db.On("QueryRow", ctx, sqlContains("FROM users"), mock.Anything).Return(userRow)

	pkgRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = pkgID
		*(dest[1].(*string)) = "Business"
		*(dest[2].(*int)) = maxDomains
		*(dest[3].(*int)) = maxMailboxes
		*(dest[4].(*int)) = maxAliases
		*(dest[5].(*int)) = storageGB
		return nil
	}}
	db.On("QueryRow", ctx, sqlContains("FROM packages"), mock.Anything).Return(pkgRow)
}

// domainScan fills the 11-column domain row used by getOwned and listByUser.
func domainScan(d model.Domain) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = d.ID
		*(dest[1].(*string)) = d.UserID
		*(dest[2].(*string)) = d.Name
		*(dest[3].(*string)) = d.Status
		*(dest[4].(*int)) = d.QuotaStorageMB
		*(dest[5].(*int)) = d.QuotaMailboxes
		*(dest[6].(*int)) = d.QuotaAliases
		*(dest[7].(*string)) = d.AdminUser
		*(dest[8].(*string)) = d.AdminPassEnc
		*(dest[9].(*time.Time)) = d.CreatedAt
		*(dest[10].(*time.Time)) = d.UpdatedAt
		return nil
	}
}

// ---------- Create ----------

func TestDomainService_Create_Success(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})
	db.On("Exec", ctx, sqlContains("INSERT INTO domains"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	gw.On("CreateDomain", ctx, mock.Anything).Return(success())
	gw.On("EditDomain", ctx, "example.com", mock.Anything).Return(success())
	gw.On("CreateDomainAdmin", ctx, "admin_example_com", mock.AnythingOfType("string"), []string{"example.com"}).Return(success())

	res, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "Example.COM ", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "example.com", res.Domain.Name)
	assert.Equal(t, model.DomainStatusPendingDNS, res.Domain.Status)
	assert.Equal(t, 1024, res.Domain.QuotaStorageMB)
	assert.Equal(t, "admin_example_com", res.Domain.AdminUser)
	assert.NotEmpty(t, res.Domain.AdminPassEnc)
	assert.Equal(t, 202, res.PerMailboxQuotaMB)

	// The edit carries the same partitioned quota as the create.
	created := gw.Calls[0].Arguments.Get(1).(mailcow.DomainParams)
	edited := gw.Calls[1].Arguments.Get(2).(mailcow.DomainParams)
	assert.Equal(t, 202, created.PerMailboxQuotaMB)
	assert.Equal(t, created.PerMailboxQuotaMB, edited.PerMailboxQuotaMB)

	db.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestDomainService_Create_SoftConflictContinues(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})
	db.On("Exec", ctx, sqlContains("INSERT INTO domains"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	gw.On("CreateDomain", ctx, mock.Anything).Return(mailcow.Result{
		Outcome: mailcow.SoftConflict, Msg: "domain example.com already exists",
	})
	gw.On("EditDomain", ctx, "example.com", mock.Anything).Return(success())
	gw.On("CreateDomainAdmin", ctx, mock.Anything, mock.Anything, mock.Anything).Return(mailcow.Result{
		Outcome: mailcow.SoftConflict, Msg: "object exists: admin_example_com",
	})

	res, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusPendingDNS, res.Domain.Status)
	gw.AssertExpectations(t)
}

func TestDomainService_Create_RemoteHardError(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})

	gw.On("CreateDomain", ctx, mock.Anything).Return(mailcow.Result{
		Outcome: mailcow.HardError, Msg: "domain_quota_exceeded",
	})

	res, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)
	assert.Nil(t, res)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindProviderRejected, serr.Kind)
	assert.Equal(t, "domain_quota_exceeded", serr.Msg)

	// Nothing persisted and no admin created after a failed create.
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "CreateDomainAdmin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDomainService_Create_AdminFailureIsNonFatal(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})
	db.On("Exec", ctx, sqlContains("INSERT INTO domains"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	gw.On("CreateDomain", ctx, mock.Anything).Return(success())
	gw.On("EditDomain", ctx, "example.com", mock.Anything).Return(success())
	gw.On("CreateDomainAdmin", ctx, mock.Anything, mock.Anything, mock.Anything).Return(mailcow.Result{
		Outcome: mailcow.HardError, Msg: "admin service down",
	})

	res, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	db.AssertExpectations(t)
}

func TestDomainService_Create_NoPlan(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	userRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "user-1"
		*(dest[1].(*string)) = "Test User"
		*(dest[2].(*string)) = "owner@example.com"
		*(dest[3].(*string)) = model.RoleUser
		*(dest[4].(**string)) = nil
		*(dest[5].(*string)) = model.SubscriptionCancelled
		return nil
	}}
	db.On("QueryRow", ctx, sqlContains("FROM users"), mock.Anything).Return(userRow)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})

	_, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindNoPlan, serr.Kind)
	gw.AssertNotCalled(t, "CreateDomain", mock.Anything, mock.Anything)
}

func TestDomainService_Create_QuotaExceeded(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	// 10 GB plan with 5 GB already allocated to another domain.
	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	now := time.Now()
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newMockRows(
		domainScan(model.Domain{
			ID: "dom-1", UserID: "user-1", Name: "other.com", Status: model.DomainStatusActive,
			QuotaStorageMB: 5120, QuotaMailboxes: 10, QuotaAliases: 10,
			AdminUser: "admin_other_com", AdminPassEnc: "x", CreatedAt: now, UpdatedAt: now,
		}),
	), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})

	_, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 6000, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindQuotaExceeded, serr.Kind)
	assert.Contains(t, serr.Msg, "available 5120")
	gw.AssertNotCalled(t, "CreateDomain", mock.Anything, mock.Anything)
}

func TestDomainService_Create_DomainLimitReached(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	// Single-domain plan with the slot already taken.
	expectUserWithPackage(db, ctx, "user-1", 1, 50, 100, 10)
	now := time.Now()
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newMockRows(
		domainScan(model.Domain{
			ID: "dom-1", UserID: "user-1", Name: "other.com", Status: model.DomainStatusActive,
			QuotaStorageMB: 1024, QuotaMailboxes: 5, QuotaAliases: 5,
			AdminUser: "admin_other_com", AdminPassEnc: "x", CreatedAt: now, UpdatedAt: now,
		}),
	), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})

	_, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 512, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	// A full domain slot is a plan restriction, not a numeric shortfall.
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindLimitReached, serr.Kind)
	assert.Equal(t, "domain limit reached (1 of 1)", serr.Msg)
	gw.AssertNotCalled(t, "CreateDomain", mock.Anything, mock.Anything)
}

func TestDomainService_Create_ProviderUnreachable(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}})

	gw.On("CreateDomain", ctx, mock.Anything).Return(mailcow.Result{
		Outcome: mailcow.TransportError, Msg: "mail provider unreachable",
	})

	_, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindProviderUnavailable, serr.Kind)
	assert.Equal(t, "mail provider unreachable", serr.Msg)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestDomainService_Create_DuplicateName(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("QueryRow", ctx, sqlContains("count(*) FROM domains"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 1
		return nil
	}})

	_, err := svc.Create(ctx, "user-1", ProvisionRequest{
		Name: "example.com", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindValidation, serr.Kind)
	gw.AssertNotCalled(t, "CreateDomain", mock.Anything, mock.Anything)
}

func TestDomainService_Create_InvalidName(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())

	_, err := svc.Create(context.Background(), "user-1", ProvisionRequest{
		Name: "nodot", StorageMB: 1024, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindValidation, serr.Kind)
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- Update ----------

func TestDomainService_Update_ResizeToSameValuesAdmits(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	now := time.Now()
	existing := model.Domain{
		ID: "dom-1", UserID: "user-1", Name: "example.com", Status: model.DomainStatusActive,
		QuotaStorageMB: 10240, QuotaMailboxes: 50, QuotaAliases: 100,
		AdminUser: "admin_example_com", AdminPassEnc: "enc", CreatedAt: now, UpdatedAt: now,
	}

	// The plan is exactly as large as the domain's current allocation.
	db.On("QueryRow", ctx, sqlContains("FROM domains WHERE id"), mock.Anything).Return(&mockRow{scanFunc: domainScan(existing)})
	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newMockRows(domainScan(existing)), nil)
	db.On("Exec", ctx, sqlContains("UPDATE domains"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	gw.On("EditDomain", ctx, "example.com", mock.Anything).Return(success())

	res, err := svc.Update(ctx, "user-1", "dom-1", ProvisionRequest{
		StorageMB: 10240, Mailboxes: 50, Aliases: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 10240, res.Domain.QuotaStorageMB)

	// Resizing never recreates the remote domain or its admin.
	gw.AssertNotCalled(t, "CreateDomain", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "CreateDomainAdmin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestDomainService_Update_ProviderRejection(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	now := time.Now()
	existing := model.Domain{
		ID: "dom-1", UserID: "user-1", Name: "example.com", Status: model.DomainStatusActive,
		QuotaStorageMB: 1024, QuotaMailboxes: 5, QuotaAliases: 10,
		AdminUser: "admin_example_com", AdminPassEnc: "enc", CreatedAt: now, UpdatedAt: now,
	}

	db.On("QueryRow", ctx, sqlContains("FROM domains WHERE id"), mock.Anything).Return(&mockRow{scanFunc: domainScan(existing)})
	expectUserWithPackage(db, ctx, "user-1", 5, 50, 100, 10)
	db.On("Query", ctx, sqlContains("FROM domains WHERE user_id"), mock.Anything).Return(newMockRows(domainScan(existing)), nil)

	gw.On("EditDomain", ctx, "example.com", mock.Anything).Return(mailcow.Result{
		Outcome: mailcow.HardError, Msg: "cannot shrink below usage",
	})

	_, err := svc.Update(ctx, "user-1", "dom-1", ProvisionRequest{
		StorageMB: 2048, Mailboxes: 5, Aliases: 10,
	})
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindProviderRejected, serr.Kind)
	assert.Equal(t, "cannot shrink below usage", serr.Msg)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- Delete ----------

func TestDomainService_Delete_RemoteFailureStillDeletesLocally(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	now := time.Now()
	existing := model.Domain{
		ID: "dom-1", UserID: "user-1", Name: "example.com", Status: model.DomainStatusActive,
		QuotaStorageMB: 1024, QuotaMailboxes: 5, QuotaAliases: 10,
		AdminUser: "admin_example_com", AdminPassEnc: "enc", CreatedAt: now, UpdatedAt: now,
	}

	db.On("QueryRow", ctx, sqlContains("FROM domains WHERE id"), mock.Anything).Return(&mockRow{scanFunc: domainScan(existing)})
	db.On("Exec", ctx, sqlContains("DELETE FROM mailboxes"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	db.On("Exec", ctx, sqlContains("DELETE FROM domains"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	gw.On("DeleteDomain", ctx, "example.com").Return(mailcow.Result{
		Outcome: mailcow.TransportError, Msg: "mail provider unreachable",
	})
	gw.On("DeleteDomainAdmin", ctx, "admin_example_com").Return(success())

	err := svc.Delete(ctx, "user-1", "dom-1")
	require.NoError(t, err)
	db.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestDomainService_Delete_NotOwned(t *testing.T) {
	db := &mockDB{}
	gw := &mockGateway{}
	svc := NewDomainService(db, gw, testCredKey(t), zerolog.Nop())
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM domains WHERE id"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		return errors.New("no rows in result set")
	}})

	err := svc.Delete(ctx, "user-2", "dom-1")
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindNotFound, serr.Kind)
	gw.AssertNotCalled(t, "DeleteDomain", mock.Anything, mock.Anything)
}

// ---------- AdminUsername ----------

func TestAdminUsername(t *testing.T) {
	assert.Equal(t, "admin_example_com", AdminUsername("example.com"))
	assert.Equal(t, "admin_mail_co_uk", AdminUsername("mail.co.uk"))
}
