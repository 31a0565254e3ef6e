package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/mailpanel/internal/crypto"
	"github.com/edvin/mailpanel/internal/mailcow"
	"github.com/edvin/mailpanel/internal/model"
	"github.com/edvin/mailpanel/internal/platform"
	"github.com/edvin/mailpanel/internal/quota"
)

// provisionState tags each step of the provisioning sequence so transitions
// can be logged and failure-injection tests can target a single step.
type provisionState int

const (
	stateValidating provisionState = iota
	statePartitioning
	stateCreatingRemote
	stateEditingRemote
	stateCreatingAdmin
	statePersisting
	stateDone
	stateFailed
)

func (s provisionState) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case statePartitioning:
		return "partitioning"
	case stateCreatingRemote:
		return "creating-remote"
	case stateEditingRemote:
		return "editing-remote"
	case stateCreatingAdmin:
		return "creating-admin"
	case statePersisting:
		return "persisting"
	case stateDone:
		return "done"
	default:
		return "failed"
	}
}

// ProvisionRequest is a request to create or resize a domain allocation.
type ProvisionRequest struct {
	Name      string
	StorageMB int
	Mailboxes int
	Aliases   int
}

// ProvisionResult reports the persisted domain and the per-mailbox quota
// that was applied on the provider.
type ProvisionResult struct {
	Domain            *model.Domain
	PerMailboxQuotaMB int
}

// DomainService owns the domain provisioning workflow: quota admission,
// partitioning, remote create/edit, domain-admin creation and persistence.
type DomainService struct {
	db      DB
	gw      Gateway
	credKey []byte
	locks   *userLocks
	logger  zerolog.Logger
}

func NewDomainService(db DB, gw Gateway, credKey []byte, logger zerolog.Logger) *DomainService {
	return &DomainService{
		db:      db,
		gw:      gw,
		credKey: credKey,
		locks:   newUserLocks(),
		logger:  logger.With().Str("component", "domain-service").Logger(),
	}
}

// Create provisions a new domain end to end. The remote domain is created
// (or found existing), its quotas authoritatively applied via edit, the
// domain-admin account created, and only then is the local record persisted.
func (s *DomainService) Create(ctx context.Context, userID string, req ProvisionRequest) (*ProvisionResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	name := strings.ToLower(strings.TrimSpace(req.Name))
	log := s.logger.With().Str("domain", name).Str("user_id", userID).Logger()

	state := stateValidating
	log.Debug().Stringer("state", state).Msg("provisioning started")

	if err := quota.ValidateDomainName(name); err != nil {
		return nil, ErrValidation(err.Error())
	}

	user, pkg, err := s.loadUserWithPackage(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.listByUser(ctx, userID)
	if err != nil {
		return nil, ErrStore("list domains", err)
	}

	if taken, err := s.nameTaken(ctx, name); err != nil {
		return nil, ErrStore("check domain name", err)
	} else if taken {
		return nil, ErrValidation(fmt.Sprintf("domain %s already exists", name))
	}

	ledgerReq := quota.Request{StorageMB: req.StorageMB, Mailboxes: req.Mailboxes, Aliases: req.Aliases}
	if err := quota.Admit(ledgerReq, nil, existing, pkg); err != nil {
		return nil, admissionError(err)
	}

	state = statePartitioning
	log.Debug().Stringer("state", state).Msg("quota admitted")

	perMailbox, err := quota.Partition(req.StorageMB, req.Mailboxes)
	if err != nil {
		return nil, ErrValidation(err.Error())
	}

	params := mailcow.DomainParams{
		Name:              name,
		Description:       "Owner: " + user.Email,
		DomainQuotaMB:     req.StorageMB,
		PerMailboxQuotaMB: perMailbox,
		Mailboxes:         req.Mailboxes,
		Aliases:           req.Aliases,
	}

	state = stateCreatingRemote
	log.Debug().Stringer("state", state).Int("per_mailbox_mb", perMailbox).Msg("creating remote domain")

	switch res := s.gw.CreateDomain(ctx, params); res.Outcome {
	case mailcow.SoftConflict:
		// Desired end state is still reachable through the edit below.
		log.Info().Str("provider_msg", res.Msg).Msg("remote domain already exists, continuing")
	case mailcow.HardError, mailcow.TransportError:
		state = stateFailed
		log.Warn().Stringer("state", state).Str("provider_msg", res.Msg).Msg("remote domain creation failed")
		return nil, providerError(res)
	}

	// The edit is the authoritative quota application, run regardless of
	// whether the create succeeded or soft-conflicted.
	state = stateEditingRemote
	log.Debug().Stringer("state", state).Msg("applying domain attributes")

	if res := s.gw.EditDomain(ctx, name, params); !res.OK() {
		state = stateFailed
		log.Warn().Stringer("state", state).Str("provider_msg", res.Msg).Msg("remote domain edit failed")
		return nil, providerError(res)
	}

	state = stateCreatingAdmin
	adminUser := AdminUsername(name)
	adminPass := platform.NewSecretHex(32)
	log.Debug().Stringer("state", state).Str("admin_user", adminUser).Msg("creating domain admin")

	switch res := s.gw.CreateDomainAdmin(ctx, adminUser, adminPass, []string{name}); res.Outcome {
	case mailcow.SoftConflict:
		log.Info().Str("provider_msg", res.Msg).Msg("domain admin already exists, continuing")
	case mailcow.HardError, mailcow.TransportError:
		// The admin account is a convenience, not required for mail flow.
		// Provisioning continues without it rather than rolling back.
		log.Warn().Str("provider_msg", res.Msg).Msg("domain admin creation failed, continuing")
	}

	state = statePersisting
	adminPassEnc, err := crypto.Encrypt([]byte(adminPass), s.credKey)
	if err != nil {
		log.Error().Err(err).Stringer("state", state).Msg("credential encryption failed after remote provisioning")
		return nil, ErrStore("encrypt admin credential", err)
	}

	now := time.Now()
	domain := &model.Domain{
		ID:             platform.NewID(),
		UserID:         userID,
		Name:           name,
		Status:         model.DomainStatusPendingDNS,
		QuotaStorageMB: req.StorageMB,
		QuotaMailboxes: req.Mailboxes,
		QuotaAliases:   req.Aliases,
		AdminUser:      adminUser,
		AdminPassEnc:   adminPassEnc,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO domains (id, user_id, name, status, quota_storage_mb, quota_mailboxes, quota_aliases, admin_user, admin_pass_enc, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		domain.ID, domain.UserID, domain.Name, domain.Status, domain.QuotaStorageMB,
		domain.QuotaMailboxes, domain.QuotaAliases, domain.AdminUser, domain.AdminPassEnc,
		domain.CreatedAt, domain.UpdatedAt,
	)
	if err != nil {
		// The remote domain now exists without a local owner record. There is
		// no reconciliation sweep; this log line is the operator's handle.
		log.Error().Err(err).Stringer("state", stateFailed).
			Msg("CONSISTENCY GAP: remote domain provisioned but local persist failed")
		return nil, ErrStore("persist domain", err)
	}

	state = stateDone
	log.Info().Stringer("state", state).Int("per_mailbox_mb", perMailbox).Msg("domain provisioned")

	return &ProvisionResult{Domain: domain, PerMailboxQuotaMB: perMailbox}, nil
}

// Update resizes an existing domain. The remote domain is edited, never
// recreated, and the admin credentials are never regenerated. The ceiling
// check excludes the domain's own current usage.
func (s *DomainService) Update(ctx context.Context, userID, domainID string, req ProvisionRequest) (*ProvisionResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	target, err := s.getOwned(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Str("domain", target.Name).Str("user_id", userID).Logger()

	_, pkg, err := s.loadUserWithPackage(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := s.listByUser(ctx, userID)
	if err != nil {
		return nil, ErrStore("list domains", err)
	}

	ledgerReq := quota.Request{StorageMB: req.StorageMB, Mailboxes: req.Mailboxes, Aliases: req.Aliases}
	if err := quota.Admit(ledgerReq, target, all, pkg); err != nil {
		return nil, admissionError(err)
	}

	// Per-mailbox quota is always re-derived from the new requested values.
	perMailbox, err := quota.Partition(req.StorageMB, req.Mailboxes)
	if err != nil {
		return nil, ErrValidation(err.Error())
	}

	params := mailcow.DomainParams{
		Name:              target.Name,
		DomainQuotaMB:     req.StorageMB,
		PerMailboxQuotaMB: perMailbox,
		Mailboxes:         req.Mailboxes,
		Aliases:           req.Aliases,
	}

	log.Debug().Stringer("state", stateEditingRemote).Int("per_mailbox_mb", perMailbox).Msg("resizing remote domain")
	if res := s.gw.EditDomain(ctx, target.Name, params); !res.OK() {
		log.Warn().Str("provider_msg", res.Msg).Msg("remote domain resize failed")
		return nil, providerError(res)
	}

	target.QuotaStorageMB = req.StorageMB
	target.QuotaMailboxes = req.Mailboxes
	target.QuotaAliases = req.Aliases
	target.UpdatedAt = time.Now()

	_, err = s.db.Exec(ctx,
		`UPDATE domains SET quota_storage_mb = $1, quota_mailboxes = $2, quota_aliases = $3, updated_at = $4 WHERE id = $5`,
		target.QuotaStorageMB, target.QuotaMailboxes, target.QuotaAliases, target.UpdatedAt, target.ID,
	)
	if err != nil {
		log.Error().Err(err).Msg("CONSISTENCY GAP: remote domain resized but local persist failed")
		return nil, ErrStore("persist domain", err)
	}

	log.Info().Stringer("state", stateDone).Msg("domain resized")
	return &ProvisionResult{Domain: target, PerMailboxQuotaMB: perMailbox}, nil
}

// Delete removes a domain. Remote cleanup is best-effort and advisory; the
// local record is removed regardless of the remote outcome.
func (s *DomainService) Delete(ctx context.Context, userID, domainID string) error {
	target, err := s.getOwned(ctx, userID, domainID)
	if err != nil {
		return err
	}

	log := s.logger.With().Str("domain", target.Name).Str("user_id", userID).Logger()

	if res := s.gw.DeleteDomain(ctx, target.Name); !res.OK() {
		log.Warn().Str("provider_msg", res.Msg).Msg("remote domain deletion failed, removing local record anyway")
	}
	if target.AdminUser != "" {
		if res := s.gw.DeleteDomainAdmin(ctx, target.AdminUser); !res.OK() {
			log.Warn().Str("provider_msg", res.Msg).Msg("domain admin deletion failed")
		}
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM mailboxes WHERE domain_name = $1`, target.Name); err != nil {
		return ErrStore("delete cached mailboxes", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM domains WHERE id = $1`, target.ID); err != nil {
		return ErrStore("delete domain", err)
	}

	log.Info().Msg("domain deleted")
	return nil
}

// ListByUser returns the user's domains, newest first.
func (s *DomainService) ListByUser(ctx context.Context, userID string) ([]model.Domain, error) {
	domains, err := s.listByUser(ctx, userID)
	if err != nil {
		return nil, ErrStore("list domains", err)
	}
	return domains, nil
}

// GetByID returns a single domain owned by the user.
func (s *DomainService) GetByID(ctx context.Context, userID, domainID string) (*model.Domain, error) {
	return s.getOwned(ctx, userID, domainID)
}

// GetByName returns a single domain owned by the user, looked up by name.
func (s *DomainService) GetByName(ctx context.Context, userID, name string) (*model.Domain, error) {
	var d model.Domain
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, status, quota_storage_mb, quota_mailboxes, quota_aliases, admin_user, admin_pass_enc, created_at, updated_at
		 FROM domains WHERE name = $1 AND user_id = $2`, name, userID,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Status, &d.QuotaStorageMB, &d.QuotaMailboxes,
		&d.QuotaAliases, &d.AdminUser, &d.AdminPassEnc, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound("domain not found")
	}
	return &d, nil
}

// AdminUsername derives the deterministic provider-side admin account name
// for a domain.
func AdminUsername(domain string) string {
	return "admin_" + strings.ReplaceAll(domain, ".", "_")
}

func admissionError(err error) error {
	switch e := err.(type) {
	case *quota.NoPlanError:
		return ErrNoPlan()
	case *quota.LimitError:
		return ErrLimitReached(e.Error())
	case *quota.ExceededError:
		return ErrQuotaExceeded(e.Error())
	case *quota.NameError:
		return ErrValidation(e.Error())
	default:
		return ErrValidation(err.Error())
	}
}

func (s *DomainService) loadUserWithPackage(ctx context.Context, userID string) (*model.User, *model.Package, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, role, package_id, subscription_status FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PackageID, &u.SubscriptionStatus)
	if err != nil {
		return nil, nil, ErrNotFound("user not found")
	}

	if u.PackageID == nil {
		return &u, nil, nil
	}

	var p model.Package
	err = s.db.QueryRow(ctx,
		`SELECT id, name, max_domains, max_mailboxes, max_aliases, storage_limit_gb FROM packages WHERE id = $1`, *u.PackageID,
	).Scan(&p.ID, &p.Name, &p.MaxDomains, &p.MaxMailboxes, &p.MaxAliases, &p.StorageLimitGB)
	if err != nil {
		return nil, nil, ErrStore("load package", err)
	}
	return &u, &p, nil
}

func (s *DomainService) listByUser(ctx context.Context, userID string) ([]model.Domain, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, status, quota_storage_mb, quota_mailboxes, quota_aliases, admin_user, admin_pass_enc, created_at, updated_at
		 FROM domains WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query domains: %w", err)
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		var d model.Domain
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Status, &d.QuotaStorageMB, &d.QuotaMailboxes,
			&d.QuotaAliases, &d.AdminUser, &d.AdminPassEnc, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domains: %w", err)
	}
	return domains, nil
}

func (s *DomainService) getOwned(ctx context.Context, userID, domainID string) (*model.Domain, error) {
	var d model.Domain
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, status, quota_storage_mb, quota_mailboxes, quota_aliases, admin_user, admin_pass_enc, created_at, updated_at
		 FROM domains WHERE id = $1 AND user_id = $2`, domainID, userID,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Status, &d.QuotaStorageMB, &d.QuotaMailboxes,
		&d.QuotaAliases, &d.AdminUser, &d.AdminPassEnc, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound("domain not found")
	}
	return &d, nil
}

func (s *DomainService) nameTaken(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM domains WHERE name = $1`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count domains by name: %w", err)
	}
	return count > 0, nil
}
