package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/mailpanel/internal/crypto"
	"github.com/edvin/mailpanel/internal/mailcow"
	"github.com/edvin/mailpanel/internal/model"
	"github.com/edvin/mailpanel/internal/platform"
	"github.com/edvin/mailpanel/internal/quota"
)

// DomainResources is the combined live view of a domain: provider-side
// mailboxes and aliases plus the domain's configured limits.
type DomainResources struct {
	Mailboxes    []mailcow.Mailbox `json:"mailboxes"`
	Aliases      []mailcow.Alias   `json:"aliases"`
	MailboxLimit int               `json:"mailbox_limit"`
	AliasLimit   int               `json:"alias_limit"`
}

// MailboxService manages mailboxes and aliases inside an already provisioned
// domain. The provider is the source of truth for what exists; the local
// mailboxes table only caches credentials.
type MailboxService struct {
	db      DB
	gw      Gateway
	domains *DomainService
	credKey []byte
	logger  zerolog.Logger
}

func NewMailboxService(db DB, gw Gateway, domains *DomainService, credKey []byte, logger zerolog.Logger) *MailboxService {
	return &MailboxService{
		db:      db,
		gw:      gw,
		domains: domains,
		credKey: credKey,
		logger:  logger.With().Str("component", "mailbox-service").Logger(),
	}
}

// ListResources fetches the domain's mailboxes and aliases from the provider
// in parallel. A failed fetch degrades to an empty list rather than failing
// the whole view.
func (s *MailboxService) ListResources(ctx context.Context, userID, domainID string) (*DomainResources, error) {
	domain, err := s.domains.GetByID(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}

	res := &DomainResources{
		Mailboxes:    []mailcow.Mailbox{},
		Aliases:      []mailcow.Alias{},
		MailboxLimit: domain.QuotaMailboxes,
		AliasLimit:   domain.QuotaAliases,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		boxes, err := s.gw.ListMailboxes(gctx, domain.Name)
		if err != nil {
			s.logger.Warn().Err(err).Str("domain", domain.Name).Msg("mailbox listing failed")
			return nil
		}
		res.Mailboxes = boxes
		return nil
	})
	g.Go(func() error {
		aliases, err := s.gw.ListAliases(gctx, domain.Name)
		if err != nil {
			s.logger.Warn().Err(err).Str("domain", domain.Name).Msg("alias listing failed")
			return nil
		}
		res.Aliases = aliases
		return nil
	})
	_ = g.Wait()

	return res, nil
}

// CreateMailbox creates a provider-side mailbox and caches its encrypted
// credentials locally. The mailbox count limit is checked against the
// provider's live listing, not the local cache.
func (s *MailboxService) CreateMailbox(ctx context.Context, userID, domainID, localPart, displayName, password string) (*model.Mailbox, error) {
	domain, err := s.domains.GetByID(ctx, userID, domainID)
	if err != nil {
		return nil, err
	}

	localPart = strings.ToLower(strings.TrimSpace(localPart))
	if err := validateLocalPart(localPart); err != nil {
		return nil, ErrValidation(err.Error())
	}
	if len(password) < 8 {
		return nil, ErrValidation("password must be at least 8 characters")
	}

	live, err := s.gw.ListMailboxes(ctx, domain.Name)
	if err != nil {
		return nil, ErrProviderUnavailable("mail provider unreachable")
	}
	if len(live) >= domain.QuotaMailboxes {
		return nil, ErrLimitReached(fmt.Sprintf("mailbox limit reached (%d of %d)", len(live), domain.QuotaMailboxes))
	}

	perBox := quota.MailboxQuotaMB(domain.QuotaStorageMB, domain.QuotaMailboxes)

	result := s.gw.CreateMailbox(ctx, mailcow.MailboxParams{
		Domain:    domain.Name,
		LocalPart: localPart,
		Name:      displayName,
		Password:  password,
		QuotaMB:   perBox,
	})
	// Unlike domain provisioning, a duplicate here is a user mistake, not a
	// resumable state. Anything short of success rejects.
	if result.Outcome != mailcow.Success {
		return nil, providerError(result)
	}

	passEnc, err := crypto.Encrypt([]byte(password), s.credKey)
	if err != nil {
		return nil, ErrStore("encrypt mailbox credential", err)
	}

	mb := &model.Mailbox{
		ID:          platform.NewID(),
		UserID:      userID,
		DomainName:  domain.Name,
		Address:     localPart + "@" + domain.Name,
		PasswordEnc: passEnc,
		CreatedAt:   time.Now(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO mailboxes (id, user_id, domain_name, address, password_enc, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		mb.ID, mb.UserID, mb.DomainName, mb.Address, mb.PasswordEnc, mb.CreatedAt,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("address", mb.Address).
			Msg("mailbox created remotely but credential cache insert failed")
		return nil, ErrStore("cache mailbox credential", err)
	}

	s.logger.Info().Str("address", mb.Address).Int("quota_mb", perBox).Msg("mailbox created")
	return mb, nil
}

// DeleteMailbox removes a provider-side mailbox and its cached credential.
func (s *MailboxService) DeleteMailbox(ctx context.Context, userID, domainID, address string) error {
	domain, err := s.domains.GetByID(ctx, userID, domainID)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(address, "@"+domain.Name) {
		return ErrValidation("address does not belong to this domain")
	}

	if res := s.gw.DeleteMailbox(ctx, address); !res.OK() {
		return providerError(res)
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM mailboxes WHERE address = $1 AND user_id = $2`, address, userID); err != nil {
		return ErrStore("delete cached mailbox", err)
	}

	s.logger.Info().Str("address", address).Msg("mailbox deleted")
	return nil
}

// CreateAlias creates a provider-side alias. The alias count limit is
// checked against the provider's live listing.
func (s *MailboxService) CreateAlias(ctx context.Context, userID, domainID, localPart, target string) error {
	domain, err := s.domains.GetByID(ctx, userID, domainID)
	if err != nil {
		return err
	}

	localPart = strings.ToLower(strings.TrimSpace(localPart))
	if err := validateLocalPart(localPart); err != nil {
		return ErrValidation(err.Error())
	}
	target = strings.ToLower(strings.TrimSpace(target))
	if !strings.Contains(target, "@") {
		return ErrValidation("alias target must be an email address")
	}

	live, err := s.gw.ListAliases(ctx, domain.Name)
	if err != nil {
		return ErrProviderUnavailable("mail provider unreachable")
	}
	if len(live) >= domain.QuotaAliases {
		return ErrLimitReached(fmt.Sprintf("alias limit reached (%d of %d)", len(live), domain.QuotaAliases))
	}

	address := localPart + "@" + domain.Name
	if res := s.gw.CreateAlias(ctx, address, target); res.Outcome != mailcow.Success {
		return providerError(res)
	}

	s.logger.Info().Str("address", address).Str("target", target).Msg("alias created")
	return nil
}

// DeleteAlias removes a provider-side alias by its numeric id.
func (s *MailboxService) DeleteAlias(ctx context.Context, userID, domainID string, aliasID int) error {
	domain, err := s.domains.GetByID(ctx, userID, domainID)
	if err != nil {
		return err
	}

	// Ownership check: the alias must appear in the domain's own listing.
	live, err := s.gw.ListAliases(ctx, domain.Name)
	if err != nil {
		return ErrProviderUnavailable("mail provider unreachable")
	}
	found := false
	for _, a := range live {
		if a.ID == aliasID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound("alias not found")
	}

	if res := s.gw.DeleteAlias(ctx, strconv.Itoa(aliasID)); !res.OK() {
		return providerError(res)
	}

	s.logger.Info().Int("alias_id", aliasID).Str("domain", domain.Name).Msg("alias deleted")
	return nil
}

// providerError maps a non-success gateway result to a service error. Soft
// conflicts on direct mailbox/alias operations are user-facing duplicates;
// transport failures are the panel's problem, not the user's.
func providerError(res mailcow.Result) error {
	switch res.Outcome {
	case mailcow.SoftConflict:
		return ErrValidation(res.Msg)
	case mailcow.TransportError:
		return ErrProviderUnavailable(res.Msg)
	default:
		return ErrProviderRejected(res.Msg)
	}
}

func validateLocalPart(localPart string) error {
	if localPart == "" {
		return fmt.Errorf("local part is required")
	}
	if strings.ContainsAny(localPart, "@ ") {
		return fmt.Errorf("local part must not contain '@' or spaces")
	}
	return nil
}
