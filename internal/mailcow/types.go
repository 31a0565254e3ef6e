package mailcow

// DomainParams carries the computed attributes applied to a provider domain.
// All storage values are MB; PerMailboxQuotaMB feeds both defquota and
// maxquota, and must satisfy PerMailboxQuotaMB * Mailboxes < DomainQuotaMB.
type DomainParams struct {
	Name              string
	Description       string
	DomainQuotaMB     int
	PerMailboxQuotaMB int
	Mailboxes         int
	Aliases           int
}

type MailboxParams struct {
	Domain    string
	LocalPart string
	Name      string
	Password  string
	QuotaMB   int
}

// Mailbox is a provider-side mailbox as returned by get/mailbox/all.
type Mailbox struct {
	Username string `json:"username"`
	Domain   string `json:"domain"`
	Name     string `json:"name"`
	QuotaMB  int64  `json:"quota"`
	Active   int    `json:"active"`
}

// Alias is a provider-side alias as returned by get/alias/all.
type Alias struct {
	ID      int    `json:"id"`
	Address string `json:"address"`
	GoTo    string `json:"goto"`
	Active  int    `json:"active"`
}

// Fixed attribute sets sent with every new mailbox. The provider applies
// these as the mailbox's ACL and protocol permissions.
var (
	mailboxACL = []string{
		"spam_alias", "tls_policy", "spam_score", "spam_policy",
		"delimiter_action", "quarantine", "quarantine_notification",
		"app_passwds",
	}
	mailboxProtocols = []string{"imap", "pop3", "smtp", "sieve"}
)

// Rate limit applied to every domain: 10 messages per second.
const (
	rateLimitValue = 10
	rateLimitFrame = "s"
)
