package quota

import (
	"fmt"
	"math"
)

// MinDomainQuotaMB is the smallest domain storage quota the provider accepts.
const MinDomainQuotaMB = 10

// PartitionError rejects a domain quota that cannot be split across the
// requested mailbox count.
type PartitionError struct {
	DomainQuotaMB int
	Mailboxes     int
	MinRequiredMB int
}

func (e *PartitionError) Error() string {
	if e.MinRequiredMB > 0 {
		return fmt.Sprintf("domain quota %d MB is too small for %d mailbox(es); minimum required: %d MB",
			e.DomainQuotaMB, e.Mailboxes, e.MinRequiredMB)
	}
	return fmt.Sprintf("unable to allocate mailbox quota: domain quota %d MB is insufficient for %d mailbox(es)",
		e.DomainQuotaMB, e.Mailboxes)
}

// Partition derives the per-mailbox default/max quota from a domain storage
// quota. The provider enforces defquota * max_mailboxes < domain quota as a
// strict inequality, so the result leaves a safety buffer (1% of the domain
// quota, at least 10 MB) and is decremented until the inequality holds even
// after floor division.
//
// Postcondition on success: 1 <= q and q*max(1,mailboxCount) < domainQuotaMB.
func Partition(domainQuotaMB, mailboxCount int) (int, error) {
	if domainQuotaMB < MinDomainQuotaMB {
		return 0, fmt.Errorf("domain quota must be at least %d MB", MinDomainQuotaMB)
	}

	safeMailboxes := mailboxCount
	if safeMailboxes < 1 {
		safeMailboxes = 1
	}

	bufferMB := int(math.Ceil(float64(domainQuotaMB) * 0.01))
	if bufferMB < 10 {
		bufferMB = 10
	}

	perMailbox := (domainQuotaMB - bufferMB) / safeMailboxes
	if perMailbox < 1 {
		return 0, &PartitionError{
			DomainQuotaMB: domainQuotaMB,
			Mailboxes:     safeMailboxes,
			MinRequiredMB: safeMailboxes*2 + bufferMB,
		}
	}

	// Close any rounding gap left by the floor division.
	for perMailbox*safeMailboxes >= domainQuotaMB && perMailbox > 0 {
		perMailbox--
	}
	if perMailbox < 1 {
		return 0, &PartitionError{DomainQuotaMB: domainQuotaMB, Mailboxes: safeMailboxes}
	}

	return perMailbox, nil
}

// MailboxQuotaMB is the simpler split used at mailbox-creation time: plain
// floor division with no buffer. It intentionally differs from Partition;
// the provider's domain-level defquota already encodes the buffered value,
// and this keeps individual mailbox quotas aligned with the domain's current
// allocation plan.
func MailboxQuotaMB(domainQuotaMB, mailboxCount int) int {
	if mailboxCount < 1 {
		mailboxCount = 1
	}
	return domainQuotaMB / mailboxCount
}
