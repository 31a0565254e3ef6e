// Package quota holds the pure admission and partitioning arithmetic for
// domain resource allocation. Nothing in this package performs I/O; callers
// supply the usage snapshot and react to the typed rejections.
package quota

import (
	"fmt"
	"strings"

	"github.com/edvin/mailpanel/internal/model"
)

// Request is a proposed allocation for one domain.
type Request struct {
	StorageMB int
	Mailboxes int
	Aliases   int
}

// NoPlanError rejects admission when the user has no active package.
type NoPlanError struct{}

func (e *NoPlanError) Error() string { return "no active plan" }

// ExceededError rejects admission when a package ceiling would be breached.
// AvailableMB/Available carry the remaining headroom so the caller can
// suggest a valid value.
type ExceededError struct {
	Resource  string // "storage", "mailboxes", "aliases"
	Requested int
	Available int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("insufficient %s: requested %d, available %d", e.Resource, e.Requested, e.Available)
}

// LimitError rejects admission when a count ceiling is already reached.
// Distinct from ExceededError: there is no partial headroom to report, the
// plan simply allows no more of the resource.
type LimitError struct {
	Resource string
	Used     int
	Max      int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit reached (%d of %d)", e.Resource, e.Used, e.Max)
}

// NameError rejects a malformed domain name.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid domain name %q: %s", e.Name, e.Reason)
}

// ValidateDomainName checks the domain-name format used for new domains:
// already lowercased and trimmed by the caller, and containing a dot.
func ValidateDomainName(name string) error {
	if name == "" {
		return &NameError{Name: name, Reason: "empty"}
	}
	if name != strings.ToLower(strings.TrimSpace(name)) {
		return &NameError{Name: name, Reason: "must be lowercase with no surrounding whitespace"}
	}
	if !strings.Contains(name, ".") {
		return &NameError{Name: name, Reason: "must contain a dot"}
	}
	return nil
}

// Admit decides whether the requested allocation fits the user's package.
// editing is the domain being resized, or nil for a new domain; others holds
// the rest of the user's domains. Usage sums deliberately exclude the edited
// domain so resizing a domain to its current values always admits.
func Admit(req Request, editing *model.Domain, others []model.Domain, pkg *model.Package) error {
	if pkg == nil {
		return &NoPlanError{}
	}

	usedStorage, usedMailboxes, usedAliases := 0, 0, 0
	for _, d := range others {
		if editing != nil && d.ID == editing.ID {
			continue
		}
		usedStorage += d.QuotaStorageMB
		usedMailboxes += d.QuotaMailboxes
		usedAliases += d.QuotaAliases
	}

	if editing == nil {
		if len(others)+1 > pkg.MaxDomains {
			return &LimitError{Resource: "domain", Used: len(others), Max: pkg.MaxDomains}
		}
	}

	storageLimitMB := pkg.StorageLimitGB * 1024
	if usedStorage+req.StorageMB > storageLimitMB {
		return &ExceededError{Resource: "storage", Requested: req.StorageMB, Available: storageLimitMB - usedStorage}
	}
	if usedMailboxes+req.Mailboxes > pkg.MaxMailboxes {
		return &ExceededError{Resource: "mailboxes", Requested: req.Mailboxes, Available: pkg.MaxMailboxes - usedMailboxes}
	}
	if usedAliases+req.Aliases > pkg.MaxAliases {
		return &ExceededError{Resource: "aliases", Requested: req.Aliases, Available: pkg.MaxAliases - usedAliases}
	}

	return nil
}
