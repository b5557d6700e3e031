// Package authz decides whether a signer may act on behalf of a profile
// owner, either directly or through a delegated session credential.
package authz

import (
	"github.com/mcoot/realmledger/internal/model"
)

// Operation names a state-mutating entry point
type Operation string

const (
	OpCreateProfile       Operation = "create_profile"
	OpIssueCredential     Operation = "issue_credential"
	OpDelegate            Operation = "delegate"
	OpUndelegateAndSettle Operation = "undelegate_and_settle"
	OpCommitCheckpoint    Operation = "commit_checkpoint"
	OpEnter               Operation = "enter"
	OpPlaceBlock          Operation = "place_block"
	OpAttack              Operation = "attack"
	OpKillEntity          Operation = "kill_entity"
	OpEndGame             Operation = "end_game"
	OpWatchEvents         Operation = "watch_events"
)

// Policy is the authorization rule applied to an operation
type Policy int

const (
	// PolicyDeny rejects every caller
	PolicyDeny Policy = iota
	// PolicyOwnerOnly requires the direct signer to be the owner
	PolicyOwnerOnly
	// PolicyOwnerOrCredential also admits a signer holding a credential
	// bound to the owner
	PolicyOwnerOrCredential
)

// DefaultPolicies is the policy table for every operation. Custody changes
// need the owner's own key; hot-path actions accept session credentials.
var DefaultPolicies = map[Operation]Policy{
	OpCreateProfile:       PolicyOwnerOnly,
	OpIssueCredential:     PolicyOwnerOnly,
	OpDelegate:            PolicyOwnerOnly,
	OpUndelegateAndSettle: PolicyOwnerOnly,
	OpCommitCheckpoint:    PolicyOwnerOrCredential,
	OpEnter:               PolicyOwnerOrCredential,
	OpPlaceBlock:          PolicyOwnerOrCredential,
	OpAttack:              PolicyOwnerOrCredential,
	OpKillEntity:          PolicyOwnerOrCredential,
	OpEndGame:             PolicyOwnerOrCredential,
	OpWatchEvents:         PolicyOwnerOrCredential,
}

// Request carries the identities presented for one call
type Request struct {
	Owner      model.OwnerID            // recorded owner of the target profile
	Signer     model.SignerID           // verified direct signer
	Credential *model.SessionCredential // optional, already verified
}

// Guard evaluates requests against a policy table
type Guard struct {
	policies map[Operation]Policy
}

// NewGuard creates a Guard using the given policy table. A nil table uses
// DefaultPolicies.
func NewGuard(policies map[Operation]Policy) *Guard {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &Guard{policies: policies}
}

// PolicyFor returns the policy applied to op
func (g *Guard) PolicyFor(op Operation) Policy {
	return g.policies[op]
}

// Authorize returns model.ErrInvalidAuth unless req satisfies the policy
// for op
func (g *Guard) Authorize(op Operation, req Request) error {
	switch g.policies[op] {
	case PolicyOwnerOnly:
		if isOwner(req) {
			return nil
		}
	case PolicyOwnerOrCredential:
		if isOwner(req) || holdsCredential(req) {
			return nil
		}
	}
	return model.ErrInvalidAuth
}

func isOwner(req Request) bool {
	return req.Owner != "" && model.OwnerID(req.Signer) == req.Owner
}

func holdsCredential(req Request) bool {
	c := req.Credential
	return c != nil &&
		req.Owner != "" &&
		c.Owner == req.Owner &&
		c.Signer != "" &&
		c.Signer == req.Signer
}
