package domain

// Actor is the already-authenticated identity passed into every lifecycle
// and matching call. It is rebuilt from the user store on each request.
type Actor struct {
	UserID       string
	Role         Role
	Verification VerificationStatus
	Location     *Point
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsVerified() bool {
	return a.Verification == VerificationVerified
}

// RequireDonor checks the actor may list food.
func (a Actor) RequireDonor() error {
	if a.UserID == "" {
		return ErrUnauthorized
	}
	if a.Role != RoleDonor {
		return ErrNotAuthorized
	}
	if !a.IsVerified() {
		return NewError(ErrCodeForbidden, "donor account is not verified")
	}
	return nil
}

// RequireVerifiedAgent checks the actor may match and claim donations.
func (a Actor) RequireVerifiedAgent() error {
	if a.UserID == "" {
		return ErrUnauthorized
	}
	if a.Role != RoleAgent {
		return ErrNotAuthorized
	}
	if !a.IsVerified() {
		return ErrAgentNotVerified
	}
	return nil
}

// RequireAdmin checks the actor holds the admin tier.
func (a Actor) RequireAdmin() error {
	if a.UserID == "" {
		return ErrUnauthorized
	}
	if !a.IsAdmin() {
		return ErrNotAuthorized
	}
	return nil
}

// Satisfies evaluates the party guard of a rule against a donation.
func (a Actor) Satisfies(p Party, d *Donation) bool {
	if a.UserID == "" {
		return false
	}
	switch p {
	case PartyDonor:
		return a.Role == RoleDonor
	case PartyVerifiedAgent:
		return a.RequireVerifiedAgent() == nil
	case PartyOwner:
		return d.IsOwnedBy(a.UserID)
	case PartyAssignee:
		return d.IsAssignedTo(a.UserID)
	case PartyOwnerOrAssignee:
		return d.IsOwnedBy(a.UserID) || d.IsAssignedTo(a.UserID)
	case PartyOwnerAssigneeOrAdmin:
		return a.IsAdmin() || d.IsOwnedBy(a.UserID) || d.IsAssignedTo(a.UserID)
	}
	return false
}
