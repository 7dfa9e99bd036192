package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/domain"
)

func TestNextFollowsLifecycleTable(t *testing.T) {
	allowed := map[domain.Event]map[domain.DonationStatus]domain.DonationStatus{
		domain.EventRequest: {
			domain.StatusPending:  domain.StatusRequested,
			domain.StatusRejected: domain.StatusRequested,
		},
		domain.EventAccept:          {domain.StatusRequested: domain.StatusAssigned},
		domain.EventReject:          {domain.StatusRequested: domain.StatusPending},
		domain.EventCollect:         {domain.StatusAssigned: domain.StatusCollected},
		domain.EventFeedback:        {domain.StatusCollected: domain.StatusCollected},
		domain.EventDismissFeedback: {domain.StatusCollected: domain.StatusCollected},
		domain.EventDelete: {
			domain.StatusAssigned:  "",
			domain.StatusRequested: "",
			domain.StatusRejected:  "",
		},
	}

	for event, edges := range allowed {
		for _, from := range domain.AllStatuses {
			to, err := domain.Next(from, event)
			want, ok := edges[from]
			if ok {
				require.NoError(t, err, "%s from %s", event, from)
				assert.Equal(t, want, to, "%s from %s", event, from)
				continue
			}
			require.Error(t, err, "%s from %s", event, from)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
		}
	}
}

func TestNextUnknownEvent(t *testing.T) {
	_, err := domain.Next(domain.StatusPending, domain.Event("teleport"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalidTransition))
}

func TestActorSatisfies(t *testing.T) {
	agent := "agent-1"
	d := &domain.Donation{DonorID: "donor-1", AgentID: &agent}

	owner := domain.Actor{UserID: "donor-1", Role: domain.RoleDonor, Verification: domain.VerificationVerified}
	assignee := domain.Actor{UserID: agent, Role: domain.RoleAgent, Verification: domain.VerificationVerified}
	stranger := domain.Actor{UserID: "agent-2", Role: domain.RoleAgent, Verification: domain.VerificationVerified}
	admin := domain.Actor{UserID: "root", Role: domain.RoleAdmin}
	pendingAgent := domain.Actor{UserID: "agent-3", Role: domain.RoleAgent, Verification: domain.VerificationPending}

	assert.True(t, owner.Satisfies(domain.PartyOwner, d))
	assert.False(t, assignee.Satisfies(domain.PartyOwner, d))
	assert.True(t, assignee.Satisfies(domain.PartyAssignee, d))
	assert.False(t, stranger.Satisfies(domain.PartyAssignee, d))
	assert.True(t, admin.Satisfies(domain.PartyOwnerAssigneeOrAdmin, d))
	assert.False(t, stranger.Satisfies(domain.PartyOwnerAssigneeOrAdmin, d))
	assert.True(t, stranger.Satisfies(domain.PartyVerifiedAgent, d))
	assert.False(t, pendingAgent.Satisfies(domain.PartyVerifiedAgent, d))
	assert.False(t, domain.Actor{}.Satisfies(domain.PartyDonor, d))
}

func TestVisibleToAgent(t *testing.T) {
	me, other := "me", "other"
	cases := []struct {
		status domain.DonationStatus
		agent  *string
		want   bool
	}{
		{domain.StatusPending, nil, true},
		{domain.StatusRequested, &me, true},
		{domain.StatusRequested, &other, false},
		{domain.StatusRejected, &me, true},
		{domain.StatusRejected, &other, false},
		{domain.StatusAssigned, &me, false},
		{domain.StatusCollected, &me, false},
	}
	for _, tc := range cases {
		d := &domain.Donation{Status: tc.status, AgentID: tc.agent}
		assert.Equal(t, tc.want, d.VisibleToAgent(me), "status %s", tc.status)
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	wrapped := domain.WrapError(domain.ErrCodeNotFound, "donation not found", assert.AnError)
	assert.ErrorIs(t, wrapped, domain.ErrDonationNotFound)
	assert.NotErrorIs(t, domain.ErrUserNotFound, domain.ErrDonationNotFound)
	assert.ErrorIs(t, wrapped, assert.AnError)
}
