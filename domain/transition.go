package domain

// Event names a lifecycle transition.
type Event string

const (
	EventCreate          Event = "create"
	EventRequest         Event = "request"
	EventAccept          Event = "accept"
	EventReject          Event = "reject"
	EventCollect         Event = "collect"
	EventDelete          Event = "delete"
	EventFeedback        Event = "submit feedback for"
	EventDismissFeedback Event = "dismiss feedback for"
	EventRateDonor       Event = "rate the donor of"
)

// Party is the actor guard attached to an event.
type Party int

const (
	PartyDonor Party = iota + 1
	PartyVerifiedAgent
	PartyOwner
	PartyAssignee
	PartyOwnerOrAssignee
	PartyOwnerAssigneeOrAdmin
)

// Rule is one edge of the lifecycle table. To is empty for removal.
type Rule struct {
	Event Event
	From  []DonationStatus
	To    DonationStatus
	Party Party
}

var rules = map[Event]Rule{
	EventCreate:          {Event: EventCreate, To: StatusPending, Party: PartyDonor},
	EventRequest:         {Event: EventRequest, From: []DonationStatus{StatusPending, StatusRejected}, To: StatusRequested, Party: PartyVerifiedAgent},
	EventAccept:          {Event: EventAccept, From: []DonationStatus{StatusRequested}, To: StatusAssigned, Party: PartyOwner},
	EventReject:          {Event: EventReject, From: []DonationStatus{StatusRequested}, To: StatusPending, Party: PartyOwner},
	EventCollect:         {Event: EventCollect, From: []DonationStatus{StatusAssigned}, To: StatusCollected, Party: PartyAssignee},
	EventDelete:          {Event: EventDelete, From: []DonationStatus{StatusAssigned, StatusRequested, StatusRejected}, Party: PartyOwnerAssigneeOrAdmin},
	EventFeedback:        {Event: EventFeedback, From: []DonationStatus{StatusCollected}, To: StatusCollected, Party: PartyOwner},
	EventDismissFeedback: {Event: EventDismissFeedback, From: []DonationStatus{StatusCollected}, To: StatusCollected, Party: PartyOwnerOrAssignee},
	EventRateDonor:       {Event: EventRateDonor, From: []DonationStatus{StatusCollected}, To: StatusCollected, Party: PartyAssignee},
}

// RuleFor returns the table entry for an event.
func RuleFor(event Event) (Rule, bool) {
	r, ok := rules[event]
	return r, ok
}

// Allows reports whether the event may fire from the given status.
func (r Rule) Allows(from DonationStatus) bool {
	for _, s := range r.From {
		if s == from {
			return true
		}
	}
	return false
}

// Next returns the status reached by firing event from the given status.
func Next(from DonationStatus, event Event) (DonationStatus, error) {
	r, ok := rules[event]
	if !ok || !r.Allows(from) {
		return "", InvalidTransition(from, event)
	}
	return r.To, nil
}
