package domain

import "strings"

type ParticipantRole string

const (
	RolePrimary     ParticipantRole = "primary"
	RoleSecondary   ParticipantRole = "secondary"
	RoleObserver    ParticipantRole = "observer"
	RoleFacilitator ParticipantRole = "facilitator"
	RoleLeader      ParticipantRole = "leader"
	RoleMember      ParticipantRole = "member"
	RoleContributor ParticipantRole = "contributor"
	RoleStakeholder ParticipantRole = "stakeholder"
	RoleAuthor      ParticipantRole = "author"
	RoleReviewer    ParticipantRole = "reviewer"
	RoleApprover    ParticipantRole = "approver"
)

func CustomRole(name string) ParticipantRole {
	return ParticipantRole(customPrefix + name)
}

func ValidParticipantRole(r string) bool {
	switch ParticipantRole(r) {
	case RolePrimary, RoleSecondary, RoleObserver, RoleFacilitator, RoleLeader, RoleMember,
		RoleContributor, RoleStakeholder, RoleAuthor, RoleReviewer, RoleApprover:
		return true
	}
	return strings.HasPrefix(r, customPrefix) && len(r) > len(customPrefix)
}
