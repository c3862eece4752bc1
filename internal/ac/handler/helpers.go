package handler

import "github.com/meetmesh/control-plane/internal/common/jwtclaims"

func participantTypeOf(s string) jwtclaims.ParticipantType {
	switch jwtclaims.ParticipantType(s) {
	case jwtclaims.ParticipantMember, jwtclaims.ParticipantExternal, jwtclaims.ParticipantGuest:
		return jwtclaims.ParticipantType(s)
	default:
		return jwtclaims.ParticipantGuest
	}
}

func roleOf(s string) jwtclaims.Role {
	switch jwtclaims.Role(s) {
	case jwtclaims.RoleHost, jwtclaims.RoleParticipant, jwtclaims.RoleGuest:
		return jwtclaims.Role(s)
	default:
		return jwtclaims.RoleGuest
	}
}
