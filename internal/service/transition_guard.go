package service

import "github.com/facilityops/visit-booking/internal/domain"

// TransitionGuard exposes capability checks without mutating the appointment.
// The aggregate's own transition table stays authoritative.
type TransitionGuard struct{}

// CanAdminModify reports whether an administrator may still act on a.
func (TransitionGuard) CanAdminModify(a *domain.Appointment) bool {
	return !a.Status().IsTerminal()
}

// CanProviderCancel reports whether the provider may still cancel a.
func (TransitionGuard) CanProviderCancel(a *domain.Appointment) bool {
	return a.Status().AllowsModification()
}

// Check fails with InvalidTransitionError when op is not legal for a.
func (TransitionGuard) Check(a *domain.Appointment, op domain.Operation) error {
	if !a.CanApply(op) {
		return &domain.InvalidTransitionError{Current: a.Status(), Operation: op}
	}
	return nil
}
