// internal/client/status.go
package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/researchhub/internal/domain/models"
)

// ErrReasonRequired is returned, before any request is sent, for a
// rejection with a blank reason.
var ErrReasonRequired = errors.New("a rejection reason is required")

// RequestStatus is the state of an invitation, join request, or mentorship
// request. The implementations are Pending, Accepted, and Rejected.
type RequestStatus interface {
	// Name is the wire value: pending, accepted, or rejected.
	Name() string
	isRequestStatus()
}

type Pending struct{}

type Accepted struct{}

// Rejected carries the reason shown to the requester.
type Rejected struct{ Reason string }

func (Pending) Name() string  { return models.StatusPending }
func (Accepted) Name() string { return models.StatusAccepted }
func (Rejected) Name() string { return models.StatusRejected }

func (Pending) isRequestStatus()  {}
func (Accepted) isRequestStatus() {}
func (Rejected) isRequestStatus() {}

// ParseStatus builds a RequestStatus from its wire form.
func ParseStatus(status, reason string) (RequestStatus, error) {
	switch status {
	case models.StatusPending:
		return Pending{}, nil
	case models.StatusAccepted:
		return Accepted{}, nil
	case models.StatusRejected:
		return Rejected{Reason: reason}, nil
	}
	return nil, fmt.Errorf("unknown request status %q", status)
}

// validateResponse checks a status a recipient is answering with.
func validateResponse(s RequestStatus) error {
	switch v := s.(type) {
	case Accepted:
		return nil
	case Rejected:
		if strings.TrimSpace(v.Reason) == "" {
			return ErrReasonRequired
		}
		return nil
	case nil:
		return errors.New("status is required")
	}
	return fmt.Errorf("cannot respond with status %q", s.Name())
}
