package appointments

import (
	"context"

	"github.com/vozagenda/vozagenda/internal/voice"
)

// VoiceCreator adapts the scheduling service to the dictation engine's
// creation hook. Conflict and validation failures flow back unchanged,
// so the session surfaces them as a creation error.
type VoiceCreator struct {
	service *Service
}

// NewVoiceCreator wraps the service for dictation sessions.
func NewVoiceCreator(service *Service) *VoiceCreator {
	return &VoiceCreator{service: service}
}

// CreateAppointment implements voice.Creator.
func (c *VoiceCreator) CreateAppointment(ctx context.Context, draft voice.Draft) error {
	_, err := c.service.Create(ctx, CreateRequest{
		PatientName:     draft.PatientName,
		StartTime:       draft.Start,
		DurationMinutes: draft.DurationMinutes,
		Service:         draft.Service,
		Reason:          draft.Reason,
		Doctor:          draft.DoctorName,
		Notes:           draft.Notes,
	})
	return err
}
