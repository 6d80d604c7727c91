package handlers

import (
	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              t.ID,
		SequenceNo:      t.SequenceNo,
		DepartmentID:    t.DepartmentID,
		AssignedAdminID: t.AssignedAdminID,
		Title:           t.Title,
		Status:          t.Status,
		Priority:        t.Priority,
		Reopened:        t.Reopened,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketDetail(t *domain.Ticket) dto.TicketDetailResponse {
	notes := make([]dto.ResolutionNoteResponse, 0, len(t.ResolutionNotes))
	for _, n := range t.ResolutionNotes {
		notes = append(notes, dto.ResolutionNoteResponse{Note: n.Note, AdminID: n.AdminID, CreatedAt: n.CreatedAt})
	}
	attachments := make([]dto.AttachmentResponse, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			StorageKey: a.StorageKey,
			FileName:   a.FileName,
			MimeType:   a.MimeType,
			SizeBytes:  a.SizeBytes,
		})
	}
	return dto.TicketDetailResponse{
		TicketSummary:   ticketSummary(t),
		CreatorID:       t.CreatorID,
		Description:     t.Description,
		Details:         t.Details,
		ResolutionNotes: notes,
		Attachments:     attachments,
		ResolvedAt:      t.ResolvedAt,
		AdminResolvedAt: t.AdminResolvedAt,
		UserClosedAt:    t.UserClosedAt,
	}
}

func ticketMessageResponse(m *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:         m.ID,
		Seq:        m.Seq,
		AuthorType: m.AuthorType,
		AuthorID:   m.AuthorID,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

func activityResponses(records []domain.ActivityRecord) []dto.ActivityResponse {
	items := make([]dto.ActivityResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.ActivityResponse{
			ID:          r.ID,
			ActorID:     r.ActorID,
			Type:        r.Type,
			Description: r.Description,
			OldValue:    r.OldValue,
			NewValue:    r.NewValue,
			CreatedAt:   r.CreatedAt,
		})
	}
	return items
}

func referralResponse(r *domain.Referral) dto.ReferralResponse {
	return dto.ReferralResponse{
		ID:           r.ID,
		TicketID:     r.TicketID,
		ReferredByID: r.ReferredByID,
		ReferredToID: r.ReferredToID,
		Status:       r.Status,
		Message:      r.Message,
		CreatedAt:    r.CreatedAt,
		RespondedAt:  r.RespondedAt,
	}
}

func referralResponses(refs []domain.Referral) []dto.ReferralResponse {
	items := make([]dto.ReferralResponse, 0, len(refs))
	for i := range refs {
		items = append(items, referralResponse(&refs[i]))
	}
	return items
}

func escalationResponse(e *domain.Escalation) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:             e.ID,
		TicketID:       e.TicketID,
		EscalatedByID:  e.EscalatedByID,
		Reason:         e.Reason,
		Status:         e.Status,
		ResolutionNote: e.ResolutionNote,
		CreatedAt:      e.CreatedAt,
		ResolvedAt:     e.ResolvedAt,
	}
}

func bookmarkResponse(b *domain.Bookmark) dto.BookmarkResponse {
	return dto.BookmarkResponse{
		ID:           b.ID,
		TicketID:     b.TicketID,
		SequenceNo:   b.SequenceNo,
		TicketTitle:  b.TicketTitle,
		TicketStatus: b.TicketStatus,
		DepartmentID: b.DepartmentID,
		CustomTitle:  b.CustomTitle,
		CreatedAt:    b.CreatedAt,
	}
}

func adminPerformanceResponse(p *service.AdminPerformance) dto.AdminPerformanceResponse {
	return dto.AdminPerformanceResponse{
		AdminID:             p.AdminID,
		TicketsCatered:      p.TicketsCatered,
		InProgress:          p.InProgress,
		Resolved:            p.Resolved,
		EscalationsResolved: p.EscalationsResolved,
		TicketsEscalated:    p.TicketsEscalated,
		TicketsReferred:     p.TicketsReferred,
		AvgResponseTime:     p.AvgResponseLabel,
		AvgResolutionTime:   p.AvgResolutionLabel,
	}
}
