package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func TestBookmarkAddSnapshotsTicketState(t *testing.T) {
	tickets := &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{
				ID:           id,
				SequenceNo:   "HD-00007",
				Title:        "printer on fire",
				Status:       domain.TicketStatusInProgress,
				DepartmentID: "dept-1",
			}, nil
		},
	}
	var created *domain.Bookmark
	bookmarks := &fakeBookmarkRepo{
		CreateFn: func(ctx context.Context, bookmark *domain.Bookmark) error {
			bookmark.ID = "b1"
			created = bookmark
			return nil
		},
	}
	svc := NewBookmarkService(bookmarks, tickets)

	bookmark, err := svc.Add(context.Background(), "admin-1", "t1", "  follow up tomorrow ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if bookmark.ID != "b1" {
		t.Fatalf("id = %q", bookmark.ID)
	}
	if created.SequenceNo != "HD-00007" || created.TicketTitle != "printer on fire" {
		t.Fatalf("snapshot = %+v", created)
	}
	if created.TicketStatus != domain.TicketStatusInProgress {
		t.Fatalf("status = %s", created.TicketStatus)
	}
	if created.CustomTitle != "follow up tomorrow" {
		t.Fatalf("custom title = %q", created.CustomTitle)
	}
}

func TestBookmarkAddMissingTicket(t *testing.T) {
	svc := NewBookmarkService(&fakeBookmarkRepo{}, &fakeTicketRepo{})

	_, err := svc.Add(context.Background(), "admin-1", "missing", "")
	assertCode(t, err, "NOT_FOUND")
}

func TestBookmarkRemoveForeignIsNotFound(t *testing.T) {
	bookmarks := &fakeBookmarkRepo{
		DeleteFn: func(ctx context.Context, id, adminID string) (bool, error) {
			// The delete is scoped by owner; a foreign bookmark matches no row.
			return false, nil
		},
	}
	svc := NewBookmarkService(bookmarks, &fakeTicketRepo{})

	err := svc.Remove(context.Background(), "admin-2", "b1")
	assertCode(t, err, "NOT_FOUND")
}

func TestBookmarkRemoveOwned(t *testing.T) {
	var gotID, gotAdmin string
	bookmarks := &fakeBookmarkRepo{
		DeleteFn: func(ctx context.Context, id, adminID string) (bool, error) {
			gotID, gotAdmin = id, adminID
			return true, nil
		},
	}
	svc := NewBookmarkService(bookmarks, &fakeTicketRepo{})

	if err := svc.Remove(context.Background(), "admin-1", "b1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if gotID != "b1" || gotAdmin != "admin-1" {
		t.Fatalf("delete scoped to (%s, %s)", gotID, gotAdmin)
	}
}
