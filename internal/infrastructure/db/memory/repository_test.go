package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

func TestAccountRepository_CreateAssignsSequentialIDs(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a, err := repo.Create(ctx, &domain.Account{Username: "kim"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	b, _ := repo.Create(ctx, &domain.Account{Username: "lee"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected IDs 1 and 2, got %d and %d", a.ID, b.ID)
	}

	if _, err := repo.Create(ctx, &domain.Account{Username: "kim"}); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	created, _ := repo.Create(ctx, &domain.Account{
		Username:   "kim",
		Suspension: &domain.SuspensionRecord{Active: true, EndTime: time.Now().Add(time.Hour)},
	})
	created.Suspension.Active = false

	stored, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if !stored.Suspension.Active {
		t.Fatalf("caller mutation leaked into the repository")
	}
}

func TestAccountRepository_UpdateDeleteList(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a, _ := repo.Create(ctx, &domain.Account{Username: "kim", Role: domain.RoleUser})
	_, _ = repo.Create(ctx, &domain.Account{Username: "lee"})

	a.Role = domain.RoleAdmin
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got, _ := repo.FindByUsername(ctx, "kim"); got.Role != domain.RoleAdmin {
		t.Fatalf("expected updated role, got %s", got.Role)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(ctx, a.ID); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := repo.Update(ctx, a); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound on update, got %v", err)
	}

	all, _ := repo.List(ctx)
	if len(all) != 1 || all[0].Username != "lee" {
		t.Fatalf("unexpected list: %+v", all)
	}
}

func TestContentRepository(t *testing.T) {
	repo := NewContentRepository()
	ctx := context.Background()

	_ = repo.Put(ctx, ports.ContentItem{Kind: domain.ContentPost, ID: 3, AuthorID: 7})
	for i := 0; i < 3; i++ {
		_, _ = repo.IncrementViews(ctx, 3)
	}

	item, err := repo.Find(ctx, domain.ContentPost, 3)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if item.AuthorID != 7 || item.Views != 3 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if _, err := repo.Find(ctx, domain.ContentComment, 3); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("expected kinds to be distinct, got %v", err)
	}
	if err := repo.Delete(ctx, domain.ContentPost, 3); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(ctx, domain.ContentPost, 3); !errors.Is(err, domain.ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
}
