package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
)

func createTestHackathon(t *testing.T, db *DB, max int) *model.Hackathon {
	t.Helper()
	h := &model.Hackathon{
		Name:            "Hack Week",
		Description:     "build things",
		StartDate:       "2026-11-01",
		EndDate:         "2026-11-03",
		OrganizerID:     "buyer@example.com",
		MaxParticipants: max,
		Prizes:          []string{"fame"},
		Technologies:    []string{"go"},
		Status:          model.HackathonUpcoming,
	}
	if err := db.Hackathons().Create(context.Background(), h); err != nil {
		t.Fatalf("failed to create test hackathon: %v", err)
	}
	return h
}

func TestHackathonCreate_InitialisesParticipants(t *testing.T) {
	db := newTestDB(t)
	h := createTestHackathon(t, db, 3)

	got, err := db.Hackathons().GetByID(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Participants == nil || len(got.Participants) != 0 {
		t.Errorf("Participants = %v, want empty list", got.Participants)
	}
}

func TestHackathonAddParticipant_Guards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	h := createTestHackathon(t, db, 1)

	added, err := db.Hackathons().AddParticipant(ctx, h.ID, "u1")
	if err != nil || !added {
		t.Fatalf("AddParticipant(u1) = %v, %v; want true, nil", added, err)
	}

	added, err = db.Hackathons().AddParticipant(ctx, h.ID, "u1")
	if err != nil || added {
		t.Errorf("AddParticipant(u1 again) = %v, %v; want false, nil", added, err)
	}

	added, err = db.Hackathons().AddParticipant(ctx, h.ID, "u2")
	if err != nil || added {
		t.Errorf("AddParticipant(u2 when full) = %v, %v; want false, nil", added, err)
	}

	got, _ := db.Hackathons().GetByID(ctx, h.ID)
	if len(got.Participants) != 1 || got.Participants[0] != "u1" {
		t.Errorf("Participants = %v, want [u1]", got.Participants)
	}
}

func TestHackathonAddParticipant_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Hackathons().AddParticipant(context.Background(), "missing", "u1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("AddParticipant() error = %v, want ErrNotFound", err)
	}
}

func TestHackathonAddParticipant_ConcurrentNeverOverbooks(t *testing.T) {
	db := newTestDB(t)
	h := createTestHackathon(t, db, 5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every user tries twice to exercise the duplicate guard as well.
			for range 2 {
				if _, err := db.Hackathons().AddParticipant(context.Background(), h.ID, fmt.Sprintf("u%d", i)); err != nil {
					t.Errorf("AddParticipant() error = %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	got, _ := db.Hackathons().GetByID(context.Background(), h.ID)
	if len(got.Participants) != 5 {
		t.Fatalf("len(Participants) = %d, want 5", len(got.Participants))
	}
	seen := map[string]bool{}
	for _, p := range got.Participants {
		if seen[p] {
			t.Errorf("duplicate participant %s", p)
		}
		seen[p] = true
	}
}

func TestHackathonList_StableOrder(t *testing.T) {
	db := newTestDB(t)
	for range 3 {
		createTestHackathon(t, db, 2)
	}

	first, err := db.Hackathons().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	second, _ := db.Hackathons().List(context.Background())

	if len(first) != 3 {
		t.Fatalf("List() returned %d hackathons, want 3", len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("List() order changed at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestHackathonUpdate(t *testing.T) {
	db := newTestDB(t)
	h := createTestHackathon(t, db, 2)

	h.Name = "Hack Month"
	if err := db.Hackathons().Update(context.Background(), h); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := db.Hackathons().GetByID(context.Background(), h.ID)
	if got.Name != "Hack Month" {
		t.Errorf("Name = %q after Update()", got.Name)
	}
}

func TestHackathonUpdate_KeepsParticipantsFromStaleCopy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	h := createTestHackathon(t, db, 3)

	stale, _ := db.Hackathons().GetByID(ctx, h.ID)
	if _, err := db.Hackathons().AddParticipant(ctx, h.ID, "dev@example.com"); err != nil {
		t.Fatalf("AddParticipant() error = %v", err)
	}

	stale.Name = "Hack Month"
	stale.Status = model.HackathonCompleted
	if err := db.Hackathons().Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(stale.Participants) != 1 || stale.Status != model.HackathonUpcoming {
		t.Errorf("Update() left %v / %s in the caller's copy", stale.Participants, stale.Status)
	}

	got, _ := db.Hackathons().GetByID(ctx, h.ID)
	if got.Name != "Hack Month" {
		t.Errorf("Name = %q after Update()", got.Name)
	}
	if len(got.Participants) != 1 || got.Participants[0] != "dev@example.com" {
		t.Errorf("Participants = %v, want [dev@example.com]", got.Participants)
	}
	if got.Status != model.HackathonUpcoming {
		t.Errorf("Status = %s, want it untouched", got.Status)
	}
}

func TestHackathonUpdate_CapacityBelowParticipants(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	h := createTestHackathon(t, db, 3)

	stale, _ := db.Hackathons().GetByID(ctx, h.ID)
	for _, u := range []string{"a@example.com", "b@example.com"} {
		if _, err := db.Hackathons().AddParticipant(ctx, h.ID, u); err != nil {
			t.Fatalf("AddParticipant(%s) error = %v", u, err)
		}
	}

	stale.MaxParticipants = 1
	if err := db.Hackathons().Update(ctx, stale); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() error = %v, want ErrConflict", err)
	}
	got, _ := db.Hackathons().GetByID(ctx, h.ID)
	if got.MaxParticipants != 3 {
		t.Errorf("MaxParticipants = %d after rejected Update(), want 3", got.MaxParticipants)
	}

	missing := &model.Hackathon{ID: "missing", MaxParticipants: 1}
	if err := db.Hackathons().Update(ctx, missing); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}
