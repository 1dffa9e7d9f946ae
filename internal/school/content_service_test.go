package school

import (
	"context"
	"errors"
	"testing"

	"schoolyard.org/internal/ids"
)

func newContent(t *testing.T) (*ContentService, string) {
	t.Helper()
	store := NewInMemory()
	svc, err := NewContentService(store)
	if err != nil {
		t.Fatalf("new content service: %v", err)
	}
	org, err := store.CreateOrganization(context.Background(), Organization{
		Name: "Test School", Slug: "test-school", Timezone: "UTC", Active: true,
	})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return svc, org.ID
}

func TestCreateMenuValidation(t *testing.T) {
	svc, orgID := newContent(t)
	ctx := context.Background()

	_, err := svc.CreateMenu(ctx, CreateMenuInput{
		OrganizationID: orgID,
		ServedOn:       "next tuesday",
		Meal:           "brunch",
		Description:    "",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}

	menu, err := svc.CreateMenu(ctx, CreateMenuInput{
		OrganizationID: orgID,
		ServedOn:       "2026-03-02",
		Meal:           "Lunch",
		Description:    "Pasta and salad",
	})
	if err != nil {
		t.Fatalf("create menu: %v", err)
	}
	if menu.Meal != MealLunch {
		t.Fatalf("meal not normalized: %q", menu.Meal)
	}
}

func TestCreateMenuDuplicateDayAndMeal(t *testing.T) {
	svc, orgID := newContent(t)
	ctx := context.Background()
	in := CreateMenuInput{
		OrganizationID: orgID,
		ServedOn:       "2026-03-02",
		Meal:           "lunch",
		Description:    "Pasta",
	}
	if _, err := svc.CreateMenu(ctx, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	in.Description = "Soup"
	if _, err := svc.CreateMenu(ctx, in); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate (day, meal): got %v, want ErrConflict", err)
	}
	// A different meal on the same day is fine.
	in.Meal = "breakfast"
	if _, err := svc.CreateMenu(ctx, in); err != nil {
		t.Fatalf("different meal same day: %v", err)
	}
}

func TestMenuDateRangeListing(t *testing.T) {
	svc, orgID := newContent(t)
	ctx := context.Background()
	for _, day := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		if _, err := svc.CreateMenu(ctx, CreateMenuInput{
			OrganizationID: orgID, ServedOn: day, Meal: "lunch", Description: "Lunch " + day,
		}); err != nil {
			t.Fatalf("create %s: %v", day, err)
		}
	}
	items, total, err := svc.ListMenus(ctx, orgID, "2026-03-03", "", NormalizePage(1, 20))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("from filter: total %d, want 2", total)
	}
	if _, _, err := svc.ListMenus(ctx, orgID, "soon", "", NormalizePage(1, 20)); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad from: got %v", err)
	}
}

func TestPhotoRequiresObjectKey(t *testing.T) {
	svc, orgID := newContent(t)
	ctx := context.Background()
	if _, err := svc.CreatePhoto(ctx, CreatePhotoInput{OrganizationID: orgID, UploadedBy: ids.New()}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing object_key: got %v", err)
	}
	photo, err := svc.CreatePhoto(ctx, CreatePhotoInput{
		OrganizationID: orgID,
		ObjectKey:      "photos/2026/03/trip.jpg",
		Caption:        "Zoo trip",
		UploadedBy:     ids.New(),
	})
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}
	if err := svc.DeletePhoto(ctx, photo.ID); err != nil {
		t.Fatalf("delete photo: %v", err)
	}
	if _, err := svc.GetPhoto(ctx, photo.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v", err)
	}
}

func TestAnnouncementRequiresTitleAndBody(t *testing.T) {
	svc, orgID := newContent(t)
	ctx := context.Background()
	_, err := svc.CreateAnnouncement(ctx, CreateAnnouncementInput{
		OrganizationID: orgID,
		Title:          " ",
		Body:           "",
		CreatedBy:      ids.New(),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}
