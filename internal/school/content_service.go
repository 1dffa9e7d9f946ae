package school

import (
	"context"
	"errors"
	"strings"

	"schoolyard.org/internal/ids"
)

// ContentService validates menus, photo records and announcements.
type ContentService struct {
	store ContentStore
}

func NewContentService(store ContentStore) (*ContentService, error) {
	if store == nil {
		return nil, errors.New("content store is required")
	}
	return &ContentService{store: store}, nil
}

type CreateMenuInput struct {
	OrganizationID string
	ServedOn       string
	Meal           string
	Description    string
}

func (s *ContentService) CreateMenu(ctx context.Context, in CreateMenuInput) (Menu, error) {
	var fields []FieldError
	in.ServedOn = strings.TrimSpace(in.ServedOn)
	if !validDate(in.ServedOn) {
		fields = append(fields, FieldError{Field: "served_on", Message: "must be YYYY-MM-DD"})
	}
	in.Meal = strings.TrimSpace(strings.ToLower(in.Meal))
	if !validMeal(in.Meal) {
		fields = append(fields, FieldError{Field: "meal", Message: "must be one of breakfast, lunch, snack"})
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		fields = append(fields, FieldError{Field: "description", Message: "is required"})
	}
	if len(fields) > 0 {
		return Menu{}, &ValidationError{Fields: fields}
	}
	return s.store.CreateMenu(ctx, Menu{
		OrganizationID: in.OrganizationID,
		ServedOn:       in.ServedOn,
		Meal:           in.Meal,
		Description:    in.Description,
	})
}

func (s *ContentService) ListMenus(ctx context.Context, orgID, from, to string, p Page) ([]Menu, int, error) {
	from = strings.TrimSpace(from)
	if from != "" && !validDate(from) {
		return nil, 0, Invalid("from", "must be YYYY-MM-DD")
	}
	to = strings.TrimSpace(to)
	if to != "" && !validDate(to) {
		return nil, 0, Invalid("to", "must be YYYY-MM-DD")
	}
	return s.store.ListMenus(ctx, orgID, from, to, p)
}

func (s *ContentService) GetMenu(ctx context.Context, id string) (Menu, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Menu{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetMenu(ctx, strings.TrimSpace(id))
}

func (s *ContentService) UpdateMenu(ctx context.Context, id string, upd MenuUpdate) (Menu, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Menu{}, Invalid("id", "must be a valid identifier")
	}
	if upd.ServedOn != nil {
		served := strings.TrimSpace(*upd.ServedOn)
		if !validDate(served) {
			return Menu{}, Invalid("served_on", "must be YYYY-MM-DD")
		}
		upd.ServedOn = &served
	}
	if upd.Meal != nil {
		meal := strings.TrimSpace(strings.ToLower(*upd.Meal))
		if !validMeal(meal) {
			return Menu{}, Invalid("meal", "must be one of breakfast, lunch, snack")
		}
		upd.Meal = &meal
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		if desc == "" {
			return Menu{}, Invalid("description", "is required")
		}
		upd.Description = &desc
	}
	return s.store.UpdateMenu(ctx, strings.TrimSpace(id), upd)
}

func (s *ContentService) DeleteMenu(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeleteMenu(ctx, strings.TrimSpace(id))
}

type CreatePhotoInput struct {
	OrganizationID string
	Caption        string
	ObjectKey      string
	ClassName      string
	UploadedBy     string
}

func (s *ContentService) CreatePhoto(ctx context.Context, in CreatePhotoInput) (Photo, error) {
	in.ObjectKey = strings.TrimSpace(in.ObjectKey)
	if in.ObjectKey == "" {
		return Photo{}, Invalid("object_key", "is required")
	}
	return s.store.CreatePhoto(ctx, Photo{
		OrganizationID: in.OrganizationID,
		Caption:        strings.TrimSpace(in.Caption),
		ObjectKey:      in.ObjectKey,
		ClassName:      strings.TrimSpace(in.ClassName),
		UploadedBy:     in.UploadedBy,
	})
}

func (s *ContentService) ListPhotos(ctx context.Context, orgID string, p Page) ([]Photo, int, error) {
	return s.store.ListPhotos(ctx, orgID, p)
}

func (s *ContentService) GetPhoto(ctx context.Context, id string) (Photo, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Photo{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetPhoto(ctx, strings.TrimSpace(id))
}

func (s *ContentService) DeletePhoto(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeletePhoto(ctx, strings.TrimSpace(id))
}

type CreateAnnouncementInput struct {
	OrganizationID string
	Title          string
	Body           string
	CreatedBy      string
}

func (s *ContentService) CreateAnnouncement(ctx context.Context, in CreateAnnouncementInput) (Announcement, error) {
	var fields []FieldError
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		fields = append(fields, FieldError{Field: "title", Message: "is required"})
	}
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		fields = append(fields, FieldError{Field: "body", Message: "is required"})
	}
	if len(fields) > 0 {
		return Announcement{}, &ValidationError{Fields: fields}
	}
	return s.store.CreateAnnouncement(ctx, Announcement{
		OrganizationID: in.OrganizationID,
		Title:          in.Title,
		Body:           in.Body,
		CreatedBy:      in.CreatedBy,
	})
}

func (s *ContentService) ListAnnouncements(ctx context.Context, orgID string, p Page) ([]Announcement, int, error) {
	return s.store.ListAnnouncements(ctx, orgID, p)
}

func (s *ContentService) GetAnnouncement(ctx context.Context, id string) (Announcement, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Announcement{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetAnnouncement(ctx, strings.TrimSpace(id))
}

func (s *ContentService) UpdateAnnouncement(ctx context.Context, id string, upd AnnouncementUpdate) (Announcement, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Announcement{}, Invalid("id", "must be a valid identifier")
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return Announcement{}, Invalid("title", "is required")
		}
		upd.Title = &title
	}
	if upd.Body != nil {
		body := strings.TrimSpace(*upd.Body)
		if body == "" {
			return Announcement{}, Invalid("body", "is required")
		}
		upd.Body = &body
	}
	return s.store.UpdateAnnouncement(ctx, strings.TrimSpace(id), upd)
}

func (s *ContentService) DeleteAnnouncement(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeleteAnnouncement(ctx, strings.TrimSpace(id))
}
