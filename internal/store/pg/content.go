package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"schoolyard.org/internal/ids"
	"schoolyard.org/internal/school"
)

const menuColumns = `id, organization_id, served_on, meal, description, created_at, updated_at`

func (s *Store) CreateMenu(ctx context.Context, menu school.Menu) (school.Menu, error) {
	id := ids.New()
	var out school.Menu
	err := s.db.QueryRowContext(ctx, `
		insert into menus (id, organization_id, served_on, meal, description)
		values ($1, $2, $3, $4, $5)
		returning `+menuColumns+`
	`, id, menu.OrganizationID, menu.ServedOn, menu.Meal, menu.Description).
		Scan(&out.ID, &out.OrganizationID, &out.ServedOn, &out.Meal, &out.Description, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return school.Menu{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListMenus(ctx context.Context, orgID string, from, to string, p school.Page) ([]school.Menu, int, error) {
	where := "organization_id = $1 and deleted_at is null"
	args := []any{orgID}
	next := 2
	if from != "" {
		where += " and served_on >= $" + strconv.Itoa(next)
		args = append(args, from)
		next++
	}
	if to != "" {
		where += " and served_on <= $" + strconv.Itoa(next)
		args = append(args, to)
		next++
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from menus where `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.Size, p.Offset())
	rows, err := s.db.QueryContext(ctx, `
		select `+menuColumns+`
		from menus
		where `+where+`
		order by served_on desc, meal
		limit $`+strconv.Itoa(next)+` offset $`+strconv.Itoa(next+1)+`
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Menu
	for rows.Next() {
		var m school.Menu
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.ServedOn, &m.Meal, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetMenu(ctx context.Context, id string) (school.Menu, error) {
	var m school.Menu
	err := s.db.QueryRowContext(ctx, `
		select `+menuColumns+` from menus where id = $1 and deleted_at is null
	`, id).Scan(&m.ID, &m.OrganizationID, &m.ServedOn, &m.Meal, &m.Description, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Menu{}, school.ErrNotFound
	}
	if err != nil {
		return school.Menu{}, err
	}
	return m, nil
}

func (s *Store) UpdateMenu(ctx context.Context, id string, upd school.MenuUpdate) (school.Menu, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2
	add := func(column string, value any) {
		sets = append(sets, column+" = $"+strconv.Itoa(next))
		args = append(args, value)
		next++
	}
	if upd.ServedOn != nil {
		add("served_on", *upd.ServedOn)
	}
	if upd.Meal != nil {
		add("meal", *upd.Meal)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	var m school.Menu
	err := s.db.QueryRowContext(ctx, `
		update menus set `+strings.Join(sets, ", ")+`
		where id = $1 and deleted_at is null
		returning `+menuColumns+`
	`, args...).Scan(&m.ID, &m.OrganizationID, &m.ServedOn, &m.Meal, &m.Description, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Menu{}, school.ErrNotFound
	}
	if err != nil {
		return school.Menu{}, mapWriteError(err)
	}
	return m, nil
}

func (s *Store) SoftDeleteMenu(ctx context.Context, id string) error {
	return s.softDelete(ctx, "menus", id)
}

const photoColumns = `id, organization_id, caption, object_key, class_name, uploaded_by, created_at`

func scanPhoto(scan func(dest ...any) error) (school.Photo, error) {
	var (
		ph             school.Photo
		caption, class sql.NullString
	)
	err := scan(&ph.ID, &ph.OrganizationID, &caption, &ph.ObjectKey, &class, &ph.UploadedBy, &ph.CreatedAt)
	if err != nil {
		return school.Photo{}, err
	}
	ph.Caption = fromNull(caption)
	ph.ClassName = fromNull(class)
	return ph, nil
}

func (s *Store) CreatePhoto(ctx context.Context, photo school.Photo) (school.Photo, error) {
	id := ids.New()
	row := s.db.QueryRowContext(ctx, `
		insert into photos (id, organization_id, caption, object_key, class_name, uploaded_by)
		values ($1, $2, $3, $4, $5, $6)
		returning `+photoColumns+`
	`, id, photo.OrganizationID, nullable(photo.Caption), photo.ObjectKey, nullable(photo.ClassName), photo.UploadedBy)
	out, err := scanPhoto(row.Scan)
	if err != nil {
		return school.Photo{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListPhotos(ctx context.Context, orgID string, p school.Page) ([]school.Photo, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from photos where organization_id = $1 and deleted_at is null
	`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+photoColumns+`
		from photos
		where organization_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3
	`, orgID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Photo
	for rows.Next() {
		ph, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, ph)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetPhoto(ctx context.Context, id string) (school.Photo, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+photoColumns+` from photos where id = $1 and deleted_at is null
	`, id)
	ph, err := scanPhoto(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Photo{}, school.ErrNotFound
	}
	if err != nil {
		return school.Photo{}, err
	}
	return ph, nil
}

func (s *Store) SoftDeletePhoto(ctx context.Context, id string) error {
	return s.softDelete(ctx, "photos", id)
}

const announcementColumns = `id, organization_id, title, body, created_by, created_at, updated_at`

func (s *Store) CreateAnnouncement(ctx context.Context, a school.Announcement) (school.Announcement, error) {
	id := ids.New()
	var out school.Announcement
	err := s.db.QueryRowContext(ctx, `
		insert into announcements (id, organization_id, title, body, created_by)
		values ($1, $2, $3, $4, $5)
		returning `+announcementColumns+`
	`, id, a.OrganizationID, a.Title, a.Body, a.CreatedBy).
		Scan(&out.ID, &out.OrganizationID, &out.Title, &out.Body, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return school.Announcement{}, mapWriteError(err)
	}
	return out, nil
}

func (s *Store) ListAnnouncements(ctx context.Context, orgID string, p school.Page) ([]school.Announcement, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from announcements where organization_id = $1 and deleted_at is null
	`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+announcementColumns+`
		from announcements
		where organization_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3
	`, orgID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Announcement
	for rows.Next() {
		var a school.Announcement
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetAnnouncement(ctx context.Context, id string) (school.Announcement, error) {
	var a school.Announcement
	err := s.db.QueryRowContext(ctx, `
		select `+announcementColumns+` from announcements where id = $1 and deleted_at is null
	`, id).Scan(&a.ID, &a.OrganizationID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Announcement{}, school.ErrNotFound
	}
	if err != nil {
		return school.Announcement{}, err
	}
	return a, nil
}

func (s *Store) UpdateAnnouncement(ctx context.Context, id string, upd school.AnnouncementUpdate) (school.Announcement, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2
	add := func(column string, value any) {
		sets = append(sets, column+" = $"+strconv.Itoa(next))
		args = append(args, value)
		next++
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Body != nil {
		add("body", *upd.Body)
	}
	var a school.Announcement
	err := s.db.QueryRowContext(ctx, `
		update announcements set `+strings.Join(sets, ", ")+`
		where id = $1 and deleted_at is null
		returning `+announcementColumns+`
	`, args...).Scan(&a.ID, &a.OrganizationID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Announcement{}, school.ErrNotFound
	}
	if err != nil {
		return school.Announcement{}, mapWriteError(err)
	}
	return a, nil
}

func (s *Store) SoftDeleteAnnouncement(ctx context.Context, id string) error {
	return s.softDelete(ctx, "announcements", id)
}
