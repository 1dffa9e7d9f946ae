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

func (s *Store) CreateOrganization(ctx context.Context, org school.Organization) (school.Organization, error) {
	id := ids.New()
	var (
		out          school.Organization
		email, phone sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `
		insert into organizations (id, name, slug, contact_email, contact_phone, timezone, active)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id, name, slug, contact_email, contact_phone, timezone, active, created_at, updated_at
	`, id, org.Name, org.Slug, nullable(org.ContactEmail), nullable(org.ContactPhone), org.Timezone, org.Active)
	if err := row.Scan(&out.ID, &out.Name, &out.Slug, &email, &phone, &out.Timezone, &out.Active, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return school.Organization{}, mapWriteError(err)
	}
	out.ContactEmail = fromNull(email)
	out.ContactPhone = fromNull(phone)
	return out, nil
}

func (s *Store) ListOrganizations(ctx context.Context, p school.Page) ([]school.Organization, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from organizations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name, slug, contact_email, contact_phone, timezone, active, created_at, updated_at
		from organizations
		order by name
		limit $1 offset $2
	`, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Organization
	for rows.Next() {
		var (
			org          school.Organization
			email, phone sql.NullString
		)
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &email, &phone, &org.Timezone, &org.Active, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, 0, err
		}
		org.ContactEmail = fromNull(email)
		org.ContactPhone = fromNull(phone)
		result = append(result, org)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) GetOrganization(ctx context.Context, id string) (school.Organization, error) {
	var (
		org          school.Organization
		email, phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, name, slug, contact_email, contact_phone, timezone, active, created_at, updated_at
		from organizations
		where id = $1
	`, id).Scan(&org.ID, &org.Name, &org.Slug, &email, &phone, &org.Timezone, &org.Active, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Organization{}, school.ErrNotFound
	}
	if err != nil {
		return school.Organization{}, err
	}
	org.ContactEmail = fromNull(email)
	org.ContactPhone = fromNull(phone)
	return org, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, id string, upd school.OrganizationUpdate) (school.Organization, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	next := 2
	add := func(clause string, value any) {
		sets = append(sets, clause+" = $"+strconv.Itoa(next))
		args = append(args, value)
		next++
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.ContactEmail != nil {
		add("contact_email", nullable(*upd.ContactEmail))
	}
	if upd.ContactPhone != nil {
		add("contact_phone", nullable(*upd.ContactPhone))
	}
	if upd.Timezone != nil {
		add("timezone", *upd.Timezone)
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}

	var (
		org          school.Organization
		email, phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		update organizations set `+strings.Join(sets, ", ")+`
		where id = $1
		returning id, name, slug, contact_email, contact_phone, timezone, active, created_at, updated_at
	`, args...).Scan(&org.ID, &org.Name, &org.Slug, &email, &phone, &org.Timezone, &org.Active, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Organization{}, school.ErrNotFound
	}
	if err != nil {
		return school.Organization{}, mapWriteError(err)
	}
	org.ContactEmail = fromNull(email)
	org.ContactPhone = fromNull(phone)
	return org, nil
}

