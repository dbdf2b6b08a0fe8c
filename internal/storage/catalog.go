package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"laporan/internal/core"
)

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.query(ctx, `SELECT id, label, type, icon_name, section_id, user_id FROM menus ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Label, &kind, &c.IconName, &c.SectionID, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		c.Kind = core.CategoryKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var c core.Category
	var kind string
	err := r.queryRow(ctx, `SELECT id, label, type, icon_name, section_id, user_id FROM menus WHERE id = ?`, id).
		Scan(&c.ID, &c.Label, &kind, &c.IconName, &c.SectionID, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("menu", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get menu %s: %w", id, err)
	}
	c.Kind = core.CategoryKind(kind)
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, err := r.GetCategory(ctx, c.ID); err == nil {
		return core.Category{}, &core.ValidationError{Field: "id", Message: "menu " + c.ID + " already exists"}
	}
	_, err := r.exec(ctx, `INSERT INTO menus (id, label, type, icon_name, section_id, user_id) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Label, string(c.Kind), c.IconName, c.SectionID, c.UserID)
	if err != nil {
		return core.Category{}, fmt.Errorf("create menu: %w", err)
	}
	slog.InfoContext(ctx, "Menu created", "id", c.ID, "label", c.Label)
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	err := r.execAffecting(ctx, "menu", c.ID,
		`UPDATE menus SET label = ?, type = ?, icon_name = ?, section_id = ?, user_id = ? WHERE id = ?`,
		c.Label, string(c.Kind), c.IconName, c.SectionID, c.UserID, c.ID)
	if err != nil {
		return core.Category{}, wrapUnlessNotFound(err, "update menu %s", c.ID)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx Store) error {
		scoped := tx.(*Repository)
		if _, err := scoped.exec(ctx, `DELETE FROM transactions WHERE menu_id = ?`, id); err != nil {
			return fmt.Errorf("delete entries of menu %s: %w", id, err)
		}
		if err := scoped.execAffecting(ctx, "menu", id, `DELETE FROM menus WHERE id = ?`, id); err != nil {
			return wrapUnlessNotFound(err, "delete menu %s", id)
		}
		return nil
	})
}

func (r *Repository) ListSections(ctx context.Context) ([]core.Section, error) {
	rows, err := r.query(ctx, `SELECT id, label, user_id FROM sections ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var out []core.Section
	for rows.Next() {
		var s core.Section
		if err := rows.Scan(&s.ID, &s.Label, &s.UserID); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) CreateSection(ctx context.Context, s core.Section) (core.Section, error) {
	if err := s.Validate(); err != nil {
		return core.Section{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, err := r.exec(ctx, `INSERT INTO sections (id, label, user_id) VALUES (?, ?, ?)`, s.ID, s.Label, s.UserID); err != nil {
		return core.Section{}, fmt.Errorf("create section: %w", err)
	}
	return s, nil
}

func (r *Repository) UpdateSection(ctx context.Context, s core.Section) (core.Section, error) {
	if err := s.Validate(); err != nil {
		return core.Section{}, err
	}
	if err := r.execAffecting(ctx, "section", s.ID, `UPDATE sections SET label = ? WHERE id = ?`, s.Label, s.ID); err != nil {
		return core.Section{}, wrapUnlessNotFound(err, "update section %s", s.ID)
	}
	return s, nil
}

func (r *Repository) DeleteSection(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx Store) error {
		scoped := tx.(*Repository)
		if _, err := scoped.exec(ctx, `UPDATE menus SET section_id = '' WHERE section_id = ?`, id); err != nil {
			return fmt.Errorf("detach menus from section %s: %w", id, err)
		}
		if err := scoped.execAffecting(ctx, "section", id, `DELETE FROM sections WHERE id = ?`, id); err != nil {
			return wrapUnlessNotFound(err, "delete section %s", id)
		}
		return nil
	})
}

func (r *Repository) ListDivisionSettings(ctx context.Context) ([]core.DivisionSetting, error) {
	rows, err := r.query(ctx, `SELECT id, name, nominal_cents, display_order, created_at FROM division_settings ORDER BY display_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list division settings: %w", err)
	}
	defer rows.Close()

	var out []core.DivisionSetting
	for rows.Next() {
		var (
			d         core.DivisionSetting
			createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Nominal.Cents, &d.DisplayOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("scan division setting: %w", err)
		}
		d.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) CreateDivisionSetting(ctx context.Context, d core.DivisionSetting) (core.DivisionSetting, error) {
	if err := d.Validate(); err != nil {
		return core.DivisionSetting{}, err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now().UTC()
	}
	_, err := r.exec(ctx, `INSERT INTO division_settings (id, name, nominal_cents, display_order, created_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Nominal.Cents, d.DisplayOrder, d.CreatedAt.UnixNano())
	if err != nil {
		return core.DivisionSetting{}, fmt.Errorf("create division setting: %w", err)
	}
	return d, nil
}

func (r *Repository) UpdateDivisionSetting(ctx context.Context, d core.DivisionSetting) (core.DivisionSetting, error) {
	if err := d.Validate(); err != nil {
		return core.DivisionSetting{}, err
	}
	err := r.execAffecting(ctx, "division setting", d.ID,
		`UPDATE division_settings SET name = ?, nominal_cents = ?, display_order = ? WHERE id = ?`,
		d.Name, d.Nominal.Cents, d.DisplayOrder, d.ID)
	if err != nil {
		return core.DivisionSetting{}, wrapUnlessNotFound(err, "update division setting %s", d.ID)
	}
	return d, nil
}

func (r *Repository) DeleteDivisionSetting(ctx context.Context, id string) error {
	err := r.execAffecting(ctx, "division setting", id, `DELETE FROM division_settings WHERE id = ?`, id)
	return wrapUnlessNotFound(err, "delete division setting %s", id)
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.query(ctx, `SELECT id, username, password_hash, full_name, role, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := scanUser(r.queryRow(ctx,
		`SELECT id, username, password_hash, full_name, role, created_at FROM users WHERE lower(username) = lower(?)`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("user", username)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if _, err := r.GetUserByUsername(ctx, u.Username); err == nil {
		return core.User{}, &core.ValidationError{Field: "username", Message: "username already taken"}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	_, err := r.exec(ctx, `INSERT INTO users (id, username, password_hash, full_name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.FullName, u.Role, u.CreatedAt.UnixNano())
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	err := r.execAffecting(ctx, "user", id, `DELETE FROM users WHERE id = ?`, id)
	return wrapUnlessNotFound(err, "delete user %s", id)
}

func scanUser(s scanner) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &createdAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = time.Unix(0, createdAt).UTC()
	return u, nil
}

func wrapUnlessNotFound(err error, format string, args ...any) error {
	if err == nil || errors.Is(err, core.ErrNotFound) {
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
