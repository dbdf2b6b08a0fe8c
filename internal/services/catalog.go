package services

import (
	"context"
	"fmt"
	"strings"

	"laporan/internal/amqp"
	"laporan/internal/core"
	"laporan/internal/log"
)

// CreateCategory adds a user menu. Kind defaults to custom.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Label = strings.TrimSpace(c.Label)
	if c.Kind == "" {
		c.Kind = core.Custom
	}
	if c.SectionID != "" {
		if err := s.sectionExists(ctx, c.SectionID); err != nil {
			return core.Category{}, err
		}
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Menu created", log.FieldMenuID, created.ID, "label", created.Label)
	return created, nil
}

// UpdateCategory renames or regroups a menu; system menus keep their kind.
func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	current, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if c.Kind == "" || core.IsSystemCategory(c.ID) {
		c.Kind = current.Kind
	}
	if c.SectionID != "" {
		if err := s.sectionExists(ctx, c.SectionID); err != nil {
			return core.Category{}, err
		}
	}
	c.Label = strings.TrimSpace(c.Label)
	return s.store.UpdateCategory(ctx, c)
}

// DeleteCategory removes a user menu and all of its entries. Each removed
// entry is published as entry.deleted.
func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if core.IsSystemCategory(id) {
		return &core.ValidationError{Field: "id", Message: "system menu " + id + " cannot be deleted"}
	}
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return err
	}
	entries, err := s.store.ListEntries(ctx, id)
	if err != nil {
		return fmt.Errorf("list entries for %s: %w", id, err)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Menu deleted", log.FieldMenuID, id, "entries", len(entries))
	for _, e := range entries {
		s.publish(ctx, amqp.EntryDeleted, e)
	}
	return nil
}

func (s *LedgerService) Sections(ctx context.Context) ([]core.Section, error) {
	return s.store.ListSections(ctx)
}

func (s *LedgerService) CreateSection(ctx context.Context, sec core.Section) (core.Section, error) {
	sec.Label = strings.TrimSpace(sec.Label)
	return s.store.CreateSection(ctx, sec)
}

func (s *LedgerService) UpdateSection(ctx context.Context, sec core.Section) (core.Section, error) {
	sec.Label = strings.TrimSpace(sec.Label)
	return s.store.UpdateSection(ctx, sec)
}

// DeleteSection removes the section; its menus become ungrouped.
func (s *LedgerService) DeleteSection(ctx context.Context, id string) error {
	return s.store.DeleteSection(ctx, id)
}

func (s *LedgerService) sectionExists(ctx context.Context, id string) error {
	sections, err := s.store.ListSections(ctx)
	if err != nil {
		return err
	}
	for _, sec := range sections {
		if sec.ID == id {
			return nil
		}
	}
	return core.NotFound("section", id)
}

func (s *LedgerService) DivisionSettings(ctx context.Context) ([]core.DivisionSetting, error) {
	return s.store.ListDivisionSettings(ctx)
}

func (s *LedgerService) CreateDivisionSetting(ctx context.Context, d core.DivisionSetting) (core.DivisionSetting, error) {
	d.Name = strings.TrimSpace(d.Name)
	return s.store.CreateDivisionSetting(ctx, d)
}

func (s *LedgerService) UpdateDivisionSetting(ctx context.Context, d core.DivisionSetting) (core.DivisionSetting, error) {
	d.Name = strings.TrimSpace(d.Name)
	return s.store.UpdateDivisionSetting(ctx, d)
}

func (s *LedgerService) DeleteDivisionSetting(ctx context.Context, id string) error {
	return s.store.DeleteDivisionSetting(ctx, id)
}
