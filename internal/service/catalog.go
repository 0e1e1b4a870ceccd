package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

const (
	maxIngredientNameLength = 128
	maxUnitLength           = 64
)

// TagInput is the operator-facing payload for seeding a tag.
type TagInput struct {
	Name string `json:"name" validate:"required,max=32"`
	Slug string `json:"slug" validate:"required,max=32,slug"`
}

// ImportResult summarizes one ingredient import run.
type ImportResult struct {
	Added   int
	Skipped int // already present
	Errors  int // malformed rows
}

// CatalogService serves the tag and ingredient reference data.
type CatalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	logger      *slog.Logger
}

func NewCatalogService(tags repository.TagRepository, ingredients repository.IngredientRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{tags: tags, ingredients: ingredients, logger: logger}
}

func (s *CatalogService) CreateTag(ctx context.Context, in TagInput) (*model.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	tag := &model.Tag{Name: in.Name, Slug: in.Slug}
	if err := s.tags.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	s.logger.Info("tag created", slog.Int64("id", tag.ID), slog.String("slug", tag.Slug))
	return tag, nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	return s.tags.ListTags(ctx)
}

func (s *CatalogService) GetTag(ctx context.Context, id int64) (*model.Tag, error) {
	return s.tags.GetTag(ctx, id)
}

// ListIngredients returns ingredients whose name starts with namePrefix.
func (s *CatalogService) ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	return s.ingredients.ListIngredients(ctx, strings.TrimSpace(namePrefix))
}

func (s *CatalogService) GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error) {
	return s.ingredients.GetIngredient(ctx, id)
}

// DeleteIngredient removes an ingredient no recipe uses. A referenced
// ingredient is kept and reported as a conflict.
func (s *CatalogService) DeleteIngredient(ctx context.Context, id int64) error {
	if err := s.ingredients.DeleteIngredient(ctx, id); err != nil {
		return err
	}
	s.logger.Info("ingredient deleted", slog.Int64("id", id))
	return nil
}

// ImportIngredients reads two-column CSV rows (name, measurement unit) and
// inserts the pairs that are not stored yet. Rows with the wrong column
// count or blank cells are counted as errors and skipped; the import then
// carries on. Only a read failure or a storage error aborts it.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				s.logger.Warn("skipping unparsable row", slog.Int("row", row), slog.String("error", err.Error()))
				res.Errors++
				continue
			}
			return res, fmt.Errorf("reading row %d: %w", row, err)
		}

		if len(record) != 2 {
			s.logger.Warn("skipping row with wrong column count",
				slog.Int("row", row),
				slog.Int("columns", len(record)),
			)
			res.Errors++
			continue
		}

		name, unit := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if name == "" || unit == "" || len(name) > maxIngredientNameLength || len(unit) > maxUnitLength {
			s.logger.Warn("skipping row with invalid cells", slog.Int("row", row))
			res.Errors++
			continue
		}

		created, err := s.ingredients.CreateIngredient(ctx, &model.Ingredient{Name: name, MeasurementUnit: unit})
		if err != nil {
			return res, fmt.Errorf("importing row %d: %w", row, err)
		}
		if created {
			res.Added++
		} else {
			res.Skipped++
		}
	}

	s.logger.Info("ingredients imported",
		slog.Int("added", res.Added),
		slog.Int("skipped", res.Skipped),
		slog.Int("errors", res.Errors),
	)
	return res, nil
}
