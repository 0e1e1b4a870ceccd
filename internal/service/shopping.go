package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// ShoppingListFilename is the attachment name used for the export.
const ShoppingListFilename = "shopping_list.txt"

type ShoppingListService struct {
	repo   repository.ShoppingListRepository
	logger *slog.Logger
}

func NewShoppingListService(repo repository.ShoppingListRepository, logger *slog.Logger) *ShoppingListService {
	return &ShoppingListService{repo: repo, logger: logger}
}

// Aggregate returns the summed ingredient list for every recipe in the
// user's shopping list. An empty list yields an empty, non-nil slice.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID int64) ([]model.ShoppingItem, error) {
	items, err := s.repo.ShoppingListTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregating shopping list: %w", err)
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	return items, nil
}

// Export writes the aggregated list to w as plain text.
func (s *ShoppingListService) Export(ctx context.Context, userID int64, w io.Writer) error {
	items, err := s.Aggregate(ctx, userID)
	if err != nil {
		return err
	}

	if err := WriteShoppingList(w, items); err != nil {
		return fmt.Errorf("writing shopping list: %w", err)
	}

	s.logger.Info("shopping list exported",
		slog.Int64("user_id", userID),
		slog.Int("items", len(items)),
	)
	return nil
}

// WriteShoppingList renders one "{name} - {total} ({unit})" line per item.
func WriteShoppingList(w io.Writer, items []model.ShoppingItem) error {
	bw := bufio.NewWriter(w)
	for _, item := range items {
		if _, err := fmt.Fprintf(bw, "%s - %d (%s)\n", item.Name, item.Total, item.MeasurementUnit); err != nil {
			return err
		}
	}
	return bw.Flush()
}
