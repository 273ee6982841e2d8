package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type mealRepository struct {
	db DB
}

func NewMealRepository(db DB) interfaces.MealRepository {
	return &mealRepository{db: db}
}

func (r *mealRepository) FindByIDs(ctx context.Context, restaurantID string, ids []uuid.UUID) ([]*domain.Meal, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id::text, restaurant_id, name, price::text, available
		FROM meals
		WHERE restaurant_id = $1 AND id = ANY($2::uuid[])
	`

	rawIDs := lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() })

	rows, err := r.db.Query(ctx, query, restaurantID, rawIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load meals: %w", err)
	}
	defer rows.Close()

	var meals []*domain.Meal
	for rows.Next() {
		var meal domain.Meal
		var rawID, price string
		if err := rows.Scan(&rawID, &meal.RestaurantID, &meal.Name, &price, &meal.Available); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		if meal.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("failed to parse meal id: %w", err)
		}
		if meal.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse meal price: %w", err)
		}
		meals = append(meals, &meal)
	}

	return meals, nil
}
