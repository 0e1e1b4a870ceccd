package model

// Tag labels recipes. Name and Slug are both unique.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Ingredient is immutable reference data loaded by operators.
type Ingredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// ShoppingItem is one line of an aggregated shopping list.
// Items are keyed by (Name, MeasurementUnit), not by ingredient id.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int    `json:"total_amount"`
}
