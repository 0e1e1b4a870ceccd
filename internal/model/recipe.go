package model

import "time"

// Recipe is the bare recipe row. Tags and ingredients live in join tables
// and are only ever read back through RecipeView.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Text        string
	CookingTime int
	Image       string
	CreatedAt   time.Time
}

// IngredientAmount is one entry of a recipe payload: which ingredient and
// how much of it.
type IngredientAmount struct {
	IngredientID int64 `json:"id"`
	Amount       int   `json:"amount"`
}

// RecipeIngredient is an ingredient resolved for display inside a recipe.
type RecipeIngredient struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the fully materialized recipe returned to clients.
// IsFavorited and IsInShoppingCart are relative to the requesting viewer.
type RecipeView struct {
	ID               int64              `json:"id"`
	Author           UserView           `json:"author"`
	Name             string             `json:"name"`
	Text             string             `json:"text"`
	Image            string             `json:"image"`
	CookingTime      int                `json:"cooking_time"`
	Tags             []Tag              `json:"tags"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
}

// RecipeBrief is the short form used in relation responses and
// subscription previews.
type RecipeBrief struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}
