package model

// Page is one page of a paginated list. Count is the total across all
// pages, not len(Results).
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}
