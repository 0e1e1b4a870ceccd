package model

// RelationKind names one of the binary user relations. All three share the
// same storage shape: (user_id, object_id) with a unique constraint.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"      // user -> recipe
	RelationShoppingCart RelationKind = "shopping_cart" // user -> recipe
	RelationFollow       RelationKind = "follow"        // user -> author
)
