package service

import "testing"

func TestTopLevelField(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"RecipeInput.name", "name"},
		{"RecipeInput.ingredients[0].amount", "ingredients"},
		{"RecipeInput.author.username", "author"},
		{"name", "name"},
	}
	for _, tt := range tests {
		if got := topLevelField(tt.namespace); got != tt.want {
			t.Errorf("topLevelField(%q) = %q, want %q", tt.namespace, got, tt.want)
		}
	}
}
