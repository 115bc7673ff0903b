package domain

import (
	"strings"
	"time"
)

// Category groups catalog products. Products carry the category name.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MaxCategoryNameLen bounds category names to what product filters accept.
const MaxCategoryNameLen = 100

// Normalize trims the name and description.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
}

// ValidationErrors returns field errors keyed by JSON field name.
func (c *Category) ValidationErrors() map[string]string {
	fields := make(map[string]string)
	switch {
	case c.Name == "":
		fields["name"] = "is required"
	case len(c.Name) > MaxCategoryNameLen:
		fields["name"] = "must be at most 100 characters"
	}
	return fields
}
