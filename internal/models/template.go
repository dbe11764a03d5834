package models

// LeaseTemplate represents a document template with placeholders
// like {{tenant_name}} and {{rent_amount}}
type LeaseTemplate struct {
	BaseModel

	Name     string `json:"name" db:"name"`
	Content  string `json:"content" db:"content"`
	IsActive bool   `json:"isActive" db:"is_active"`
}
