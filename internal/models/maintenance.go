package models

import (
	"github.com/google/uuid"
)

// MaintenanceRequest represents a maintenance ticket filed by or for a tenant
type MaintenanceRequest struct {
	BaseModel

	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`

	Category    string `json:"category" db:"category"`
	Description string `json:"description" db:"description"`

	Status   MaintenanceStatus   `json:"status" db:"status"`
	Priority MaintenancePriority `json:"priority" db:"priority"`

	Images  StringList `json:"images" db:"images"`
	Updates Variables  `json:"updates,omitempty" db:"updates"`

	AssignedTo string `json:"assignedTo,omitempty" db:"assigned_to"`
}

// MaintenanceStatus represents maintenance ticket statuses
type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "Open"
	MaintenanceStatusInProgress MaintenanceStatus = "In Progress"
	MaintenanceStatusResolved   MaintenanceStatus = "Resolved"
	MaintenanceStatusClosed     MaintenanceStatus = "Closed"
)

// MaintenancePriority represents maintenance ticket priorities
type MaintenancePriority string

const (
	MaintenancePriorityLow       MaintenancePriority = "Low"
	MaintenancePriorityMedium    MaintenancePriority = "Medium"
	MaintenancePriorityHigh      MaintenancePriority = "High"
	MaintenancePriorityEmergency MaintenancePriority = "Emergency"
)
