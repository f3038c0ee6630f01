package models

// Employee is a CRM user who can hold leads.
type Employee struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	OrganizationID int64  `json:"organization_id"`
	IsActive       bool   `json:"is_active"`
	IsAdminRights  bool   `json:"is_admin_rights"`
	TelegramChatID int64  `json:"-"`
}

// ActingContext is who performs an engine call and in which organization.
type ActingContext struct {
	UserID         int64 `json:"user_id"`
	OrganizationID int64 `json:"organization_id"`
	IsAdmin        bool  `json:"is_admin"`
}
