package domain

type Customer struct {
	ID       int32  `json:"id"`
	TenantID int32  `json:"tenant_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}
