package domain

// ID is used across domain entities.
type ID = int64

// Money is an amount in minor currency units. Never negative once it reaches the core.
type Money = int64

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total,omitempty"`
}

// Normalize applies defaults and bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID    ID     `json:"userId"`
	Role      string `json:"role"`
	RequestID string `json:"requestId"`
}

func (r RequestContext) IsAdmin() bool {
	return r.Role == RoleAdmin
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ClampMoney turns negative input into zero.
func ClampMoney(v Money) Money {
	if v < 0 {
		return 0
	}
	return v
}
