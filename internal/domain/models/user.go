package models

import "github.com/shopspring/decimal"

const RoleAdmin = "admin"

type User struct {
	ID       string          `json:"id"`
	FullName string          `json:"fullName"`
	Email    string          `json:"email"`
	Balance  decimal.Decimal `json:"balance"`
	Role     string          `json:"role"`
	Active   bool            `json:"active"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
