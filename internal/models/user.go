package models

// User represents a registered customer account.
type User struct {
	BaseModel
	Name         string  `json:"name"`
	Email        string  `gorm:"uniqueIndex" json:"email"`
	PasswordHash string  `json:"-"`
	IsAdmin      bool    `json:"is_admin"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address"`
	Avatar       string  `json:"avatar"`
	Orders       []Order `json:"orders,omitempty"`
}
