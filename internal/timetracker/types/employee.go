package types

import "time"

type Employee struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	Active     bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
