// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           string
	Login        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
