package models

import (
	"time"
)

// Employee represents the employees table in the database. The tag UID
// is the immutable business key used for lookups at tap time.
type Employee struct {
	ID        int64     `json:"id"`
	RfidUID   string    `json:"rfid_uid"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}
