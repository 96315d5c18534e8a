package models

import "time"

type Restaurant struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" bson:"title" gorm:"not null"`
	Description string    `json:"description" bson:"description" gorm:"not null"`
	Address     string    `json:"address" bson:"address" gorm:"not null"`
	CreatorID   string    `json:"creator" bson:"creator" gorm:"column:creator;index;not null;size:36"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// RestaurantWithCreator is a restaurant joined with the user that owns it.
type RestaurantWithCreator struct {
	Restaurant Restaurant
	Creator    User
}
