package models

import (
	"slices"
	"time"
)

// User is a registered account. Restaurants holds the ids of the restaurants
// the user created, in creation order.
type User struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Username    string    `json:"username" bson:"username" gorm:"not null"`
	Email       string    `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-" bson:"password" gorm:"not null"`
	Restaurants []string  `json:"restaurants" bson:"restaurants" gorm:"column:restaurants;type:text;serializer:json;not null"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// AddRestaurant appends id to the back-reference list unless it is already there.
func (u *User) AddRestaurant(id string) {
	if slices.Contains(u.Restaurants, id) {
		return
	}
	u.Restaurants = append(u.Restaurants, id)
}

// RemoveRestaurant drops every occurrence of id and reports whether anything changed.
func (u *User) RemoveRestaurant(id string) bool {
	n := len(u.Restaurants)
	u.Restaurants = slices.DeleteFunc(u.Restaurants, func(r string) bool { return r == id })
	return len(u.Restaurants) != n
}
