package models

import "time"

// Column is one lane of the board. Its ID is the slug of its title.
type Column struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Position  int       `gorm:"not null;default:0;index:idx_columns_position" json:"position"`
	CreatedAt time.Time `json:"createdAt"`

	// Relations
	Tasks []Task `gorm:"foreignKey:ColumnID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
