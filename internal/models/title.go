package models

type Title struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"type:varchar(256);not null;index"`
	Year        int       `gorm:"not null;index"`
	Description string    `gorm:"type:text"`
	CategoryID  *uint     `gorm:"index"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`

	// Genres is loaded through genre_titles by the repository.
	Genres []Genre `gorm:"-"`
	// Rating is the mean review score, nil when the title has no reviews.
	Rating *float64 `gorm:"-"`
}

func (Title) TableName() string {
	return "titles"
}
