package models

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);not null;index" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

func (Category) TableName() string {
	return "categories"
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);not null;index" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

func (Genre) TableName() string {
	return "genres"
}

// GenreTitle is the explicit join between genres and titles.
// Deleting either side removes the link.
type GenreTitle struct {
	ID      uint   `gorm:"primaryKey"`
	GenreID uint   `gorm:"not null;uniqueIndex:idx_genre_title"`
	TitleID uint   `gorm:"not null;uniqueIndex:idx_genre_title;index"`
	Genre   *Genre `gorm:"foreignKey:GenreID;constraint:OnDelete:CASCADE"`
	Title   *Title `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE"`
}

func (GenreTitle) TableName() string {
	return "genre_titles"
}
