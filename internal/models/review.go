package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is one author's scored opinion of a title. An author reviews a
// title at most once.
type Review struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	Score    int       `gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_review_author_title"`
	AuthorID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_author_title;index"`

	Title  *Title `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE"`
	Author *User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Review) TableName() string {
	return "reviews"
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
	ReviewID uint      `gorm:"not null;index"`
	AuthorID uuid.UUID `gorm:"type:varchar(36);not null;index"`

	Review *Review `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	Author *User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Comment) TableName() string {
	return "comments"
}
