package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DesignationAdmin = "admin"

type Admin struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name             string             `bson:"name" json:"name"`
	Email            string             `bson:"email" json:"email"`
	Mobile           string             `bson:"mobile" json:"mobile"`
	Password         string             `bson:"password" json:"-"`
	Designation      string             `bson:"designation" json:"designation"`
	IsImageSubmitted bool               `bson:"isImageSubmitted" json:"isImageSubmitted"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

type Blog struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`
	Images  []string           `bson:"images" json:"images"`
}
