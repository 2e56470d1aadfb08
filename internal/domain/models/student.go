package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is the academic profile of a user with role "student".
type Student struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	StudentID       string             `bson:"student_id" json:"student_id"`
	GPA             float64            `bson:"gpa" json:"gpa"`
	Major           string             `bson:"major" json:"major"`
	Faculty         string             `bson:"faculty" json:"faculty"`
	Year            string             `bson:"year" json:"year"`
	Skills          []string           `bson:"skills" json:"skills"`
	Bio             string             `bson:"bio,omitempty" json:"bio,omitempty"`
	LookingForGroup bool               `bson:"looking_for_group" json:"looking_for_group"`
}

// StudentWithUser is a Student joined with the owning user's name and email.
type StudentWithUser struct {
	Student `bson:",inline"`
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
}
