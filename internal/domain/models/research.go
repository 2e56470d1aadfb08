package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResearchPaper is an archived research output record managed by admins.
type ResearchPaper struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PaperID      string               `bson:"paper_id" json:"paper_id"`
	GroupName    string               `bson:"group_name" json:"group_name"`
	Topic        string               `bson:"topic" json:"topic"`
	Description  string               `bson:"description" json:"description"`
	Abstract     string               `bson:"abstract,omitempty" json:"abstract,omitempty"`
	Faculty      string               `bson:"faculty" json:"faculty"`
	Year         int                  `bson:"year" json:"year"`
	Rank         int                  `bson:"rank" json:"rank"`
	Members      int                  `bson:"members" json:"members"`
	Leader       string               `bson:"leader" json:"leader"`
	PaperPath    string               `bson:"paper_path,omitempty" json:"paper_path,omitempty"`
	ProfessorIDs []primitive.ObjectID `bson:"professor_ids" json:"professor_ids"`
}
