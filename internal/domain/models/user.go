// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleAdmin     = "admin"
	RoleStudent   = "student"
	RoleProfessor = "professor"
)

// User is the login identity shared by admins, students, and professors.
//
// NOTE:
//   - Academic details live on the Student / Professor profile documents,
//     linked back to the user by user_id.
//   - HashedPassword is never serialized to JSON.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	EmailCI        string             `bson:"email_ci" json:"-"` // folded for unique lookup
	HashedPassword string             `bson:"hashed_password" json:"-"`
	Name           string             `bson:"name" json:"name"`
	Role           string             `bson:"role" json:"role"` // admin | student | professor

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
