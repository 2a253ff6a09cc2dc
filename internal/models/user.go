package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a Strive account profile. Credentials are issued elsewhere; the quest
// service only reads the display preferences and progression fields.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Level        int                `bson:"level" json:"level"`
	StrivePoints int                `bson:"strivepoints" json:"strivePoints"`
	UseImperial  bool               `bson:"useImperial" json:"useImperial"` // display only, stored weights stay metric
	IsGuest      bool               `bson:"isGuest" json:"isGuest"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UnitSystem describes the unit preference for generated display text
func (u *User) UnitSystem() string {
	if u.UseImperial {
		return "imperial (lbs)"
	}
	return "metric (kg)"
}

// pointsPerLevel scales the level curve: level n starts at 100*(n-1)^2 points
const pointsPerLevel = 100

// LevelForPoints returns the level reached with the given Strive Points total
func LevelForPoints(points int) int {
	if points <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(points)/pointsPerLevel))) + 1
}
