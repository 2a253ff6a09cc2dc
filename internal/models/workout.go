package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSet is a single logged set
type WorkoutSet struct {
	Weight float64 `bson:"weight" json:"weight"`
	Reps   int     `bson:"reps" json:"reps"`
}

// WorkoutExercise is one exercise inside a workout session
type WorkoutExercise struct {
	Name        string       `bson:"name" json:"name"`
	MuscleGroup string       `bson:"musclegroup,omitempty" json:"musclegroup,omitempty"`
	Sets        []WorkoutSet `bson:"sets" json:"sets"`
}

// Workout is a titled training session
type Workout struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	Title     string             `bson:"title" json:"title"`
	Duration  int                `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Date      time.Time          `bson:"date" json:"date"`
	Exercises []WorkoutExercise  `bson:"exercises" json:"exercises"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
