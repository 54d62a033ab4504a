package models

import "time"

// Technician represents a maintenance technician. The aggregate fields are
// editable metadata; the dashboard recomputes its own figures from work orders.
type Technician struct {
	ID                int64     `bson:"_id" json:"id"`
	Name              string    `bson:"name" json:"name"`
	Email             string    `bson:"email" json:"email,omitempty"`
	Phone             string    `bson:"phone" json:"phone,omitempty"`
	Specialty         string    `bson:"specialty" json:"specialty,omitempty"`
	Skills            string    `bson:"skills" json:"skills,omitempty"`
	Availability      string    `bson:"availability" json:"availability,omitempty"`
	Certifications    string    `bson:"certifications" json:"certifications,omitempty"`
	TasksCompleted    *int      `bson:"tasks_completed,omitempty" json:"tasks_completed,omitempty"`
	AvgCompletionTime *float64  `bson:"avg_completion_time,omitempty" json:"avg_completion_time,omitempty"`
	QualityRating     *float64  `bson:"quality_rating,omitempty" json:"quality_rating,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}
