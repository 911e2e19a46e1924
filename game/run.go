package game

import (
	"time"

	"github.com/google/uuid"
)

// RunRecord is the stored summary of one finished exploration.
type RunRecord struct {
	ID         uuid.UUID `bson:"_id" json:"id"`
	SessionID  uuid.UUID `bson:"sessionId" json:"session_id"`
	Owner      uuid.UUID `bson:"owner" json:"owner"`
	Scene      string    `bson:"scene" json:"scene"`
	Mode       string    `bson:"mode" json:"mode"`
	Carried    int       `bson:"carried" json:"carried"`
	Capacity   int       `bson:"capacity" json:"capacity"`
	Visited    int       `bson:"visited" json:"visited"`
	Reachable  int       `bson:"reachable" json:"reachable"`
	Moves      int       `bson:"moves" json:"moves"`
	Turns      int       `bson:"turns" json:"turns"`
	Complete   bool      `bson:"complete" json:"complete"`
	StartedAt  time.Time `bson:"startedAt" json:"started_at"`
	FinishedAt time.Time `bson:"finishedAt" json:"finished_at"`
}
