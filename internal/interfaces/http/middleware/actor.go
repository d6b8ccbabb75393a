package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActorIDKey is the context key the actor middleware stores the
// acting user's ID under
const ActorIDKey = "actor_id"

// ErrNoActor is returned when a request carries no actor identity
var ErrNoActor = errors.New("actor ID not found in request")

// ActorID extracts the acting user's ID from the X-Actor-ID header
// and stores it in the request context. Requests without the header
// pass through; handlers that need an actor reject them.
func ActorID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-Actor-ID"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Set(ActorIDKey, id)
			}
		}
		c.Next()
	}
}

// GetActorID returns the acting user's ID stored by the ActorID
// middleware
func GetActorID(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(ActorIDKey)
	if !ok {
		return uuid.Nil, ErrNoActor
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoActor
	}
	return id, nil
}
