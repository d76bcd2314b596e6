package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/middleware"
	"github.com/hanbit-edu/workflow-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.ActorClaims {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.ActorClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the workflow actor of the request; requests that
// pass the JWT middleware always carry one.
func actorFromContext(c *gin.Context) models.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}
	}
	return claims.Actor()
}
