package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/workflow-api/internal/models"
	"github.com/hanbit-edu/workflow-api/internal/repository"
)

// Audit creates a middleware that records audit logs after successful
// mutations. The resource id is read from the route's :id parameter when
// present.
func Audit(repo *repository.AuditRepository, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var actorID *string
		actorRole := string(models.RoleSystem)
		if claims, ok := c.Get(ContextActorKey); ok {
			actor := claims.(*models.ActorClaims)
			actorID = &actor.UserID
			actorRole = string(actor.Role)
		}

		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		_ = repo.Create(c.Request.Context(), &models.AuditLog{
			ActorID:    actorID,
			ActorRole:  actorRole,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Payload:    body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		})
	}
}
