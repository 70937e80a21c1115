package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
)

// Route parameters carrying numeric IDs.
const (
	ParamProjectID = "projectId"
	ParamTaskID    = "taskId"
	ParamMemberID  = "memberId"
	ParamCommentID = "commentId"
)

// RequireIDParams parses the named route parameters as positive uint64 IDs
// and stores them in the context under the same names. Membership and
// permission checks happen in the services.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil || id == 0 {
				apierrors.BadRequestWithDetails(c, "Invalid "+name, []apierrors.FieldError{
					{Field: name, Message: "must be a positive integer"},
				})
				c.Abort()
				return
			}
			c.Set(name, id)
		}
		c.Next()
	}
}

// IDParam returns an ID stored by RequireIDParams.
func IDParam(c *gin.Context, name string) uint64 {
	return c.GetUint64(name)
}
