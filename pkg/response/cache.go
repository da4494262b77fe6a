package response

import (
	"github.com/gin-gonic/gin"
)

const noStore = "no-store, no-cache, must-revalidate"

// SuccessNoCache is Success for reads that must reflect the store as of this
// request: training days, recordings, progress and stats.
func SuccessNoCache(c *gin.Context, status int, data interface{}, message string) {
	c.Header("Cache-Control", noStore)
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	Success(c, status, data, message)
}
