package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IndexPage renders the harvest entry form.
func IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}
