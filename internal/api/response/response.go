package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wonny/stockmarket/internal/api/middleware"
)

// SuccessResponse wraps every 2xx body
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// Meta carries request correlation and list size
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Count     *int      `json:"count,omitempty"`
}

// Success sends 200 with data
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, data, "", nil)
}

// SuccessWithMessage sends 200 with data and a human readable message
func SuccessWithMessage(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusOK, data, message, nil)
}

// SuccessList sends 200 with a list and its length
func SuccessList(c *gin.Context, data interface{}, count int) {
	write(c, http.StatusOK, data, "", &count)
}

// Created sends 201 with the created resource
func Created(c *gin.Context, data interface{}, message string) {
	write(c, http.StatusCreated, data, message, nil)
}

func write(c *gin.Context, status int, data interface{}, message string, count *int) {
	c.JSON(status, SuccessResponse{
		Data: data,
		Meta: Meta{
			RequestID: middleware.GetRequestID(c),
			Timestamp: time.Now(),
			Message:   message,
			Count:     count,
		},
	})
}
