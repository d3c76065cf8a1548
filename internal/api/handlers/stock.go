package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wonny/stockmarket/internal/api/response"
	"github.com/wonny/stockmarket/internal/domain/stock"
)

// StockService is the catalogue surface the handler drives
type StockService interface {
	GetStocks(ctx context.Context, filter string) ([]stock.Stock, error)
	GetStock(ctx context.Context, code string) (*stock.Stock, error)
	AddStock(ctx context.Context, s stock.Stock) error
	UpdateStock(ctx context.Context, s stock.Stock) error
	DeleteStock(ctx context.Context, code string) error
	PatchStock(ctx context.Context, code string, changes []stock.FieldChange) (*stock.Stock, error)
	PatchPrice(ctx context.Context, update stock.PriceUpdate) (*stock.Stock, error)
}

// StockHandler handles stock-related HTTP requests
type StockHandler struct {
	service StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service StockService) *StockHandler {
	return &StockHandler{service: service}
}

// List handles GET /api/stock?filter=
func (h *StockHandler) List(c *gin.Context) {
	stocks, err := h.service.GetStocks(c.Request.Context(), c.Query("filter"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if len(stocks) == 0 {
		response.NotFound(c, "No stocks found")
		return
	}

	response.SuccessList(c, stocks, len(stocks))
}

// Get handles GET /api/stock/:code
func (h *StockHandler) Get(c *gin.Context) {
	s, err := h.service.GetStock(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, s)
}

// Create handles POST /api/stock
func (h *StockHandler) Create(c *gin.Context) {
	var s stock.Stock
	if err := c.ShouldBindJSON(&s); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.ErrCodeInvalidParameter, "Invalid request body", err.Error())
		return
	}

	if err := h.service.AddStock(c.Request.Context(), s); err != nil {
		h.fail(c, err)
		return
	}

	response.Created(c, s, "Stock created")
}

// Update handles PUT /api/stock
func (h *StockHandler) Update(c *gin.Context) {
	var s stock.Stock
	if err := c.ShouldBindJSON(&s); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.ErrCodeInvalidParameter, "Invalid request body", err.Error())
		return
	}

	if err := h.service.UpdateStock(c.Request.Context(), s); err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, s, "Stock updated")
}

// Delete handles DELETE /api/stock/:code
func (h *StockHandler) Delete(c *gin.Context) {
	code := c.Param("code")
	if err := h.service.DeleteStock(c.Request.Context(), code); err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, gin.H{"code": code}, "Stock deleted")
}

// Patch handles PATCH /api/stock/:code with a JSON patch array
// e.g. [{"op": "replace", "path": "/favorite", "value": true}]
func (h *StockHandler) Patch(c *gin.Context) {
	var changes []stock.FieldChange

	// Numbers stay json.Number so prices keep their exact decimal text
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&changes); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.ErrCodeInvalidParameter, "Invalid patch document", err.Error())
		return
	}

	s, err := h.service.PatchStock(c.Request.Context(), c.Param("code"), changes)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, s, "Stock patched")
}

// PatchPrice handles PATCH /api/stock with {"code": "...", "price": ...}
func (h *StockHandler) PatchPrice(c *gin.Context) {
	var update stock.PriceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.ErrCodeInvalidParameter, "Invalid request body", err.Error())
		return
	}

	s, err := h.service.PatchPrice(c.Request.Context(), update)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithMessage(c, s, "Stock price updated")
}

// fail maps service errors to HTTP responses
func (h *StockHandler) fail(c *gin.Context, err error) {
	var verr *stock.ValidationError

	switch {
	case errors.As(err, &verr):
		fields := make([]response.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, response.FieldError{Field: f.Field, Message: f.Message})
		}
		response.ValidationError(c, "Stock validation failed", fields)
	case errors.Is(err, stock.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid patch document", err.Error())
	case errors.Is(err, stock.ErrStockNotFound):
		response.NotFound(c, "Stock not found")
	case errors.Is(err, stock.ErrStockExists):
		response.Conflict(c, "Stock already exists")
	default:
		response.DatabaseError(c, err)
	}
}
