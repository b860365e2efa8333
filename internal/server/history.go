package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entity"
	"github.com/joseph-ayodele/entity-extractor/internal/repository"
)

const maxFeedbackLength = 2000

type feedbackRequest struct {
	Message string `json:"message"`
	Rating  *int   `json:"rating"`
}

// pageParams reads page and page_size. Missing values default to 1 and
// defaultPageSize; non-numeric values fail validation.
func pageParams(c *gin.Context) (int, int, error) {
	v := common.NewValidator()
	page, ok := queryInt(c, "page", 1)
	if !ok {
		v.Field("page", c.Query("page"), notInteger)
	}
	size, ok := queryInt(c, "page_size", defaultPageSize)
	if !ok {
		v.Field("page_size", c.Query("page_size"), notInteger)
	}
	v.Field("page", page, common.IntRange(1, 1<<31-1))
	v.Field("page_size", size, common.IntRange(1, 100))
	return page, size, v.Error()
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, false
	}
	return n, true
}

func notInteger(fieldName string, value interface{}) *common.ValidationError {
	return &common.ValidationError{Field: fieldName, Value: value, Message: "must be an integer"}
}

// History lists extraction logs newest first.
func (s *Server) History(c *gin.Context) {
	if s.logs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is not available"})
		return
	}
	page, size, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, total, err := s.logs.List(c.Request.Context(), page, size)
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []*entity.ExtractionLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

func (s *Server) SubmitFeedback(c *gin.Context) {
	if s.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback is not available"})
		return
	}
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	v := common.NewValidator().
		Field("message", req.Message, common.Required, common.MaxLength(maxFeedbackLength)).
		Field("rating", req.Rating, common.IntRange(1, 5))
	if err := v.Error(); err != nil {
		s.fail(c, err)
		return
	}

	fb, err := s.feedback.Create(c.Request.Context(), &entity.Feedback{Message: req.Message, Rating: req.Rating})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (s *Server) ListFeedback(c *gin.Context) {
	if s.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback is not available"})
		return
	}
	page, size, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	params := repository.ListFeedbackParams{
		Page:     page,
		PageSize: size,
		SortBy:   c.Query("sort_by"),
		Order:    c.Query("order"),
	}
	items, total, err := s.feedback.List(c.Request.Context(), params)
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []*entity.Feedback{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}
