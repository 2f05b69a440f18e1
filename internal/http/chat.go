package http

import (
	"errors"
	"net/http"

	"catalog-fulfillment/internal/ai"

	"github.com/gin-gonic/gin"
)

type chatResponse struct {
	Reply string `json:"reply" example:"The Acme headphones are in stock at 19.99."`
}

// Ask godoc
// @Summary      Ask the shopping assistant
// @Tags         chat
// @Produce      json
// @Param        message  query     string  true  "Question about the catalog"
// @Success      200      {object}  chatResponse
// @Failure      400      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /chat/ask [get]
func (h *Handler) Ask(c *gin.Context) {
	reply, err := h.chat.Ask(c.Request.Context(), c.Query("message"))
	if err != nil {
		if errors.Is(err, ai.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: reply})
}
