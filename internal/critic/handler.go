package critic

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the orchestrator over HTTP: free text in, plain text out.
type Handler struct {
	Orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{Orch: orch}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/ask", h.ask)
}

func (h *Handler) ask(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "cannot read request body")
		return
	}
	prompt := string(body)
	if len(prompt) == 0 {
		c.String(http.StatusBadRequest, "empty prompt")
		return
	}

	answer, err := h.Orch.Answer(c.Request.Context(), prompt)
	if err != nil {
		log.Printf("[critic] answer failed: %v", err)
		c.String(http.StatusBadGateway, "could not answer: %v", err)
		return
	}

	c.String(http.StatusOK, answer)
}
