package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/leon-morival/cynaMobile/internal/assistant"
)

// AssistantService forwards user messages to the AI bridge.
type AssistantService interface {
	Send(ctx context.Context, text string) (*assistant.Reply, error)
}

type AssistantHandler struct {
	assistants AssistantService
	timeout    time.Duration
}

func NewAssistantHandler(assistants AssistantService, timeout time.Duration) *AssistantHandler {
	return &AssistantHandler{assistants: assistants, timeout: timeout}
}

type AssistantMessageRequestDTO struct {
	Text string `json:"text"`
}

type AssistantProductRefDTO struct {
	ProductID int64  `json:"product_id"`
	Label     string `json:"label"`
}

type AssistantReplyDTO struct {
	Text     string                   `json:"text"`
	Products []AssistantProductRefDTO `json:"products,omitempty"`
}

func (h *AssistantHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AssistantMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text must not be empty")
		return
	}

	reply, err := h.assistants.Send(ctx, req.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	out := AssistantReplyDTO{Text: reply.Text}
	for _, ref := range reply.Refs {
		out.Products = append(out.Products, AssistantProductRefDTO{
			ProductID: ref.ProductID,
			Label:     ref.Label,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
