package dto

import "study-mitra/internal/domain"

// RelayMessage is one entry of a client-held transcript.
type RelayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRelayRequest is the body of the stateless chat endpoint. The last message is the one answered.
// @Description Request body for the chat relay
type ChatRelayRequest struct {
	Messages []RelayMessage `json:"messages"`
}

// ChatRelayResponse carries the assistant reply.
type ChatRelayResponse struct {
	Response string `json:"response"`
}

// ErrorMessageResponse is the error shape of the stateless endpoints.
type ErrorMessageResponse struct {
	Error string `json:"error"`
}

// SendMessageRequest appends a user message to the stored transcript.
// @Description Request body for sending a chat message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,notblank,max=4000"`
}

// ChatMessagesResponse is an ordered transcript.
type ChatMessagesResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}
