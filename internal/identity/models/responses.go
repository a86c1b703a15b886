package models

// APIVersion is the envelope version the identity provider's custom policies
// expect in every response.
const APIVersion = "1.0.0"

// APIResponse is the response envelope consumed by the identity provider's
// custom-policy engine. The engine shows UserMessage verbatim to the end
// user on a non-2xx status.
type APIResponse struct {
	Version     string `json:"version"`
	Status      int    `json:"status"`
	UserMessage string `json:"userMessage"`
}

// NewAPIResponse builds the envelope for a status and message.
func NewAPIResponse(status int, userMessage string) APIResponse {
	return APIResponse{
		Version:     APIVersion,
		Status:      status,
		UserMessage: userMessage,
	}
}

// SocialEmailResponse is the validate-social-email response. The policy step
// branches on the flag instead of the HTTP status, so this endpoint always
// answers 200.
type SocialEmailResponse struct {
	IsSocialEmailValid bool `json:"isSocialEmailValid"`
}
