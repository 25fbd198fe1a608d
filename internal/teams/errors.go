package teams

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-success response from the connector or login
// endpoint. The raw response body is preserved so callers can surface
// the remote error verbatim.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("teams: %s (status=%d)", e.Message, e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("teams: %s (status=%d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("teams: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: json.RawMessage(body)}

	// Bot Framework shape: {"error": {"code": ..., "message": ...}}
	var connector struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &connector); err == nil &&
		(connector.Error.Code != "" || connector.Error.Message != "") {
		apiErr.Code = connector.Error.Code
		apiErr.Message = connector.Error.Message
		return apiErr
	}

	// login.microsoftonline.com shape: {"error": "...", "error_description": "..."}
	var login struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &login); err == nil && login.Error != "" {
		apiErr.Code = login.Error
		apiErr.Message = login.ErrorDescription
		return apiErr
	}

	apiErr.Message = string(body)
	return apiErr
}
