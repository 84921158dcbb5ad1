package response

import "github.com/pty0735/routinely/internal"

// APIResponse is the envelope every endpoint answers with. Error carries a
// short human-readable message only; causes stay in the logs.
type APIResponse struct {
	Data  interface{}        `json:"data,omitempty"`
	Meta  map[string]any     `json:"meta,omitempty"`
	Error *internal.AppError `json:"error,omitempty"`
}

func Success(data interface{}, meta map[string]any) APIResponse {
	return APIResponse{Data: data, Meta: meta, Error: nil}
}

// FromError builds the error envelope without leaking wrapped causes.
func FromError(err error) APIResponse {
	if appErr, ok := internal.AsAppError(err); ok {
		return APIResponse{Error: internal.NewAppError(appErr.Status, appErr.Message)}
	}
	return APIResponse{Error: internal.NewAppError(500, "internal server error")}
}
