package types

type SuccessEnvelope struct {
	Data   any  `json:"data"`
	Cached bool `json:"cached,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
