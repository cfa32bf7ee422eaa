package response

const (
	AuthLoginSuccess = 1 // Login Success
	AuthLoginFailed  = 2 // Login Failed

	ErrCodeSuccess      = 4001 // Success
	ErrCodeParamInvalid = 4003 // Param invalid
)

// message
var msg = map[int]string{
	// Auth
	AuthLoginSuccess: "login success",
	AuthLoginFailed:  "login failed",

	ErrCodeSuccess:      "success",
	ErrCodeParamInvalid: "param is invalid",
}

// Message resolves a response code to its human-readable text.
func Message(code int) string {
	return msg[code]
}
