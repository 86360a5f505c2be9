package httpapi

// StatusResult 成功响应（与 Worker 返回格式保持一致）
type StatusResult struct {
	Status string `json:"status"`
	Action string `json:"action,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ErrorResult 失败响应；不回显任何密钥
type ErrorResult struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func Ok() StatusResult {
	return StatusResult{Status: "ok"}
}

func Fail(message string) ErrorResult {
	return ErrorResult{Error: message}
}
