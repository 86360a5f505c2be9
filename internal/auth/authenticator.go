package auth

import "crypto/subtle"

// HeaderDeviceKey 设备请求携带共享密钥的 header
const HeaderDeviceKey = "x-smartcane-key"

// Authenticator 设备共享密钥校验
type Authenticator struct {
	secret string
}

// NewAuthenticator 创建校验器；secret 为空时拒绝所有请求
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Configured 是否已配置共享密钥
func (a *Authenticator) Configured() bool {
	return a.secret != ""
}

// Authorize reports whether credential exactly matches the configured secret.
// An unset secret never authorizes, not even an empty credential.
func (a *Authenticator) Authorize(credential string) bool {
	if a.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), []byte(a.secret)) == 1
}
