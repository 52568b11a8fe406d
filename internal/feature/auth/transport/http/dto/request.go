// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import openapi_types "github.com/oapi-codegen/runtime/types"

// RegisterReq は/registerエンドポイントのリクエストボディを表します。
// Emailの形式はopenapi_types.EmailのJSONデコード時に検証されます。
type RegisterReq struct {
	FirstName string              `json:"firstName" binding:"required,min=3"`
	LastName  string              `json:"lastName" binding:"omitempty,min=3"`
	Email     openapi_types.Email `json:"email" binding:"required"`
	Password  string              `json:"password" binding:"required,min=6,max=72"`
}

// LoginReq は/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Email    openapi_types.Email `json:"email" binding:"required"`
	Password string              `json:"password" binding:"required,min=6"`
}

// SendOTPReq is the body of POST /send-otp.
type SendOTPReq struct {
	PhoneNo string `json:"phoneNo" binding:"required"`
}

// VerifyOTPReq is the body of POST /verify-otp.
type VerifyOTPReq struct {
	PhoneNo string `json:"phoneNo" binding:"required"`
	OTP     string `json:"otp" binding:"required,len=4,numeric"`
}

// RefreshReq represents the request for token refresh.
type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}
