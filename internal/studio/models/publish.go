package models

import "github.com/google/uuid"

// Credentials identify the caller to the external services.
type Credentials struct {
	UserID string
	Token  string
}

type PublishRequest struct {
	ProjectID  uuid.UUID `json:"project_id" validate:"required"`
	PlatformID string    `json:"platform_id" validate:"required"`
	VideoURL   string    `json:"video_url" validate:"required,http_url"`
	Caption    string    `json:"caption,omitempty" validate:"max=2200"`
	Score      *int      `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// PublishReceipt is the publish service's answer to a publish call.
type PublishReceipt struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

type PublishFailureKind string

const (
	FailureValidation PublishFailureKind = "validation"
	FailureNetwork    PublishFailureKind = "network"
	FailureAuth       PublishFailureKind = "auth"
	FailureRejected   PublishFailureKind = "rejected"
	FailureServer     PublishFailureKind = "server"
)

type PublishFailure struct {
	Kind      PublishFailureKind `json:"kind"`
	Message   string             `json:"message"`
	Retryable bool               `json:"retryable"`
}

type PublishResult struct {
	Success  bool            `json:"success"`
	URL      string          `json:"url,omitempty"`
	Platform string          `json:"platform"`
	Failure  *PublishFailure `json:"failure,omitempty"`
	ShareQR  []byte          `json:"share_qr,omitempty"`
}
