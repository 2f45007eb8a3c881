package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// responseError builds the error shape the SDK produces when the store
// answered with the given HTTP status.
func responseError(status int, err error) *awshttp.ResponseError {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{
				Response: &http.Response{StatusCode: status},
			},
			Err: err,
		},
		RequestID: "test-request",
	}
}

// TestClassify tests the mapping of raw failures onto the error taxonomy.
func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantKind    error
		verbatim    bool
	}{
		{
			name:        "http 403 response",
			err:         responseError(http.StatusForbidden, errors.New("Forbidden")),
			wantMessage: AccessDeniedMessage,
			wantKind:    ErrAccessDenied,
		},
		{
			name:        "access denied api code",
			err:         &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
			wantMessage: AccessDeniedMessage,
			wantKind:    ErrAccessDenied,
		},
		{
			name:        "invalid access key api code",
			err:         &smithy.GenericAPIError{Code: "InvalidAccessKeyId", Message: "unknown key"},
			wantMessage: AccessDeniedMessage,
			wantKind:    ErrAccessDenied,
		},
		{
			name:        "signature mismatch wrapped in context",
			err:         fmt.Errorf("upload.putObject media/a.bin: %w", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}),
			wantMessage: AccessDeniedMessage,
			wantKind:    ErrAccessDenied,
		},
		{
			name:        "dns failure",
			err:         &net.DNSError{Err: "no such host", Name: "missing.example.com"},
			wantMessage: TransportMessage,
			wantKind:    ErrTransport,
		},
		{
			name: "connection refused through url error",
			err: &url.Error{
				Op:  "Put",
				URL: "https://account.r2.cloudflarestorage.com/media/a.bin",
				Err: errors.New("connection refused"),
			},
			wantMessage: TransportMessage,
			wantKind:    ErrTransport,
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("upload.putObject: %w", context.DeadlineExceeded),
			wantMessage: TransportMessage,
			wantKind:    ErrTransport,
		},
		{
			name:     "cancellation passes through",
			err:      context.Canceled,
			verbatim: true,
		},
		{
			name:     "unknown api code passes through",
			err:      &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "bucket does not exist"},
			verbatim: true,
		},
		{
			name:     "server error response passes through",
			err:      responseError(http.StatusInternalServerError, errors.New("InternalError")),
			verbatim: true,
		},
		{
			name:     "plain error passes through",
			err:      errors.New("disk quota exceeded"),
			verbatim: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.Error(t, got)

			if tt.verbatim {
				assert.Equal(t, tt.err.Error(), got.Error())
				assert.False(t, IsAccessDenied(got))
				assert.False(t, IsTransport(got))
				return
			}

			assert.Equal(t, tt.wantMessage, got.Error())
			assert.True(t, errors.Is(got, tt.wantKind))
		})
	}
}

// TestClassify_Nil tests that no failure stays no failure.
func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, Classify(nil))
}

// TestIsAccessDeniedCode tests the provider-code vocabulary.
func TestIsAccessDeniedCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{string(CodeAccessDenied), true},
		{string(CodeForbidden), true},
		{string(CodeInvalidAccessKeyID), true},
		{string(CodeSignatureDoesNotMatch), true},
		{"NoSuchBucket", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAccessDeniedCode(tt.code))
		})
	}
}

// TestClassify_ResponseBeatsTransport tests that a provider response, even
// a broken one, is never reported as a connectivity problem.
func TestClassify_ResponseBeatsTransport(t *testing.T) {
	err := responseError(http.StatusBadGateway, &net.DNSError{Err: "flaky proxy"})

	got := Classify(err)
	assert.False(t, IsTransport(got))
	assert.Equal(t, err.Error(), got.Error())
}
