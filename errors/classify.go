package errors

import (
	"errors"
	"net"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

// Operator-facing messages for classified failure classes. The provider's
// own message is dropped for these classes; generic failures pass through
// verbatim.
const (
	// TransportMessage is recorded when the store could not be reached at all.
	TransportMessage = "network error: unable to reach the object store; " +
		"check the endpoint URL and the bucket's CORS configuration"

	// AccessDeniedMessage is recorded when the store answered with HTTP 403.
	AccessDeniedMessage = "access denied: verify the access key, secret access key, " +
		"and bucket permissions"
)

// classified pairs an operator-facing message with the taxonomy sentinel
// it belongs to.
type classified struct {
	msg  string
	kind error
}

func (c *classified) Error() string { return c.msg }

func (c *classified) Unwrap() error { return c.kind }

// Classify maps a transfer failure onto the error taxonomy. Authorization
// failures (HTTP 403 or the provider's access-denied codes) and transport
// failures get a fixed remediation message and match ErrAccessDenied or
// ErrTransport respectively; every other error is returned unchanged so the
// provider's message surfaces verbatim.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isForbidden(err):
		return &classified{msg: AccessDeniedMessage, kind: ErrAccessDenied}
	case isTransport(err):
		return &classified{msg: TransportMessage, kind: ErrTransport}
	}
	return err
}

// isForbidden reports whether the store answered at all and rejected the
// request as unauthorized.
func isForbidden(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusForbidden {
		return true
	}

	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && IsAccessDeniedCode(apiErr.ErrorCode())
}

// isTransport reports whether the request never produced a response:
// DNS failures, refused or reset connections, TLS and timeout errors.
func isTransport(err error) bool {
	// Any response from the provider, however broken, is not a
	// connectivity failure.
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
