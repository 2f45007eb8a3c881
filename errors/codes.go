package errors

// Code is a structured error code carried in an S3 API error response.
// Providers do not agree on HTTP status for credential failures (a bad
// signature can answer 400 or 403), so classification matches on the
// code as well as on the status.
type Code string

// Codes that mean the store understood the request and refused the
// credentials.
const (
	// CodeAccessDenied indicates the key pair lacks permission for the
	// operation or bucket.
	CodeAccessDenied Code = "AccessDenied"

	// CodeForbidden indicates the provider refused the request outright.
	CodeForbidden Code = "Forbidden"

	// CodeInvalidAccessKeyID indicates the access key id is not known to
	// the provider.
	CodeInvalidAccessKeyID Code = "InvalidAccessKeyId"

	// CodeSignatureDoesNotMatch indicates the request was signed with the
	// wrong secret access key.
	CodeSignatureDoesNotMatch Code = "SignatureDoesNotMatch"
)

// IsAccessDeniedCode reports whether a provider API code names a
// credential rejection.
func IsAccessDeniedCode(code string) bool {
	switch Code(code) {
	case CodeAccessDenied, CodeForbidden, CodeInvalidAccessKeyID, CodeSignatureDoesNotMatch:
		return true
	}
	return false
}
