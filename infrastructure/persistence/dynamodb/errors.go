package dynamodb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"

	"energy-dashboard/application/ports"
)

// credentialErrorCodes are API error codes meaning the caller cannot
// authenticate at all, as opposed to a failing query.
var credentialErrorCodes = map[string]bool{
	"UnrecognizedClientException": true,
	"InvalidClientTokenId":        true,
	"ExpiredTokenException":       true,
	"ExpiredToken":                true,
	"MissingAuthenticationToken":  true,
	"IncompleteSignature":         true,
	"InvalidSignatureException":   true,
	"AccessDeniedException":       true,
}

// credentialMessages match resolver failures raised before any request is
// signed; these carry no API error code.
var credentialMessages = []string{
	"failed to retrieve credentials",
	"failed to refresh cached credentials",
	"get credentials",
	"no EC2 IMDS role found",
	"anonymous credentials",
}

// classifyError maps errors that mean "no usable store" to
// ports.ErrStoreUnavailable. Everything else is returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) && credentialErrorCodes[ae.ErrorCode()] {
		return fmt.Errorf("%w: %s: %s", ports.ErrStoreUnavailable, ae.ErrorCode(), ae.ErrorMessage())
	}

	msg := err.Error()
	for _, m := range credentialMessages {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
		}
	}
	return err
}
