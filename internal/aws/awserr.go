// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrorContext carries input context for improving API error messages.
type ErrorContext struct {
	Service   string // e.g., "ec2", "rds", "s3"
	Region    string
	Operation string // e.g., "describe instances", "copy snapshot"
	Resource  string // e.g., an instance ID or snapshot ARN
}

// FriendlyAWS wraps an AWS SDK error with a contextual, user-friendly
// message while preserving the original error for further inspection via
// errors.Is/As. Well-known API error codes map to actionable text; anything
// else is wrapped with the operation context.
func FriendlyAWS(err error, ctx ErrorContext) error {
	if err == nil {
		return nil
	}

	region := nonEmpty(ctx.Region, "<default>")
	op := nonEmpty(ctx.Operation, "request")

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "UnauthorizedOperation", "AccessDenied", "AccessDeniedException":
			return fmt.Errorf("%s in %s: not authorized (403). Check the IAM policy grants the %s actions this command needs: %w",
				op, region, nonEmpty(ctx.Service, "service"), err)

		case "AuthFailure", "InvalidClientTokenId", "UnrecognizedClientException":
			return fmt.Errorf("%s in %s: authentication failed. Check AWS_PROFILE or the credential chain: %w",
				op, region, err)

		case "ExpiredToken", "ExpiredTokenException", "RequestExpired":
			return fmt.Errorf("%s in %s: session credentials expired. Refresh the session and retry: %w",
				op, region, err)

		case "RequestLimitExceeded", "Throttling", "ThrottlingException":
			return fmt.Errorf("%s in %s: throttled by the API: %w", op, region, err)

		case "InvalidInstanceID.NotFound", "InvalidInstanceID.Malformed":
			return fmt.Errorf("%s in %s: instance %s no longer exists or is malformed: %w",
				op, region, nonEmpty(ctx.Resource, "<unknown>"), err)

		case "DBSnapshotNotFound", "DBSnapshotNotFoundFault":
			return fmt.Errorf("%s in %s: snapshot %s not found: %w",
				op, region, nonEmpty(ctx.Resource, "<unknown>"), err)

		case "DBSnapshotAlreadyExists", "DBSnapshotAlreadyExistsFault":
			return fmt.Errorf("%s in %s: target snapshot %s already exists: %w",
				op, region, nonEmpty(ctx.Resource, "<unknown>"), err)

		case "KMSKeyNotAccessibleFault":
			return fmt.Errorf("%s in %s: KMS key not accessible. Check the key policy in the destination region: %w",
				op, region, err)
		}
	}

	// Unknown error: provide generic context and wrap.
	if ctx.Resource != "" {
		return fmt.Errorf("%s in %s for %s: %w", op, region, ctx.Resource, err)
	}
	return fmt.Errorf("%s in %s: %w", op, region, err)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
