// Package secrets fetches operator credentials from SSM Parameter Store.
//
// The super-admin token can be passed directly via flag/env or, preferred in
// deployment, stored as a SecureString parameter and resolved once at boot.
package secrets

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/keithlinneman/sitegate/internal/xerrors"
)

// ssmAPI is the subset of the SSM client used here, for test fakes.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// FetchParameter reads a single SSM parameter with decryption and returns
// its trimmed value. An empty parameter is an error: a blank super-admin
// token would disable operator auth silently.
func FetchParameter(ctx context.Context, client ssmAPI, name string) (string, error) {
	if name == "" {
		return "", xerrors.New("parameter name is required")
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", xerrors.Wrapf(err, "get SSM parameter %s", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", xerrors.Newf("SSM parameter %s has no value", name)
	}

	value := strings.TrimSpace(*out.Parameter.Value)
	if value == "" {
		return "", xerrors.Newf("SSM parameter %s is empty", name)
	}

	return value, nil
}
