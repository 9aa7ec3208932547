// Package paramstore retrieves application configuration from SSM Parameter
// Store, either by explicit name list or by hierarchical path prefix.
package paramstore

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

const (
	// AccountDefaultSSMAliasKeyID represents account's default SSM alias used
	// to encrypt/decrypt configuration secrets
	AccountDefaultSSMAliasKeyID = "aws/ssm"

	// PathSeparator separates the levels of a hierarchical parameter name.
	PathSeparator = "/"

	// maxGetParametersBatch is the largest name list a single GetParameters
	// call accepts. Longer lists are split into batches of this size.
	maxGetParametersBatch = 10
)

// Parameters maps parameter keys to values. A value is a string, or a nested
// Parameters level when a by-path query asked for nesting. Callers must not
// mutate a returned mapping.
type Parameters map[string]interface{}

// ParameterStore reads and writes configuration in SSM Parameter Store.
// Secure values are always decrypted by the service before being returned.
type ParameterStore struct {
	svc ssmiface.SSMAPI
}

// New creates a ParameterStore backed by a default-configured SSM client.
func New(numRetries int) (*ParameterStore, error) {
	ssmSession, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}

	svc := ssm.New(ssmSession, aws.NewConfig().WithMaxRetries(numRetries))

	return &ParameterStore{svc: svc}, nil
}

// NewWithClient creates a ParameterStore with a caller-supplied SSM client.
func NewWithClient(svc ssmiface.SSMAPI) *ParameterStore {
	return &ParameterStore{svc: svc}
}

// GetParameters retrieves the named parameters and maps them by their full
// names. Names the service does not know are reflected as absence in the
// result, not as an error. The name list is batched transparently when it
// exceeds the per-call service maximum.
func (s *ParameterStore) GetParameters(names []string) (Parameters, error) {
	params := Parameters{}

	for start := 0; start < len(names); start += maxGetParametersBatch {
		end := start + maxGetParametersBatch
		if end > len(names) {
			end = len(names)
		}

		resp, err := s.svc.GetParameters(&ssm.GetParametersInput{
			Names:          aws.StringSlice(names[start:end]),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, err
		}

		// Names the service rejected are listed in InvalidParameters and
		// simply stay absent from the result.
		for _, param := range resp.Parameters {
			params[aws.StringValue(param.Name)] = aws.StringValue(param.Value)
		}
	}

	return params, nil
}

// GetParametersByPath retrieves every parameter under the given path prefix,
// keyed relative to it. The service paginates this call; all continuation
// tokens are drained before the result is built, so a caller never observes
// a truncated result.
func (s *ParameterStore) GetParametersByPath(path string, opts ...PathOption) (Parameters, error) {
	var query pathQuery
	for _, opt := range opts {
		opt(&query)
	}

	flat := Parameters{}

	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(query.recursive),
		WithDecryption: aws.Bool(true),
	}

	for {
		resp, err := s.svc.GetParametersByPath(input)
		if err != nil {
			return nil, err
		}

		for _, param := range resp.Parameters {
			flat[relativeKey(aws.StringValue(param.Name), path)] = aws.StringValue(param.Value)
		}

		if aws.StringValue(resp.NextToken) == "" {
			break
		}

		input.NextToken = resp.NextToken
	}

	// Required keys are checked against the flat relative key space, before
	// any nesting.
	if query.required != nil {
		if err := assertRequired(query.required, flat, path); err != nil {
			return nil, err
		}
	}

	if query.nested {
		return nest(flat), nil
	}

	return flat, nil
}

// Parameter is a single parameter's decrypted value and type metadata.
type Parameter struct {
	Name   string
	Value  string
	Secure bool
}

// GetParameter returns a single parameter, along with whether it is stored
// as a secure string.
func (s *ParameterStore) GetParameter(name string) (Parameter, error) {
	resp, err := s.svc.GetParameter(&ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == ssm.ErrCodeParameterNotFound {
			return Parameter{}, ErrParameterNotFound
		}

		return Parameter{}, err
	}

	return Parameter{
		Name:   aws.StringValue(resp.Parameter.Name),
		Value:  aws.StringValue(resp.Parameter.Value),
		Secure: aws.StringValue(resp.Parameter.Type) == "SecureString",
	}, nil
}

// GetParameterValue returns the decrypted value of a single parameter.
func (s *ParameterStore) GetParameterValue(name string) (string, error) {
	param, err := s.GetParameter(name)
	if err != nil {
		return "", err
	}

	return param.Value, nil
}

// Put stores a single string value under name. Secure values are encrypted
// with the account's default SSM alias. When overwrite is false and the
// parameter already exists, the service's error is returned unchanged.
func (s *ParameterStore) Put(name, value string, secure, overwrite bool) error {
	putParameterInput := &ssm.PutParameterInput{
		Name:      aws.String(name),
		Type:      aws.String("String"),
		Value:     aws.String(value),
		Overwrite: aws.Bool(overwrite),
	}

	if secure {
		putParameterInput.Type = aws.String("SecureString")
		putParameterInput.KeyId = aws.String(KMSKey())
	}

	// This API call returns an empty struct
	_, err := s.svc.PutParameter(putParameterInput)

	return err
}

// KMSKey returns the alias of the key used to encrypt secure values.
func KMSKey() string {
	return "alias/" + AccountDefaultSSMAliasKeyID
}

// relativeKey strips the queried path prefix, and any separator left at the
// front, from a full parameter name.
func relativeKey(name, path string) string {
	key := strings.TrimPrefix(name, path)

	return strings.TrimPrefix(key, PathSeparator)
}

// nest splits every flat key on the path separator and materializes one
// mapping level per segment, reusing a level when a sibling key already
// created it. The service never returns a key that is also another key's
// prefix; should such a collision occur anyway, the surviving entry follows
// map iteration order.
func nest(flat Parameters) Parameters {
	nested := Parameters{}

	for key, value := range flat {
		segments := strings.Split(key, PathSeparator)

		level := nested
		for _, segment := range segments[:len(segments)-1] {
			next, ok := level[segment].(Parameters)
			if !ok {
				next = Parameters{}
				level[segment] = next
			}

			level = next
		}

		level[segments[len(segments)-1]] = value
	}

	return nested
}
