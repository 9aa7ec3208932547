package paramstore

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

// defaultPageSize mirrors the service's maximum page size for by-path calls.
const defaultPageSize = 10

// MemoryClient is an in-memory stand-in for the SSM API. It honors the
// service's batch and page limits, including real NextToken pagination, so
// code exercised against it sees the same shape of responses the real
// service produces. It backs the 'memory' CLI backend and test setups.
type MemoryClient struct {
	ssmiface.SSMAPI

	m map[string]memoryParameter

	mu sync.RWMutex
}

type memoryParameter struct {
	value  string
	secure bool
}

// NewMemoryClient creates an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		m: make(map[string]memoryParameter),
	}
}

// NewMemoryClientFromMap creates a MemoryClient pre-populated with the given
// name to value mapping. Names are normalized to absolute paths.
func NewMemoryClientFromMap(m map[string]string) *MemoryClient {
	params := map[string]memoryParameter{}

	for k, v := range m {
		params[path.Join("/", k)] = memoryParameter{value: v}
	}

	return &MemoryClient{m: params}
}

func (c *MemoryClient) GetParameter(input *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := aws.StringValue(input.Name)

	param, ok := c.m[name]
	if !ok {
		return nil, awserr.New(ssm.ErrCodeParameterNotFound, fmt.Sprintf("parameter %s not found", name), nil)
	}

	return &ssm.GetParameterOutput{
		Parameter: c.toParameter(name, param),
	}, nil
}

func (c *MemoryClient) GetParameters(input *ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
	if len(input.Names) > maxGetParametersBatch {
		return nil, awserr.New("ValidationException",
			fmt.Sprintf("value at 'names' has %d members, maximum is %d", len(input.Names), maxGetParametersBatch), nil)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := &ssm.GetParametersOutput{}

	for _, name := range aws.StringValueSlice(input.Names) {
		if param, ok := c.m[name]; ok {
			out.Parameters = append(out.Parameters, c.toParameter(name, param))
		} else {
			out.InvalidParameters = append(out.InvalidParameters, aws.String(name))
		}
	}

	return out, nil
}

//nolint:funlen
func (c *MemoryClient) GetParametersByPath(input *ssm.GetParametersByPathInput) (*ssm.GetParametersByPathOutput, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prefix := aws.StringValue(input.Path)
	if !strings.HasSuffix(prefix, PathSeparator) {
		prefix += PathSeparator
	}

	// sorted map range, for deterministic pages
	matched := []string{}

	for _, k := range c.sortedNames() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}

		if !aws.BoolValue(input.Recursive) && strings.Contains(strings.TrimPrefix(k, prefix), PathSeparator) {
			continue
		}

		matched = append(matched, k)
	}

	pageSize := int(aws.Int64Value(input.MaxResults))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	start := 0

	if token := aws.StringValue(input.NextToken); token != "" {
		var err error

		start, err = strconv.Atoi(token)
		if err != nil || start < 0 || start > len(matched) {
			return nil, awserr.New("InvalidNextToken", "the specified token is not valid", err)
		}
	}

	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	out := &ssm.GetParametersByPathOutput{}

	for _, k := range matched[start:end] {
		out.Parameters = append(out.Parameters, c.toParameter(k, c.m[k]))
	}

	if end < len(matched) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}

	return out, nil
}

func (c *MemoryClient) PutParameter(input *ssm.PutParameterInput) (*ssm.PutParameterOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := aws.StringValue(input.Name)

	if _, ok := c.m[name]; ok && !aws.BoolValue(input.Overwrite) {
		return nil, awserr.New(ssm.ErrCodeParameterAlreadyExists,
			fmt.Sprintf("parameter %s already exists", name), nil)
	}

	c.m[name] = memoryParameter{
		value:  aws.StringValue(input.Value),
		secure: aws.StringValue(input.Type) == "SecureString",
	}

	return &ssm.PutParameterOutput{}, nil
}

func (c *MemoryClient) toParameter(name string, param memoryParameter) *ssm.Parameter {
	parameterType := "String"
	if param.secure {
		parameterType = "SecureString"
	}

	return &ssm.Parameter{
		Name:  aws.String(name),
		Value: aws.String(param.value),
		Type:  aws.String(parameterType),
	}
}

func (c *MemoryClient) sortedNames() []string {
	names := make([]string, 0, len(c.m))
	for k := range c.m {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// Check the interfaces are satisfied
var (
	_ ssmiface.SSMAPI = &MemoryClient{}
)
