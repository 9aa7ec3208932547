package paramstore_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miloshr/psconf/paramstore"
)

// pagedClient serves a fixed page sequence and records every request, so
// tests can assert that continuation tokens were drained in order.
type pagedClient struct {
	ssmiface.SSMAPI

	pages []*ssm.GetParametersByPathOutput
	calls []*ssm.GetParametersByPathInput
}

func (c *pagedClient) GetParametersByPath(input *ssm.GetParametersByPathInput) (*ssm.GetParametersByPathOutput, error) {
	// record a snapshot: the caller may legitimately reuse and mutate input
	// between pages, which would alias every recorded call otherwise
	recorded := *input
	c.calls = append(c.calls, &recorded)

	idx := 0

	if token := aws.StringValue(input.NextToken); token != "" {
		var err error
		if idx, err = strconv.Atoi(token); err != nil {
			return nil, err
		}
	}

	return c.pages[idx], nil
}

// failingClient fails every call with the same error, unchanged.
type failingClient struct {
	ssmiface.SSMAPI

	err error
}

func (c *failingClient) GetParametersByPath(*ssm.GetParametersByPathInput) (*ssm.GetParametersByPathOutput, error) {
	return nil, c.err
}

func (c *failingClient) GetParameters(*ssm.GetParametersInput) (*ssm.GetParametersOutput, error) {
	return nil, c.err
}

func pagesOf(names ...[]string) []*ssm.GetParametersByPathOutput {
	pages := make([]*ssm.GetParametersByPathOutput, 0, len(names))

	for i, page := range names {
		out := &ssm.GetParametersByPathOutput{}

		for _, name := range page {
			out.Parameters = append(out.Parameters, &ssm.Parameter{
				Name:  aws.String(name),
				Value: aws.String("value of " + name),
				Type:  aws.String("String"),
			})
		}

		if i < len(names)-1 {
			out.NextToken = aws.String(strconv.Itoa(i + 1))
		}

		pages = append(pages, out)
	}

	return pages
}

func TestGetParametersByPathPagination(t *testing.T) {
	cases := []struct {
		name  string
		pages [][]string
	}{
		{
			"singlePage",
			[][]string{
				{"/svc/dev/param-1", "/svc/dev/param-2"},
			},
		},
		{
			"threePages",
			[][]string{
				{"/svc/dev/param-1", "/svc/dev/param-2"},
				{"/svc/dev/param-3"},
				{"/svc/dev/param-4", "/svc/dev/param-5"},
			},
		},
		{
			"emptyMiddlePage",
			[][]string{
				{"/svc/dev/param-1"},
				{},
				{"/svc/dev/param-2"},
			},
		},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			client := &pagedClient{pages: pagesOf(testCase.pages...)}
			ps := paramstore.NewWithClient(client)

			result, err := ps.GetParametersByPath("/svc/dev/")
			require.NoError(t, err)

			expected := paramstore.Parameters{}
			total := 0

			for _, page := range testCase.pages {
				for _, name := range page {
					expected[name[len("/svc/dev/"):]] = "value of " + name
					total++
				}
			}

			assert.Len(t, result, total)
			assert.EqualValues(t, expected, result)

			// one call per page, each passing the previous page's token
			assert.Len(t, client.calls, len(testCase.pages))

			for i, call := range client.calls[1:] {
				assert.Equal(t, strconv.Itoa(i+1), aws.StringValue(call.NextToken))
			}
		})
	}
}

func TestGetParametersByPathStripsPrefix(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/svc/dev/param-1": "a",
	})
	ps := paramstore.NewWithClient(client)

	t.Run("trailingSeparator", func(t *testing.T) {
		result, err := ps.GetParametersByPath("/svc/dev/")
		require.NoError(t, err)

		assert.EqualValues(t, paramstore.Parameters{"param-1": "a"}, result)
	})

	t.Run("noTrailingSeparator", func(t *testing.T) {
		result, err := ps.GetParametersByPath("/svc/dev")
		require.NoError(t, err)

		assert.EqualValues(t, paramstore.Parameters{"param-1": "a"}, result)
	})
}

func TestGetParametersByPathRecursive(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/my-service/param-0":     "top",
		"/my-service/dev/param-1": "a",
		"/my-service/dev/param-2": "b",
	})
	ps := paramstore.NewWithClient(client)

	t.Run("oneLevelOnly", func(t *testing.T) {
		result, err := ps.GetParametersByPath("/my-service/")
		require.NoError(t, err)

		assert.EqualValues(t, paramstore.Parameters{"param-0": "top"}, result)
	})

	t.Run("recursiveFlatKeepsSubpath", func(t *testing.T) {
		result, err := ps.GetParametersByPath("/my-service/", paramstore.Recursive())
		require.NoError(t, err)

		assert.EqualValues(t, paramstore.Parameters{
			"param-0":     "top",
			"dev/param-1": "a",
			"dev/param-2": "b",
		}, result)
	})
}

func TestGetParametersByPathNested(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/my-service/dev/param-1": "a",
		"/my-service/dev/param-2": "b",
	})
	ps := paramstore.NewWithClient(client)

	result, err := ps.GetParametersByPath("/my-service/", paramstore.Recursive(), paramstore.Nested())
	require.NoError(t, err)

	assert.EqualValues(t, paramstore.Parameters{
		"dev": paramstore.Parameters{
			"param-1": "a",
			"param-2": "b",
		},
	}, result)
}

func TestGetParametersByPathNestedDeep(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/svc/db/primary/hostname": "db-1",
		"/svc/db/primary/port":     "5432",
		"/svc/db/replica/hostname": "db-2",
		"/svc/version":             "42",
	})
	ps := paramstore.NewWithClient(client)

	result, err := ps.GetParametersByPath("/svc/", paramstore.Recursive(), paramstore.Nested())
	require.NoError(t, err)

	assert.EqualValues(t, paramstore.Parameters{
		"db": paramstore.Parameters{
			"primary": paramstore.Parameters{
				"hostname": "db-1",
				"port":     "5432",
			},
			"replica": paramstore.Parameters{
				"hostname": "db-2",
			},
		},
		"version": "42",
	}, result)
}

func TestGetParametersByPathNestedWithoutRecursive(t *testing.T) {
	// Without recursion no multi-segment keys can occur, so nesting
	// degenerates to a single flat level.
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/svc/dev/param-1":        "a",
		"/svc/dev/nested/param-2": "b",
	})
	ps := paramstore.NewWithClient(client)

	result, err := ps.GetParametersByPath("/svc/dev/", paramstore.Nested())
	require.NoError(t, err)

	assert.EqualValues(t, paramstore.Parameters{"param-1": "a"}, result)
}

func TestGetParametersByPathRequired(t *testing.T) {
	configs := map[string]string{
		"/service/foo/db/hostname": "db.internal",
		"/service/foo/db/username": "admin",
		"/service/foo/db/password": "pass",
		"/service/foo/db/port":     "5432",
	}

	t.Run("allPresent", func(t *testing.T) {
		ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(configs))

		result, err := ps.GetParametersByPath("/service/foo/db/",
			paramstore.Required("hostname", "username", "password", "port"))
		require.NoError(t, err)

		assert.Equal(t, "db.internal", result["hostname"])
	})

	t.Run("missing", func(t *testing.T) {
		incomplete := map[string]string{}
		for k, v := range configs {
			incomplete[k] = v
		}
		delete(incomplete, "/service/foo/db/port")

		ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(incomplete))

		_, err := ps.GetParametersByPath("/service/foo/db/",
			paramstore.Required("hostname", "username", "password", "port"))
		require.Error(t, err)

		missingErr, ok := err.(*paramstore.MissingParametersError)
		require.True(t, ok)

		assert.EqualValues(t, []string{"port"}, missingErr.Names)
		assert.Equal(t, "/service/foo/db/", missingErr.Path)
		assert.Contains(t, missingErr.Error(), "port")
	})

	t.Run("missingSeveral", func(t *testing.T) {
		ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(map[string]string{
			"/service/foo/db/hostname": "db.internal",
		}))

		_, err := ps.GetParametersByPath("/service/foo/db/",
			paramstore.Required("username", "hostname", "port"))
		require.Error(t, err)

		missingErr, ok := err.(*paramstore.MissingParametersError)
		require.True(t, ok)

		// complete missing set, sorted
		assert.EqualValues(t, []string{"port", "username"}, missingErr.Names)
	})

	t.Run("checkedBeforeNesting", func(t *testing.T) {
		ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(map[string]string{
			"/service/foo/db/primary/hostname": "db-1",
		}))

		// the required name addresses the flat relative key space
		result, err := ps.GetParametersByPath("/service/foo/db/",
			paramstore.Recursive(), paramstore.Nested(),
			paramstore.Required("primary/hostname"))
		require.NoError(t, err)

		assert.EqualValues(t, paramstore.Parameters{
			"primary": paramstore.Parameters{"hostname": "db-1"},
		}, result)
	})
}

func TestGetParametersByPathRequiredAcrossPages(t *testing.T) {
	// A required key present only on the last page must not fail the check:
	// validation runs after every page is merged.
	client := &pagedClient{pages: pagesOf(
		[]string{"/svc/dev/param-1"},
		[]string{"/svc/dev/param-2"},
	)}
	ps := paramstore.NewWithClient(client)

	result, err := ps.GetParametersByPath("/svc/dev/", paramstore.Required("param-2"))
	require.NoError(t, err)

	assert.Equal(t, "value of /svc/dev/param-2", result["param-2"])
}

func TestGetParametersKeysByFullName(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/my-service/dev/param-1": "a",
		"/common/dev/param-2":     "b",
	})
	ps := paramstore.NewWithClient(client)

	result, err := ps.GetParameters([]string{"/my-service/dev/param-1", "/common/dev/param-2"})
	require.NoError(t, err)

	assert.EqualValues(t, paramstore.Parameters{
		"/my-service/dev/param-1": "a",
		"/common/dev/param-2":     "b",
	}, result)
}

func TestGetParametersOmitsMissingNames(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/my-service/dev/param-1": "a",
	})
	ps := paramstore.NewWithClient(client)

	result, err := ps.GetParameters([]string{"/my-service/dev/param-1", "/my-service/dev/no-such"})
	require.NoError(t, err)

	assert.EqualValues(t, paramstore.Parameters{"/my-service/dev/param-1": "a"}, result)
}

func TestGetParametersChunking(t *testing.T) {
	// MemoryClient rejects any single call above the service batch maximum,
	// so a full result proves the name list was split transparently.
	configs := map[string]string{}
	names := []string{}

	for i := 0; i < 25; i++ {
		name := "/svc/dev/param-" + strconv.Itoa(i)
		configs[name] = "value-" + strconv.Itoa(i)
		names = append(names, name)
	}

	ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(configs))

	result, err := ps.GetParameters(names)
	require.NoError(t, err)

	assert.Len(t, result, 25)

	for name, value := range configs {
		assert.Equal(t, value, result[name])
	}
}

func TestIdempotence(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/svc/dev/param-1":    "a",
		"/svc/dev/db/part-2":  "b",
		"/common/dev/param-3": "c",
	})
	ps := paramstore.NewWithClient(client)

	t.Run("byPath", func(t *testing.T) {
		first, err := ps.GetParametersByPath("/svc/dev/", paramstore.Recursive(), paramstore.Nested())
		require.NoError(t, err)

		second, err := ps.GetParametersByPath("/svc/dev/", paramstore.Recursive(), paramstore.Nested())
		require.NoError(t, err)

		assert.EqualValues(t, first, second)
	})

	t.Run("byName", func(t *testing.T) {
		first, err := ps.GetParameters([]string{"/svc/dev/param-1", "/common/dev/param-3"})
		require.NoError(t, err)

		second, err := ps.GetParameters([]string{"/svc/dev/param-1", "/common/dev/param-3"})
		require.NoError(t, err)

		assert.EqualValues(t, first, second)
	})
}

func TestRemoteErrorsPropagateUnchanged(t *testing.T) {
	backendErr := errors.New("AccessDeniedException: not authorized")
	ps := paramstore.NewWithClient(&failingClient{err: backendErr})

	_, err := ps.GetParametersByPath("/svc/dev/")
	assert.Equal(t, backendErr, err)

	_, err = ps.GetParameters([]string{"/svc/dev/param-1"})
	assert.Equal(t, backendErr, err)
}

func TestGetParameterValue(t *testing.T) {
	client := paramstore.NewMemoryClientFromMap(map[string]string{
		"/svc/dev/param-1": "a",
	})
	ps := paramstore.NewWithClient(client)

	t.Run("exists", func(t *testing.T) {
		value, err := ps.GetParameterValue("/svc/dev/param-1")
		require.NoError(t, err)

		assert.Equal(t, "a", value)
	})

	t.Run("nonExistent", func(t *testing.T) {
		_, err := ps.GetParameterValue("/svc/dev/no-such")

		assert.Equal(t, paramstore.ErrParameterNotFound, err)
	})
}

func TestGetParameter(t *testing.T) {
	ps := paramstore.NewWithClient(paramstore.NewMemoryClient())

	require.NoError(t, ps.Put("/svc/dev/param-1", "a", false, false))
	require.NoError(t, ps.Put("/svc/dev/token", "sekrit", true, false))

	t.Run("plain", func(t *testing.T) {
		param, err := ps.GetParameter("/svc/dev/param-1")
		require.NoError(t, err)

		assert.Equal(t, "/svc/dev/param-1", param.Name)
		assert.Equal(t, "a", param.Value)
		assert.False(t, param.Secure)
	})

	t.Run("secure", func(t *testing.T) {
		param, err := ps.GetParameter("/svc/dev/token")
		require.NoError(t, err)

		assert.Equal(t, "sekrit", param.Value)
		assert.True(t, param.Secure)
	})

	t.Run("nonExistent", func(t *testing.T) {
		_, err := ps.GetParameter("/svc/dev/no-such")

		assert.Equal(t, paramstore.ErrParameterNotFound, err)
	})
}

func TestPut(t *testing.T) {
	t.Run("putThenGet", func(t *testing.T) {
		ps := paramstore.NewWithClient(paramstore.NewMemoryClient())

		err := ps.Put("/svc/dev/param-1", "a", false, false)
		require.NoError(t, err)

		value, err := ps.GetParameterValue("/svc/dev/param-1")
		require.NoError(t, err)

		assert.Equal(t, "a", value)
	})

	t.Run("noOverwrite", func(t *testing.T) {
		ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(map[string]string{
			"/svc/dev/param-1": "a",
		}))

		err := ps.Put("/svc/dev/param-1", "b", false, false)
		require.Error(t, err)

		// unchanged
		value, err := ps.GetParameterValue("/svc/dev/param-1")
		require.NoError(t, err)
		assert.Equal(t, "a", value)
	})

	t.Run("overwrite", func(t *testing.T) {
		ps := paramstore.NewWithClient(paramstore.NewMemoryClientFromMap(map[string]string{
			"/svc/dev/param-1": "a",
		}))

		err := ps.Put("/svc/dev/param-1", "b", true, true)
		require.NoError(t, err)

		param, err := ps.GetParameter("/svc/dev/param-1")
		require.NoError(t, err)
		assert.Equal(t, "b", param.Value)
		assert.True(t, param.Secure)
	})
}
