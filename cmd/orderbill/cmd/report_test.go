package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGenerateRequest(t *testing.T) {
	req, err := buildGenerateRequest(" 42 ", "2024-01-01", "2024-01-31", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "42", req.CustomerID)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), req.EndDate)
	assert.Nil(t, req.CustomerServiceIDs)

	req, err = buildGenerateRequest("42", "2024-01-01", "2024-01-31", []string{""}, true)
	require.NoError(t, err)
	require.NotNil(t, req.CustomerServiceIDs)
	assert.Empty(t, req.CustomerServiceIDs)

	req, err = buildGenerateRequest("42", "2024-01-01", "2024-01-31", []string{"7", " 8"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, req.CustomerServiceIDs)
}

func TestBuildGenerateRequestRejectsBadDates(t *testing.T) {
	_, err := buildGenerateRequest("42", "01/01/2024", "2024-01-31", nil, false)
	assert.Error(t, err)

	_, err = buildGenerateRequest("42", "2024-01-01", "", nil, false)
	assert.Error(t, err)
}
