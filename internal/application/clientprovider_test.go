package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/repodeck/internal/application"
)

func TestClientProviderStartsEmpty(t *testing.T) {
	p := application.NewClientProvider(nil, nil, "")

	assert.False(t, p.HasClient())
	assert.Nil(t, p.Client())
	assert.Nil(t, p.Writer())
	assert.Empty(t, p.Username())
}

func TestClientProviderReplace(t *testing.T) {
	p := application.NewClientProvider(nil, nil, "")

	client := &mockGitHubClient{}
	writer := &mockGitHubWriter{}
	p.Replace(client, writer, "octocat")

	assert.True(t, p.HasClient())
	assert.Equal(t, "octocat", p.Username())

	// A second replace (token rotation) takes effect immediately.
	other := &mockGitHubClient{}
	p.Replace(other, writer, "hubot")
	assert.Equal(t, "hubot", p.Username())

	// Clearing drops everything.
	p.Replace(nil, nil, "")
	assert.False(t, p.HasClient())
}
