package gitsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateBasesOrderNoSearchPath(t *testing.T) {
	got := candidateBases(nil, "myapp", []string{"dev", "cloud"})

	assert.Equal(t, []string{
		"myapp-cloud",
		"myapp-dev",
		"myapp",
		"application-cloud",
		"application-dev",
		"application",
	}, got)
}

func TestCandidateBasesNoProfiles(t *testing.T) {
	got := candidateBases(nil, "myapp", nil)

	assert.Equal(t, []string{"myapp", "application"}, got)
}

func TestCandidateBasesWithSearchPaths(t *testing.T) {
	got := candidateBases([]string{"config", "nested/dir"}, "myapp", []string{"dev"})

	assert.Equal(t, []string{
		"config/myapp-dev",
		"config/myapp",
		"config/application-dev",
		"config/application",
		"nested/dir/myapp-dev",
		"nested/dir/myapp",
		"nested/dir/application-dev",
		"nested/dir/application",
	}, got)
}
