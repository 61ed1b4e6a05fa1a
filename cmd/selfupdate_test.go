package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	repository selfupdate.Repository
	release    *selfupdate.Release
	found      bool
	err        error
	updated    bool
}

func (f *fakeUpdater) DetectLatest(_ context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error) {
	f.repository = repository
	return f.release, f.found, f.err
}

func (f *fakeUpdater) UpdateTo(context.Context, *selfupdate.Release, string) error {
	f.updated = true
	return nil
}

// withUpdater replaces the release updater for the duration of the test.
func withUpdater(t *testing.T, updater releaseUpdater, err error) {
	t.Helper()
	original := newUpdater
	newUpdater = func() (releaseUpdater, error) { return updater, err }
	t.Cleanup(func() { newUpdater = original })
}

func TestSelfUpdateRejectsDevelopmentVersions(t *testing.T) {
	for _, v := range []string{"", "dev"} {
		t.Run("version "+v, func(t *testing.T) {
			withVersion(t, v)
			updater := &fakeUpdater{}
			withUpdater(t, updater, nil)

			out, err := executeCommand(t, "self-update")
			assert.EqualError(t, err, "cannot self-update a development version")
			assert.Empty(t, out)
			assert.Nil(t, updater.repository)
			assert.Equal(t, ExitCodeError, getExitCode(err))
		})
	}
}

func TestSelfUpdateReleaseNotFound(t *testing.T) {
	withVersion(t, "1.2.0")
	updater := &fakeUpdater{}
	withUpdater(t, updater, nil)

	out, err := executeCommand(t, "self-update")
	assert.EqualError(t, err, "latest release for tes/bosco could not be found")
	assert.Equal(t, "Current version: 1.2.0\n", out)
	assert.Equal(t, selfupdate.ParseSlug(githubRepoSlug), updater.repository)
	assert.False(t, updater.updated)
}

func TestSelfUpdateDetectionError(t *testing.T) {
	withVersion(t, "1.2.0")
	withUpdater(t, &fakeUpdater{err: errors.New("rate limited")}, nil)

	_, err := executeCommand(t, "self-update")
	assert.ErrorContains(t, err, "error detecting latest version: rate limited")
}

func TestSelfUpdateUpdaterError(t *testing.T) {
	withVersion(t, "1.2.0")
	withUpdater(t, nil, errors.New("no token"))

	_, err := executeCommand(t, "self-update")
	assert.EqualError(t, err, "failed to create updater: no token")
}

func TestSelfUpdateCommand(t *testing.T) {
	cmd := newSelfUpdateCmd()
	assert.Equal(t, "self-update", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	require.NotNil(t, cmd.RunE)
	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
}
