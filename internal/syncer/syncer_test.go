// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prophetdb/paper-downloader/internal/logging"
)

// fakeSource serves canned organizations and memberships.
type fakeSource struct {
	orgs    []Organization
	members map[int][]Member
}

func (f *fakeSource) Organizations(context.Context) ([]Organization, error) {
	return f.orgs, nil
}

func (f *fakeSource) Members(_ context.Context, orgID int) ([]Member, error) {
	return f.members[orgID], nil
}

// fakeStore records provisioning calls.
type fakeStore struct {
	registered []MCUser
	addUserErr error

	addedUsers   map[string]string
	buckets      []string
	removedGroup []string
	removedPol   []string
	groupAdds    map[string][]string
	attachedPol  []string
	boundPol     []string
}

func newFakeStore(registered ...MCUser) *fakeStore {
	return &fakeStore{
		registered: registered,
		addedUsers: map[string]string{},
		groupAdds:  map[string][]string{},
	}
}

func (f *fakeStore) ListUsers() ([]MCUser, error) { return f.registered, nil }

func (f *fakeStore) AddUser(email, secretKey string) error {
	if f.addUserErr != nil {
		return f.addUserErr
	}
	f.addedUsers[email] = secretKey
	return nil
}

func (f *fakeStore) MakeBucket(bucket string) error {
	f.buckets = append(f.buckets, bucket)
	return nil
}

func (f *fakeStore) RemoveGroup(group string) error {
	f.removedGroup = append(f.removedGroup, group)
	return nil
}

func (f *fakeStore) RemovePolicy(bucket string) error {
	f.removedPol = append(f.removedPol, bucket)
	return nil
}

func (f *fakeStore) AddGroupMembers(group string, members []string) error {
	f.groupAdds[group] = append(f.groupAdds[group], members...)
	return nil
}

func (f *fakeStore) AttachPolicy(bucket string) error {
	f.attachedPol = append(f.attachedPol, bucket)
	return nil
}

func (f *fakeStore) BindPolicyToGroup(bucket string) error {
	f.boundPol = append(f.boundPol, bucket)
	return nil
}

func TestSecretFor(t *testing.T) {
	// md5("alice@example.org:7")
	secret := SecretFor("alice@example.org", 7)
	assert.Len(t, secret, 32)
	assert.Equal(t, secret, SecretFor("alice@example.org", 7))
	assert.NotEqual(t, secret, SecretFor("alice@example.org", 8))
}

func TestBucketNameFor(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Label Studio", "label-studio"},
		{"MECFS LongCovid", "mecfs-longcovid"},
		{"single", "single"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketNameFor(tt.title))
	}
}

func TestSyncAccounts(t *testing.T) {
	source := &fakeSource{
		orgs: []Organization{{ID: 1, Title: "MECFS LongCovid"}},
		members: map[int][]Member{
			1: {
				{ID: 1, Email: "admin@example.org", IsSuperuser: true},
				{ID: 2, Email: "alice@example.org"},
				{ID: 3, Email: "bob@example.org"},
			},
		},
	}
	store := newFakeStore(MCUser{AccessKey: "alice@example.org", Status: "success"})

	s := &Syncer{source: source, store: store, log: logging.NewNop()}
	require.NoError(t, s.SyncAccounts(context.Background()))

	// The superuser is skipped, the known member is not re-registered,
	// and the new member gets a derived secret.
	assert.NotContains(t, store.addedUsers, "admin@example.org")
	assert.NotContains(t, store.addedUsers, "alice@example.org")
	assert.Equal(t, SecretFor("bob@example.org", 3), store.addedUsers["bob@example.org"])

	// Group and policy are rebuilt from scratch with both active members.
	assert.Equal(t, []string{"mecfs-longcovid"}, store.buckets)
	assert.Equal(t, []string{"mecfs-longcovid"}, store.removedGroup)
	assert.Equal(t, []string{"mecfs-longcovid"}, store.removedPol)
	assert.Equal(t, []string{"alice@example.org", "bob@example.org"}, store.groupAdds["mecfs-longcovid"])
	assert.Equal(t, []string{"mecfs-longcovid"}, store.attachedPol)
	assert.Equal(t, []string{"mecfs-longcovid"}, store.boundPol)
}

func TestSyncAccountsNoOrganizations(t *testing.T) {
	s := &Syncer{source: &fakeSource{}, store: newFakeStore(), log: logging.NewNop()}
	assert.Error(t, s.SyncAccounts(context.Background()))
}

func TestSyncAccountsSkipsEmptyOrganization(t *testing.T) {
	source := &fakeSource{
		orgs: []Organization{{ID: 1, Title: "Empty Org"}},
		members: map[int][]Member{
			1: {{ID: 1, Email: "admin@example.org", IsSuperuser: true}},
		},
	}
	store := newFakeStore()

	s := &Syncer{source: source, store: store, log: logging.NewNop()}
	require.NoError(t, s.SyncAccounts(context.Background()))

	assert.Empty(t, store.groupAdds)
	assert.Empty(t, store.attachedPol)
}

func TestSyncAccountsRegistrationFailureIsolated(t *testing.T) {
	source := &fakeSource{
		orgs: []Organization{{ID: 1, Title: "Org"}},
		members: map[int][]Member{
			1: {{ID: 2, Email: "alice@example.org"}},
		},
	}
	store := newFakeStore()
	store.addUserErr = assert.AnError

	s := &Syncer{source: source, store: store, log: logging.NewNop()}
	require.NoError(t, s.SyncAccounts(context.Background()))

	assert.Empty(t, store.groupAdds)
}
