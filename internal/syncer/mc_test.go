// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor returns canned output keyed by the joined command line.
type fakeExecutor struct {
	output map[string]string
	err    error
	calls  [][]string
}

func (f *fakeExecutor) Run(name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	key := name
	for _, arg := range args {
		key += " " + arg
	}
	return []byte(f.output[key]), nil
}

func newMCAdmin(exec *fakeExecutor) *MCAdmin {
	return &MCAdmin{alias: defaultAlias, exec: exec}
}

func TestListUsers(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{
		"mc admin user list publications --json": `{"status":"success","accessKey":"alice@example.org","policyName":"org","userStatus":"enabled"}
{"status":"success","accessKey":"bob@example.org","userStatus":"enabled"}
`,
	}}

	users, err := newMCAdmin(exec).ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice@example.org", users[0].AccessKey)
	assert.Equal(t, "org", users[0].PolicyName)
	assert.Equal(t, "bob@example.org", users[1].AccessKey)
}

func TestListUsersEmpty(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{}}
	users, err := newMCAdmin(exec).ListUsers()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestListUsersCommandFailure(t *testing.T) {
	exec := &fakeExecutor{err: assert.AnError}
	_, err := newMCAdmin(exec).ListUsers()
	assert.ErrorContains(t, err, "listing users")
}

func TestGroupMembers(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{
		"mc admin group info publications label-studio --json": `{"status":"success","groupName":"label-studio","members":["a@example.org","b@example.org"],"groupStatus":"enabled"}`,
	}}

	members, err := newMCAdmin(exec).GroupMembers("label-studio")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, members)
}

func TestRemoveGroupListsMembersFirst(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{
		"mc admin group info publications org --json": `{"members":["a@example.org"]}`,
	}}

	require.NoError(t, newMCAdmin(exec).RemoveGroup("org"))
	require.Len(t, exec.calls, 2)
	assert.Equal(t,
		[]string{"mc", "admin", "group", "remove", "publications", "org", "a@example.org"},
		exec.calls[1])
}

func TestAddUserCommand(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{}}
	require.NoError(t, newMCAdmin(exec).AddUser("alice@example.org", "s3cret"))
	assert.Equal(t,
		[]string{"mc", "admin", "user", "add", "publications", "alice@example.org", "s3cret"},
		exec.calls[0])
}

func TestMakeBucketCommand(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{}}
	require.NoError(t, newMCAdmin(exec).MakeBucket("org"))
	assert.Equal(t, []string{"mc", "mb", "-p", "publications/org"}, exec.calls[0])
}

func TestAttachPolicyWritesScopedPolicy(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{}}

	var policyFile string
	mc := &MCAdmin{alias: defaultAlias, exec: &capturingExecutor{inner: exec, capture: &policyFile}}
	require.NoError(t, mc.AttachPolicy("org"))

	require.Len(t, exec.calls, 1)
	call := exec.calls[0]
	assert.Equal(t, []string{"mc", "admin", "policy", "attach", "publications", "org"}, call[:6])
	require.NotEmpty(t, policyFile)

	var policy struct {
		Version   string `json:"Version"`
		Statement []struct {
			Effect   string   `json:"Effect"`
			Action   []string `json:"Action"`
			Resource []string `json:"Resource"`
		} `json:"Statement"`
	}
	require.NoError(t, json.Unmarshal([]byte(policyFile), &policy))
	assert.Equal(t, "2012-10-17", policy.Version)
	require.Len(t, policy.Statement, 1)
	assert.Equal(t, []string{"s3:*"}, policy.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::org/*"}, policy.Statement[0].Resource)
}

// capturingExecutor reads the policy file argument before the temp file
// is cleaned up.
type capturingExecutor struct {
	inner   *fakeExecutor
	capture *string
}

func (c *capturingExecutor) Run(name string, args ...string) ([]byte, error) {
	if len(args) > 0 {
		if data, err := os.ReadFile(args[len(args)-1]); err == nil {
			*c.capture = string(data)
		}
	}
	return c.inner.Run(name, args...)
}

func TestBindPolicyToGroupCommand(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{}}
	require.NoError(t, newMCAdmin(exec).BindPolicyToGroup("org"))
	assert.Equal(t,
		[]string{"mc", "admin", "policy", "set", "publications", "org", "group=org"},
		exec.calls[0])
}
