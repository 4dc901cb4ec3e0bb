// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syncer mirrors Label Studio organization memberships into
// MinIO accounts. Every organization becomes a bucket plus a group, and
// every member gets a deterministic secret key so annotators can mount
// their organization's papers without manual provisioning.
package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// defaultAlias is the mc host alias the provisioning commands run against.
const defaultAlias = "publications"

// executor abstracts command execution for testing.
type executor interface {
	Run(name string, args ...string) ([]byte, error)
}

type osExecutor struct{}

func (osExecutor) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// MCUser is one account as reported by mc admin user list.
type MCUser struct {
	Status     string `json:"status"`
	AccessKey  string `json:"accessKey"`
	PolicyName string `json:"policyName"`
	UserStatus string `json:"userStatus"`
}

// MCAdmin drives the mc command line for account provisioning. The mc
// client owns credential storage and the admin API, so shelling out to
// it beats reimplementing the madmin protocol.
type MCAdmin struct {
	alias string
	exec  executor
}

// NewMCAdmin returns an MCAdmin over the default alias.
func NewMCAdmin() *MCAdmin {
	return &MCAdmin{alias: defaultAlias, exec: osExecutor{}}
}

// ConfigureHost registers the alias with the mc client.
func (m *MCAdmin) ConfigureHost(server, accessKey, secretKey string) error {
	if _, err := m.exec.Run("mc", "config", "host", "add", m.alias, server, accessKey, secretKey); err != nil {
		return fmt.Errorf("configuring mc host %s: %w", server, err)
	}
	return nil
}

// ListUsers returns every registered account. mc emits one JSON object
// per line.
func (m *MCAdmin) ListUsers() ([]MCUser, error) {
	out, err := m.exec.Run("mc", "admin", "user", "list", m.alias, "--json")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var users []MCUser
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var user MCUser
		if err := json.Unmarshal([]byte(line), &user); err != nil {
			return nil, fmt.Errorf("parsing user list: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// AddUser registers an account with the given secret key.
func (m *MCAdmin) AddUser(email, secretKey string) error {
	if _, err := m.exec.Run("mc", "admin", "user", "add", m.alias, email, secretKey); err != nil {
		return fmt.Errorf("adding user %s: %w", email, err)
	}
	return nil
}

// MakeBucket creates the bucket if it does not exist.
func (m *MCAdmin) MakeBucket(bucket string) error {
	if _, err := m.exec.Run("mc", "mb", "-p", m.alias+"/"+bucket); err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	return nil
}

// GroupMembers returns the accounts currently in the named group.
func (m *MCAdmin) GroupMembers(group string) ([]string, error) {
	out, err := m.exec.Run("mc", "admin", "group", "info", m.alias, group, "--json")
	if err != nil {
		return nil, fmt.Errorf("reading group %s: %w", group, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return nil, nil
	}

	var info struct {
		Members []string `json:"members"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parsing group %s: %w", group, err)
	}
	return info.Members, nil
}

// AddGroupMembers adds the accounts to the group, creating it on first use.
func (m *MCAdmin) AddGroupMembers(group string, members []string) error {
	args := append([]string{"admin", "group", "add", m.alias, group}, members...)
	if _, err := m.exec.Run("mc", args...); err != nil {
		return fmt.Errorf("adding members to group %s: %w", group, err)
	}
	return nil
}

// RemoveGroup empties and deletes the group so a fresh membership list
// can be applied.
func (m *MCAdmin) RemoveGroup(group string) error {
	members, err := m.GroupMembers(group)
	if err != nil {
		return err
	}
	args := append([]string{"admin", "group", "remove", m.alias, group}, members...)
	if _, err := m.exec.Run("mc", args...); err != nil {
		return fmt.Errorf("removing group %s: %w", group, err)
	}
	return nil
}

// RemovePolicy deletes the bucket's access policy.
func (m *MCAdmin) RemovePolicy(bucket string) error {
	if _, err := m.exec.Run("mc", "admin", "policy", "remove", m.alias, bucket); err != nil {
		return fmt.Errorf("removing policy %s: %w", bucket, err)
	}
	return nil
}

// AttachPolicy writes a full-access policy scoped to the bucket and
// registers it under the bucket's name.
func (m *MCAdmin) AttachPolicy(bucket string) error {
	policy := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{
			{
				"Effect":   "Allow",
				"Action":   []string{"s3:*"},
				"Resource": []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
			},
		},
	}
	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encoding policy for %s: %w", bucket, err)
	}

	f, err := os.CreateTemp("", "policy-*.json")
	if err != nil {
		return fmt.Errorf("creating policy file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing policy file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing policy file: %w", err)
	}

	if _, err := m.exec.Run("mc", "admin", "policy", "attach", m.alias, bucket, f.Name()); err != nil {
		return fmt.Errorf("attaching policy %s: %w", bucket, err)
	}
	return nil
}

// BindPolicyToGroup points the bucket's policy at the matching group.
func (m *MCAdmin) BindPolicyToGroup(bucket string) error {
	if _, err := m.exec.Run("mc", "admin", "policy", "set", m.alias, bucket, "group="+bucket); err != nil {
		return fmt.Errorf("binding policy %s: %w", bucket, err)
	}
	return nil
}
