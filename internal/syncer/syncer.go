// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/prophetdb/paper-downloader/internal/logging"
	"github.com/prophetdb/paper-downloader/pkg/types"
)

// membershipSource yields organizations and their members.
type membershipSource interface {
	Organizations(ctx context.Context) ([]Organization, error)
	Members(ctx context.Context, orgID int) ([]Member, error)
}

// accountStore provisions object-store accounts, groups and policies.
type accountStore interface {
	ListUsers() ([]MCUser, error)
	AddUser(email, secretKey string) error
	MakeBucket(bucket string) error
	RemoveGroup(group string) error
	RemovePolicy(bucket string) error
	AddGroupMembers(group string, members []string) error
	AttachPolicy(bucket string) error
	BindPolicyToGroup(bucket string) error
}

// Syncer reconciles Label Studio memberships into object-store accounts.
type Syncer struct {
	source membershipSource
	store  accountStore
	log    logging.Logger
}

// New builds a syncer from the sync configuration and registers the mc
// host alias so the provisioning commands can run.
func New(cfg types.SyncConfig, log logging.Logger) (*Syncer, error) {
	mc := NewMCAdmin()
	if err := mc.ConfigureHost(cfg.MinioServer, cfg.MinioAccessKey, cfg.MinioSecretKey); err != nil {
		return nil, err
	}
	return &Syncer{
		source: NewLabelStudio(cfg.LabelStudioURL, cfg.LabelStudioToken),
		store:  mc,
		log:    log,
	}, nil
}

// SecretFor derives a member's stable secret key. The key survives
// restarts, so a member keeps the same credentials across syncs.
func SecretFor(email string, userID int) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%s:%d", email, userID))))
}

// BucketNameFor maps an organization title to its bucket name.
func BucketNameFor(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// SyncAccounts runs one reconciliation pass. Each organization gets a
// bucket and a group holding its non-superuser members; group and
// policy are rebuilt from scratch so removals propagate.
func (s *Syncer) SyncAccounts(ctx context.Context) error {
	s.log.Info("syncing accounts")

	registered, err := s.store.ListUsers()
	if err != nil {
		return err
	}
	s.log.Info("registered users listed", logging.Int("count", len(registered)))

	orgs, err := s.source.Organizations(ctx)
	if err != nil {
		return err
	}
	if len(orgs) == 0 {
		return fmt.Errorf("no organizations found")
	}
	s.log.Info("organizations listed", logging.Int("count", len(orgs)))

	known := make(map[string]bool, len(registered))
	for _, user := range registered {
		known[user.AccessKey] = true
	}

	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.syncOrganization(ctx, org, known)
	}
	return nil
}

// syncOrganization provisions one organization. Failures are logged and
// skipped so one broken organization cannot block the rest.
func (s *Syncer) syncOrganization(ctx context.Context, org Organization, known map[string]bool) {
	bucket := BucketNameFor(org.Title)
	s.log.Info("syncing organization",
		logging.String("organization", org.Title), logging.String("bucket", bucket))

	members, err := s.source.Members(ctx, org.ID)
	if err != nil {
		s.log.Error("members not listed", logging.String("bucket", bucket), logging.Err(err))
		return
	}

	if err := s.store.MakeBucket(bucket); err != nil {
		s.log.Warn("bucket not created", logging.Err(err))
	}
	if err := s.store.RemoveGroup(bucket); err != nil {
		s.log.Warn("group not removed", logging.Err(err))
	}
	if err := s.store.RemovePolicy(bucket); err != nil {
		s.log.Warn("policy not removed", logging.Err(err))
	}

	var synced []string
	for _, member := range members {
		if member.IsSuperuser {
			continue
		}

		if known[member.Email] {
			// An already registered member keeps the existing account. If
			// the member cannot log in with the derived secret, remove
			// the account and let the next sync re-register it.
			s.log.Info("member already registered", logging.String("email", member.Email))
			synced = append(synced, member.Email)
			continue
		}

		if err := s.store.AddUser(member.Email, SecretFor(member.Email, member.ID)); err != nil {
			s.log.Error("member not registered",
				logging.String("email", member.Email), logging.Err(err))
			continue
		}
		s.log.Info("member registered", logging.String("email", member.Email))
		synced = append(synced, member.Email)
	}

	if len(synced) == 0 {
		s.log.Info("no members to sync", logging.String("bucket", bucket))
		return
	}

	if err := s.store.AddGroupMembers(bucket, synced); err != nil {
		s.log.Error("group not populated", logging.String("bucket", bucket), logging.Err(err))
		return
	}
	if err := s.store.AttachPolicy(bucket); err != nil {
		s.log.Error("policy not attached", logging.String("bucket", bucket), logging.Err(err))
		return
	}
	if err := s.store.BindPolicyToGroup(bucket); err != nil {
		s.log.Error("policy not bound", logging.String("bucket", bucket), logging.Err(err))
	}
}

// Run syncs once immediately, then on every interval tick until ctx is
// cancelled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	if err := s.SyncAccounts(ctx); err != nil {
		s.log.Error("sync failed", logging.Err(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("syncer stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := s.SyncAccounts(ctx); err != nil {
				s.log.Error("sync failed", logging.Err(err))
			}
		}
	}
}
