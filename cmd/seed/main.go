// Package main seeds a demo tenant into the directory tables and can publish
// a sample domain event so a fresh install has something in its inbox.
//
// Usage:
//
//	seed            # tenant, nodes, users, memberships
//	seed -publish   # also enqueue a CONNECTION_INVITED event
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/infrastructure"
	"tracehub.io/tracehub/internal/jobs"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

func main() {
	publish := flag.Bool("publish", false, "enqueue a sample connection invitation after seeding")
	flag.Parse()

	if err := run(*publish); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run(publish bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	// Schema and River migrations are expected to be applied before seeding.
	// Seeding itself is idempotent.
	logger.Info("Starting data seeding...")
	data := demoData()
	if err := seedDirectory(ctx, db.DB, data); err != nil {
		return fmt.Errorf("seed directory: %w", err)
	}
	logger.Info("Data seeding completed successfully")

	if !publish {
		return nil
	}

	// Insert-only client: no queues or workers are configured.
	client, err := river.NewClient(riverpgxv5.New(db.Pool), &river.Config{})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	ev := data.invitation(time.Now())
	if err := jobs.NewEventQueue(client).Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish sample event: %w", err)
	}
	logger.Info("Published sample event",
		zap.String("event_id", ev.EventID),
		zap.String("event_type", string(ev.EventType)),
	)
	return nil
}

type seedUser struct {
	ID       string
	Email    string
	FullName string
	Language string
}

type seedMember struct {
	NodeID string
	UserID string
	Role   notification.Role
}

type seedData struct {
	TenantID   string
	TenantName string
	BaseURL    string
	Source     domain.NodeRef
	Target     domain.NodeRef
	Chain      domain.SupplyChainRef
	Users      []seedUser
	Members    []seedMember
}

// demoData is a two-node chain: a grower invites a packer.
func demoData() seedData {
	return seedData{
		TenantID:   "00000000-0000-4000-8000-000000000001",
		TenantName: "Demo Cooperative",
		BaseURL:    "http://localhost:3000",
		Source:     domain.NodeRef{ID: "node-grower", Name: "Hillside Growers"},
		Target:     domain.NodeRef{ID: "node-packer", Name: "Valley Packing"},
		Chain:      domain.SupplyChainRef{ID: "chain-coffee", Name: "Coffee"},
		Users: []seedUser{
			{ID: "user-grower-admin", Email: "grower@localhost", FullName: "Grower Admin", Language: "en"},
			{ID: "user-packer-admin", Email: "packer@localhost", FullName: "Packer Admin", Language: "es"},
			{ID: "user-packer-ops", Email: "ops@localhost", FullName: "Packer Operations", Language: "en"},
		},
		Members: []seedMember{
			{NodeID: "node-grower", UserID: "user-grower-admin", Role: notification.RoleNodeAdmin},
			{NodeID: "node-packer", UserID: "user-packer-admin", Role: notification.RoleNodeAdmin},
			{NodeID: "node-packer", UserID: "user-packer-ops", Role: notification.RoleConnectionManager},
		},
	}
}

// invitation builds the event a grower admin raises when inviting the packer.
func (d seedData) invitation(now time.Time) *domain.DomainEvent {
	return &domain.DomainEvent{
		EventID:   uuid.NewString(),
		EventType: domain.EventConnectionInvited,
		TenantID:  d.TenantID,
		Subject: &domain.Connection{
			ID:          uuid.NewString(),
			TenantID:    d.TenantID,
			SupplyChain: d.Chain,
			Source:      d.Source,
			Target:      d.Target,
			Status:      domain.ConnectionPending,
		},
		CreatedBy: "user-grower-admin",
		CreatedAt: now.UTC(),
	}
}

// seedDirectory writes the tenant, users and memberships. Existing rows are
// left untouched.
func seedDirectory(ctx context.Context, db *sql.DB, d seedData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tenants (id, name, base_url) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		d.TenantID, d.TenantName, d.BaseURL,
	); err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}

	for _, u := range d.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, full_name, language) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Email, u.FullName, u.Language,
		); err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}

	for _, m := range d.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO node_members (node_id, tenant_id, user_id, role) VALUES ($1, $2, $3, $4)
ON CONFLICT (node_id, user_id) DO NOTHING`,
			m.NodeID, d.TenantID, m.UserID, string(m.Role),
		); err != nil {
			return fmt.Errorf("insert member %s/%s: %w", m.NodeID, m.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info("Seeded directory",
		zap.String("tenant", d.TenantID),
		zap.Int("users", len(d.Users)),
		zap.Int("members", len(d.Members)),
	)
	return nil
}
