package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the permission store
// (PostgreSQL). The partial unique indexes on grants and exceptions pin
// down the exact-tuple invariant: one row per (owner, level, id), with the
// two unused id columns NULL.
var Migrations = migrate.NewGroup("authz")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_job_permissions",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS authz_job_permissions (
    id                  TEXT PRIMARY KEY,
    job_id              INTEGER NOT NULL,
    service_id          INTEGER,
    sub_service_id      INTEGER,
    sub_sub_service_id  INTEGER,
    created_by          TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),

    CHECK (num_nonnulls(service_id, sub_service_id, sub_sub_service_id) = 1)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_authz_job_perms_tuple
    ON authz_job_permissions (job_id, COALESCE(service_id, -1), COALESCE(sub_service_id, -1), COALESCE(sub_sub_service_id, -1));
CREATE INDEX IF NOT EXISTS idx_authz_job_perms_job ON authz_job_permissions (job_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS authz_job_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_user_permissions",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS authz_user_permissions (
    id                  TEXT PRIMARY KEY,
    user_id             TEXT NOT NULL,
    service_id          INTEGER,
    sub_service_id      INTEGER,
    sub_sub_service_id  INTEGER,
    is_allowed          BOOLEAN NOT NULL,
    is_manual_exception BOOLEAN NOT NULL DEFAULT TRUE,
    created_by          TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),

    CHECK (num_nonnulls(service_id, sub_service_id, sub_sub_service_id) = 1)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_authz_user_perms_tuple
    ON authz_user_permissions (user_id, COALESCE(service_id, -1), COALESCE(sub_service_id, -1), COALESCE(sub_sub_service_id, -1));
CREATE INDEX IF NOT EXISTS idx_authz_user_perms_user ON authz_user_permissions (user_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS authz_user_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_users",
			Version: "20240601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS authz_users (
    id              TEXT PRIMARY KEY,
    display_name    TEXT NOT NULL DEFAULT '',
    is_super_admin  BOOLEAN NOT NULL DEFAULT FALSE,
    job_id          INTEGER,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_authz_users_job ON authz_users (job_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS authz_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_catalogs",
			Version: "20240601000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS authz_services (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS authz_sub_services (
    id          INTEGER PRIMARY KEY,
    service_id  INTEGER NOT NULL REFERENCES authz_services(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS authz_sub_sub_services (
    id              INTEGER PRIMARY KEY,
    sub_service_id  INTEGER NOT NULL REFERENCES authz_sub_services(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_authz_sub_services_parent ON authz_sub_services (service_id);
CREATE INDEX IF NOT EXISTS idx_authz_sub_sub_services_parent ON authz_sub_sub_services (sub_service_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS authz_sub_sub_services;
DROP TABLE IF EXISTS authz_sub_services;
DROP TABLE IF EXISTS authz_services;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20240601000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS authz_decision_logs (
    id              TEXT PRIMARY KEY,
    caller_id       TEXT NOT NULL,
    permission_id   TEXT NOT NULL,
    allowed         BOOLEAN NOT NULL,
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_authz_dlogs_caller ON authz_decision_logs (caller_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_authz_dlogs_created ON authz_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS authz_decision_logs`)
				return err
			},
		},
	)
}
