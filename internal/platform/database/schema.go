// Package database owns the relational schema. The schema is embedded and
// applied idempotently at startup so a fresh database is usable without an
// external migration step.
package database

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS blood_groups (
    id   UUID PRIMARY KEY,
    type TEXT NOT NULL UNIQUE CHECK (type IN ('A+', 'A-', 'B+', 'B-', 'AB+', 'AB-', 'O+', 'O-'))
);

CREATE TABLE IF NOT EXISTS blood_components (
    id   UUID PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS users (
    id             UUID PRIMARY KEY,
    email          TEXT NOT NULL,
    password_hash  TEXT NOT NULL,
    full_name      TEXT NOT NULL DEFAULT '',
    role           TEXT NOT NULL CHECK (role IN ('donor', 'staff', 'admin')),
    blood_group_id UUID NOT NULL REFERENCES blood_groups(id),
    weight_kg      DOUBLE PRECISION NOT NULL DEFAULT 0,
    latitude       DOUBLE PRECISION NOT NULL DEFAULT 0,
    longitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
    active         BOOLEAN NOT NULL DEFAULT TRUE,
    donation_count INTEGER NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email));

CREATE TABLE IF NOT EXISTS donation_registrations (
    id                  UUID PRIMARY KEY,
    donor_id            UUID NOT NULL,
    health_check_id     UUID NOT NULL,
    donation_process_id UUID NOT NULL,
    blood_group_id      UUID NOT NULL REFERENCES blood_groups(id),
    donation_type       TEXT NOT NULL,
    blood_components    TEXT[] NOT NULL,
    status              TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'checked_in')),
    scheduled_at        TIMESTAMPTZ NOT NULL,
    screening           JSONB NOT NULL DEFAULT '[]',
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_donation_registrations_donor ON donation_registrations (donor_id);

CREATE TABLE IF NOT EXISTS health_checks (
    id                      UUID PRIMARY KEY,
    user_id                 UUID NOT NULL,
    blood_group_id          UUID NOT NULL REFERENCES blood_groups(id),
    donation_registration_id UUID UNIQUE,
    request_registration_id UUID,
    vitals                  JSONB NOT NULL DEFAULT '{}',
    conditions              JSONB NOT NULL DEFAULT '[]',
    status                  TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
    notes                   TEXT NOT NULL DEFAULT '',
    created_at              TIMESTAMPTZ NOT NULL,
    updated_at              TIMESTAMPTZ NOT NULL,

    CHECK (donation_registration_id IS NOT NULL OR request_registration_id IS NOT NULL)
);

CREATE TABLE IF NOT EXISTS donation_processes (
    id                       UUID PRIMARY KEY,
    donor_id                 UUID NOT NULL,
    donation_registration_id UUID NOT NULL UNIQUE,
    health_check_id          UUID NOT NULL,
    volume_collected_ml      DOUBLE PRECISION NOT NULL DEFAULT 0,
    status                   TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
    collected_at             TIMESTAMPTZ,
    description              TEXT NOT NULL DEFAULT '',
    created_at               TIMESTAMPTZ NOT NULL,
    updated_at               TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_donation_processes_donor ON donation_processes (donor_id);

CREATE TABLE IF NOT EXISTS blood_units (
    id                  UUID PRIMARY KEY,
    donation_process_id UUID NOT NULL,
    request_process_id  UUID,
    blood_group_id      UUID NOT NULL REFERENCES blood_groups(id),
    blood_component_id  UUID NOT NULL REFERENCES blood_components(id),
    status              TEXT NOT NULL CHECK (status IN ('available', 'used', 'expired', 'damaged')),
    volume_ml           DOUBLE PRECISION NOT NULL DEFAULT 0,
    expired_at          TIMESTAMPTZ,
    storage_temp_c      DOUBLE PRECISION NOT NULL DEFAULT 0,
    note                TEXT NOT NULL DEFAULT '',
    created_by          UUID NOT NULL,
    updated_by          UUID NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL,

    UNIQUE (donation_process_id, blood_component_id)
);

CREATE INDEX IF NOT EXISTS idx_blood_units_available
    ON blood_units (blood_group_id, blood_component_id) WHERE status = 'available';

CREATE TABLE IF NOT EXISTS inventory_thresholds (
    id                    UUID PRIMARY KEY,
    blood_group_id        UUID NOT NULL REFERENCES blood_groups(id),
    blood_component_id    UUID NOT NULL REFERENCES blood_components(id),
    threshold_unit_stable INTEGER NOT NULL DEFAULT 0,
    unit_count            INTEGER NOT NULL DEFAULT 0,
    total_volume_ml       DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_stable             BOOLEAN NOT NULL DEFAULT TRUE,
    updated_by            UUID NOT NULL,
    created_at            TIMESTAMPTZ NOT NULL,
    updated_at            TIMESTAMPTZ NOT NULL,

    UNIQUE (blood_group_id, blood_component_id)
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
