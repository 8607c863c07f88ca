package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	avatar     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	archived    INTEGER NOT NULL DEFAULT 0 CHECK(archived IN (0, 1)),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS project_members (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'member' CHECK(role IN ('owner', 'member')),
	joined_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'in_progress', 'done')),
	assignee_id TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	kind          TEXT NOT NULL,
	message       TEXT NOT NULL,
	read          INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	sender_name   TEXT NOT NULL DEFAULT '',
	sender_avatar TEXT NOT NULL DEFAULT '',
	project_id    TEXT NOT NULL DEFAULT '',
	project_name  TEXT NOT NULL DEFAULT '',
	task_id       TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS invitations (
	id                TEXT PRIMARY KEY,
	project_id        TEXT NOT NULL,
	project_name      TEXT NOT NULL DEFAULT '',
	inviter_name      TEXT NOT NULL DEFAULT '',
	inviter_avatar    TEXT NOT NULL DEFAULT '',
	recipient_email   TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'accepted', 'declined')),
	source_message_id TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_read
	ON notifications(user_id, read, created_at);
CREATE INDEX IF NOT EXISTS idx_invitations_recipient_status
	ON invitations(recipient_email, status);
CREATE INDEX IF NOT EXISTS idx_invitations_message_id
	ON invitations(source_message_id);
CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_members_user_id ON project_members(user_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
