package database

// Schema returns the full ordered migration set for the workflow core.
func Schema() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_applications",
			SQL: `
				CREATE TABLE applications (
					id TEXT PRIMARY KEY,
					app_type TEXT NOT NULL,
					stage_index INTEGER NOT NULL DEFAULT 0,
					sub_state TEXT NOT NULL DEFAULT 'NORMAL',
					outcome TEXT NOT NULL DEFAULT 'NONE',
					submitter_id TEXT NOT NULL,
					assignee_id TEXT NOT NULL DEFAULT '',
					payment_confirmed INTEGER NOT NULL DEFAULT 0,
					documents_verified INTEGER NOT NULL DEFAULT 0,
					stage_entered_at DATETIME NOT NULL,
					version INTEGER NOT NULL DEFAULT 1,
					submitted_at DATETIME NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE INDEX idx_applications_outcome ON applications(outcome);
				CREATE INDEX idx_applications_type ON applications(app_type);
			`,
		},
		{
			Version: 2,
			Name:    "create_audit_entries",
			SQL: `
				CREATE TABLE audit_entries (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					application_id TEXT NOT NULL,
					prior_stage INTEGER NOT NULL,
					new_stage INTEGER NOT NULL,
					prior_sub_state TEXT NOT NULL,
					new_sub_state TEXT NOT NULL,
					outcome TEXT NOT NULL,
					actor_id TEXT NOT NULL,
					actor_role TEXT NOT NULL,
					action TEXT NOT NULL,
					reason TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					FOREIGN KEY (application_id) REFERENCES applications(id)
				);
				CREATE INDEX idx_audit_entries_application ON audit_entries(application_id);
			`,
		},
		{
			Version: 3,
			Name:    "create_notifications",
			SQL: `
				CREATE TABLE notifications (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					application_id TEXT NOT NULL,
					target_role TEXT NOT NULL DEFAULT '',
					target_actor_id TEXT NOT NULL DEFAULT '',
					template_key TEXT NOT NULL,
					read INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (application_id) REFERENCES applications(id)
				);
				CREATE INDEX idx_notifications_role ON notifications(target_role);
				CREATE INDEX idx_notifications_actor ON notifications(target_actor_id);
			`,
		},
		{
			Version: 4,
			Name:    "create_confirmations",
			SQL: `
				CREATE TABLE payment_confirmations (
					application_id TEXT PRIMARY KEY,
					confirmed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
				CREATE TABLE document_verifications (
					application_id TEXT PRIMARY KEY,
					verified_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
	}
}
