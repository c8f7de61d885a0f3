package store

// Rows are keyed by file path: two rollouts may share a stem-derived id
// when their names carry no UUID.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    path                 TEXT PRIMARY KEY,
    session_id           TEXT NOT NULL,
    cwd                  TEXT,
    preview              TEXT,
    started_at           TEXT,
    lines                INTEGER NOT NULL DEFAULT 0,
    mtime_ns             INTEGER NOT NULL,
    size                 INTEGER NOT NULL,
    indexed_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_id ON sessions(session_id);
CREATE INDEX IF NOT EXISTS idx_sessions_cwd ON sessions(cwd);
`
