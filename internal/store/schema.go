package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id             INTEGER PRIMARY KEY AUTOINCREMENT,
    label              TEXT,
    positions_file     TEXT NOT NULL,
    budgets_file       TEXT NOT NULL,
    total_budget       TEXT NOT NULL,
    total_predicted    TEXT NOT NULL,
    total_variance     TEXT NOT NULL,
    program_count      INTEGER NOT NULL,
    created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_programs (
    run_id             INTEGER NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    department         TEXT NOT NULL,
    division           TEXT NOT NULL,
    position_count     INTEGER NOT NULL,
    role_counts        TEXT NOT NULL,
    allocated_budget   TEXT NOT NULL,
    predicted_cost     TEXT NOT NULL,
    variance           TEXT NOT NULL,
    estimation_basis   TEXT NOT NULL,
    PRIMARY KEY (run_id, department, division)
);

CREATE TABLE IF NOT EXISTS run_recommendations (
    run_id             INTEGER NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    department         TEXT NOT NULL,
    division           TEXT NOT NULL,
    action             TEXT NOT NULL,
    delta_amount       TEXT NOT NULL,
    rationale          TEXT NOT NULL,
    confidence         REAL NOT NULL,
    PRIMARY KEY (run_id, department, division)
);

CREATE TABLE IF NOT EXISTS run_notes (
    run_id             INTEGER NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    seq                INTEGER NOT NULL,
    kind               TEXT NOT NULL,
    code               TEXT,
    message            TEXT NOT NULL,
    PRIMARY KEY (run_id, kind, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
