// Package store provides a SQLite-backed history of analysis runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pbb/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

// History stores completed analysis runs for later listing and replay.
type History struct {
	db *sql.DB
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// RunMeta describes one stored run without its full detail.
type RunMeta struct {
	ID            int64
	Label         string
	PositionsFile string
	BudgetsFile   string
	Summary       model.Summary
	CreatedAt     time.Time
}

// SaveRun stores a completed analysis with its input provenance and
// returns the new run ID.
func (h *History) SaveRun(label, positionsFile, budgetsFile string, res *model.AnalysisResult) (int64, error) {
	tx, err := h.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	created := res.CreatedAt.UTC().Format(time.RFC3339)
	row, err := tx.Exec(`INSERT INTO runs
		(label, positions_file, budgets_file, total_budget, total_predicted,
		 total_variance, program_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		label, positionsFile, budgetsFile,
		res.Summary.TotalBudget.String(), res.Summary.TotalPredictedCost.String(),
		res.Summary.TotalVariance.String(), res.Summary.ProgramCount, created,
	)
	if err != nil {
		return 0, err
	}
	runID, err := row.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range res.Programs {
		roles, err := json.Marshal(p.RoleCounts)
		if err != nil {
			return 0, err
		}
		_, err = tx.Exec(`INSERT INTO run_programs
			(run_id, department, division, position_count, role_counts,
			 allocated_budget, predicted_cost, variance, estimation_basis)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, p.Key.Department, p.Key.Division, p.PositionCount, string(roles),
			p.AllocatedBudget.String(), p.PredictedCost.String(),
			p.Variance.String(), string(p.EstimationBasis),
		)
		if err != nil {
			return 0, err
		}
	}

	for _, r := range res.Recommendations {
		_, err = tx.Exec(`INSERT INTO run_recommendations
			(run_id, department, division, action, delta_amount, rationale, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, r.ProgramKey.Department, r.ProgramKey.Division,
			string(r.Action), r.DeltaAmount.String(), r.Rationale, r.Confidence,
		)
		if err != nil {
			return 0, err
		}
	}

	for i, w := range res.Warnings {
		_, err = tx.Exec(`INSERT INTO run_notes (run_id, seq, kind, code, message)
			VALUES (?, ?, 'warning', ?, ?)`, runID, i, string(w.Code), w.Message)
		if err != nil {
			return 0, err
		}
	}
	for i, d := range res.Diagnostics {
		_, err = tx.Exec(`INSERT INTO run_notes (run_id, seq, kind, code, message)
			VALUES (?, ?, 'diagnostic', NULL, ?)`, runID, i, d)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns run metadata, newest first.
func (h *History) ListRuns() ([]RunMeta, error) {
	rows, err := h.db.Query(`SELECT
		run_id, label, positions_file, budgets_file,
		total_budget, total_predicted, total_variance, program_count, created_at
		FROM runs ORDER BY created_at DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metas []RunMeta
	for rows.Next() {
		m, err := scanRunMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunMeta(row rowScanner) (RunMeta, error) {
	var m RunMeta
	var label sql.NullString
	var budgetStr, predictedStr, varianceStr, createdStr string

	err := row.Scan(&m.ID, &label, &m.PositionsFile, &m.BudgetsFile,
		&budgetStr, &predictedStr, &varianceStr, &m.Summary.ProgramCount, &createdStr)
	if err != nil {
		return RunMeta{}, err
	}

	if label.Valid {
		m.Label = label.String
	}
	if m.Summary.TotalBudget, err = decimal.NewFromString(budgetStr); err != nil {
		return RunMeta{}, fmt.Errorf("run %d: bad total_budget: %w", m.ID, err)
	}
	if m.Summary.TotalPredictedCost, err = decimal.NewFromString(predictedStr); err != nil {
		return RunMeta{}, fmt.Errorf("run %d: bad total_predicted: %w", m.ID, err)
	}
	if m.Summary.TotalVariance, err = decimal.NewFromString(varianceStr); err != nil {
		return RunMeta{}, fmt.Errorf("run %d: bad total_variance: %w", m.ID, err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return RunMeta{}, fmt.Errorf("run %d: bad created_at: %w", m.ID, err)
	}
	return m, nil
}

// LoadRun reads one stored run back into a full AnalysisResult.
func (h *History) LoadRun(runID int64) (*model.AnalysisResult, RunMeta, error) {
	meta, err := scanRunMeta(h.db.QueryRow(`SELECT
		run_id, label, positions_file, budgets_file,
		total_budget, total_predicted, total_variance, program_count, created_at
		FROM runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, RunMeta{}, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, RunMeta{}, err
	}

	res := &model.AnalysisResult{
		Summary:   meta.Summary,
		CreatedAt: meta.CreatedAt,
	}

	progRows, err := h.db.Query(`SELECT
		department, division, position_count, role_counts,
		allocated_budget, predicted_cost, variance, estimation_basis
		FROM run_programs WHERE run_id = ? ORDER BY department, division`, runID)
	if err != nil {
		return nil, RunMeta{}, err
	}
	defer func() { _ = progRows.Close() }()

	for progRows.Next() {
		var p model.Program
		var roles, alloc, pred, variance, basis string
		err := progRows.Scan(&p.Key.Department, &p.Key.Division, &p.PositionCount,
			&roles, &alloc, &pred, &variance, &basis)
		if err != nil {
			return nil, RunMeta{}, err
		}
		if err := json.Unmarshal([]byte(roles), &p.RoleCounts); err != nil {
			return nil, RunMeta{}, fmt.Errorf("run %d: bad role_counts: %w", runID, err)
		}
		if p.AllocatedBudget, err = decimal.NewFromString(alloc); err != nil {
			return nil, RunMeta{}, err
		}
		if p.PredictedCost, err = decimal.NewFromString(pred); err != nil {
			return nil, RunMeta{}, err
		}
		if p.Variance, err = decimal.NewFromString(variance); err != nil {
			return nil, RunMeta{}, err
		}
		p.EstimationBasis = model.EstimationBasis(basis)
		res.Programs = append(res.Programs, p)
	}
	if err := progRows.Err(); err != nil {
		return nil, RunMeta{}, err
	}

	recRows, err := h.db.Query(`SELECT
		department, division, action, delta_amount, rationale, confidence
		FROM run_recommendations WHERE run_id = ? ORDER BY department, division`, runID)
	if err != nil {
		return nil, RunMeta{}, err
	}
	defer func() { _ = recRows.Close() }()

	for recRows.Next() {
		var r model.Recommendation
		var action, delta string
		err := recRows.Scan(&r.ProgramKey.Department, &r.ProgramKey.Division,
			&action, &delta, &r.Rationale, &r.Confidence)
		if err != nil {
			return nil, RunMeta{}, err
		}
		r.Action = model.Action(action)
		if r.DeltaAmount, err = decimal.NewFromString(delta); err != nil {
			return nil, RunMeta{}, err
		}
		res.Recommendations = append(res.Recommendations, r)
	}
	if err := recRows.Err(); err != nil {
		return nil, RunMeta{}, err
	}

	noteRows, err := h.db.Query(`SELECT kind, code, message
		FROM run_notes WHERE run_id = ? ORDER BY kind, seq`, runID)
	if err != nil {
		return nil, RunMeta{}, err
	}
	defer func() { _ = noteRows.Close() }()

	for noteRows.Next() {
		var kind, message string
		var code sql.NullString
		if err := noteRows.Scan(&kind, &code, &message); err != nil {
			return nil, RunMeta{}, err
		}
		switch kind {
		case "warning":
			res.Warnings = append(res.Warnings, model.Warning{
				Code:    model.WarningCode(code.String),
				Message: message,
			})
		case "diagnostic":
			res.Diagnostics = append(res.Diagnostics, message)
		}
	}
	if err := noteRows.Err(); err != nil {
		return nil, RunMeta{}, err
	}

	return res, meta, nil
}

// DeleteRun removes a run and its associated detail rows.
func (h *History) DeleteRun(runID int64) error {
	_, err := h.db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	return err
}

// RunCount returns the number of stored runs.
func (h *History) RunCount() (int, error) {
	var count int
	err := h.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}
