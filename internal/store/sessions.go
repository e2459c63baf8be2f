package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropic/worklog/internal/ingest"
)

// SessionRow is the stored form of one session, flattened for listing.
type SessionRow struct {
	SessionID         string
	Source            string
	FilePath          string
	ProjectPath       string
	ProjectName       string
	Branch            string
	StartedAt         string
	EndedAt           string
	Date              string
	UserMessages      int
	AssistantMessages int
	InputTokens       int
	OutputTokens      int
	ToolCalls         map[string]int
	ChangedFiles      []string
	WorkType          string
	Scope             string
	FirstPrompt       string
	Summary           string
}

// SaveResult upserts one pipeline result keyed by session ID. Re-ingesting
// a file (after its content hash changed) overwrites the prior row.
func (s *Store) SaveResult(ctx context.Context, res *ingest.Result) error {
	ps := res.Session

	toolCalls, err := json.Marshal(ps.Stats.ToolCalls)
	if err != nil {
		return fmt.Errorf("marshal tool calls: %w", err)
	}
	changedFiles, err := json.Marshal(ps.ChangedFiles)
	if err != nil {
		return fmt.Errorf("marshal changed files: %w", err)
	}

	summary := ""
	if res.Summary != nil {
		summary = res.Summary.Accomplishments
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, source, file_path, project_path, project_name, branch,
			started_at, ended_at, date,
			user_messages, assistant_messages, input_tokens, output_tokens,
			tool_calls, changed_files, work_type, scope, first_prompt, summary,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			source             = excluded.source,
			file_path          = excluded.file_path,
			project_path       = excluded.project_path,
			project_name       = excluded.project_name,
			branch             = excluded.branch,
			started_at         = excluded.started_at,
			ended_at           = excluded.ended_at,
			date               = excluded.date,
			user_messages      = excluded.user_messages,
			assistant_messages = excluded.assistant_messages,
			input_tokens       = excluded.input_tokens,
			output_tokens      = excluded.output_tokens,
			tool_calls         = excluded.tool_calls,
			changed_files      = excluded.changed_files,
			work_type          = excluded.work_type,
			scope              = excluded.scope,
			first_prompt       = excluded.first_prompt,
			summary            = excluded.summary,
			updated_at         = excluded.updated_at`,
		ps.SessionID, string(ps.Source), ps.FilePath, ps.ProjectPath, ps.ProjectName, ps.Branch,
		ps.StartTime.UTC().Format(time.RFC3339), ps.EndTime.UTC().Format(time.RFC3339), ps.Date,
		ps.Stats.UserMessages, ps.Stats.AssistantMessages, ps.Stats.InputTokens, ps.Stats.OutputTokens,
		string(toolCalls), string(changedFiles), string(res.Work.Type), string(res.Work.Scope),
		ps.FirstPrompt, summary, now,
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", ps.SessionID, err)
	}
	return nil
}

// ListFilter narrows ListSessions. Zero values mean no constraint.
type ListFilter struct {
	Project string // matches project_name or project_path
	Source  string
	Date    string // YYYY-MM-DD
	Limit   int
}

// ListSessions returns stored sessions newest-first.
func (s *Store) ListSessions(ctx context.Context, f ListFilter) ([]SessionRow, error) {
	query := `SELECT session_id, source, file_path, project_path, project_name, branch,
		started_at, ended_at, date,
		user_messages, assistant_messages, input_tokens, output_tokens,
		tool_calls, changed_files, work_type, scope, first_prompt, summary
		FROM sessions WHERE 1=1`
	var args []any

	if f.Project != "" {
		query += " AND (project_name = ? OR project_path = ?)"
		args = append(args, f.Project, f.Project)
	}
	if f.Source != "" {
		query += " AND source = ?"
		args = append(args, f.Source)
	}
	if f.Date != "" {
		query += " AND date = ?"
		args = append(args, f.Date)
	}
	query += " ORDER BY started_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var toolCalls, changedFiles string
		err := rows.Scan(
			&r.SessionID, &r.Source, &r.FilePath, &r.ProjectPath, &r.ProjectName, &r.Branch,
			&r.StartedAt, &r.EndedAt, &r.Date,
			&r.UserMessages, &r.AssistantMessages, &r.InputTokens, &r.OutputTokens,
			&toolCalls, &changedFiles, &r.WorkType, &r.Scope, &r.FirstPrompt, &r.Summary,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(toolCalls), &r.ToolCalls); err != nil {
			r.ToolCalls = nil
		}
		if err := json.Unmarshal([]byte(changedFiles), &r.ChangedFiles); err != nil {
			r.ChangedFiles = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSession returns one session by ID, or sql.ErrNoRows.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*SessionRow, error) {
	var r SessionRow
	var toolCalls, changedFiles string
	err := s.db.QueryRowContext(ctx, `SELECT session_id, source, file_path, project_path, project_name, branch,
		started_at, ended_at, date,
		user_messages, assistant_messages, input_tokens, output_tokens,
		tool_calls, changed_files, work_type, scope, first_prompt, summary
		FROM sessions WHERE session_id = ?`, sessionID).Scan(
		&r.SessionID, &r.Source, &r.FilePath, &r.ProjectPath, &r.ProjectName, &r.Branch,
		&r.StartedAt, &r.EndedAt, &r.Date,
		&r.UserMessages, &r.AssistantMessages, &r.InputTokens, &r.OutputTokens,
		&toolCalls, &changedFiles, &r.WorkType, &r.Scope, &r.FirstPrompt, &r.Summary,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(toolCalls), &r.ToolCalls)
	_ = json.Unmarshal([]byte(changedFiles), &r.ChangedFiles)
	return &r, nil
}

// RecordRun stores one pipeline run's report.
func (s *Store) RecordRun(ctx context.Context, rep *ingest.Report, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (run_id, started_at, processed, skipped, failed)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			processed = excluded.processed,
			skipped   = excluded.skipped,
			failed    = excluded.failed`,
		rep.RunID, startedAt.UTC().Format(time.RFC3339), rep.Processed, rep.Skipped, rep.Failed,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rep.RunID, err)
	}
	return nil
}

// LastRun returns the most recent run report, or nil when none exist.
func (s *Store) LastRun(ctx context.Context) (*ingest.Report, string, error) {
	var rep ingest.Report
	var startedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, processed, skipped, failed
		 FROM ingest_runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	).Scan(&rep.RunID, &startedAt, &rep.Processed, &rep.Skipped, &rep.Failed)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &rep, startedAt, nil
}
