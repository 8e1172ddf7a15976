package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omaromran/allai-sms-webhook/internal/issue"
	"github.com/omaromran/allai-sms-webhook/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const issueColumns = `id, public_id, phone, category, cluster, urgency, escalated, status,
	follow_ups, message_log, media_submitted, media_urls, ai_diagnosis, created_at, updated_at`

func (s *Store) FindOpenIssue(ctx context.Context, phone string) (*models.Issue, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE phone = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`, phone, models.StatusOpen, models.StatusEscalated)

	iss, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &iss, nil
}

func (s *Store) FindIssueByPublicID(ctx context.Context, publicID string) (*models.Issue, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE public_id = $1
	`, publicID)

	iss, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &iss, nil
}

func (s *Store) CreateIssue(ctx context.Context, in models.Issue) (models.Issue, error) {
	in.ID = uuid.NewString()
	now := time.Now().UTC()
	in.CreatedAt = now
	in.UpdatedAt = now
	if in.FollowUps == nil {
		in.FollowUps = []string{}
	}
	if in.MessageLog == nil {
		in.MessageLog = []string{}
	}
	if in.MediaURLs == nil {
		in.MediaURLs = []string{}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO issues (id, public_id, phone, category, cluster, urgency, escalated, status,
			follow_ups, message_log, media_submitted, media_urls, ai_diagnosis, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, in.ID, in.PublicID, in.Phone, in.Category, in.Cluster, in.Urgency, in.Escalated, in.Status,
		in.FollowUps, in.MessageLog, in.MediaSubmitted, in.MediaURLs, in.AIDiagnosis, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Issue{}, issue.ErrDuplicateIssueID
		}
		return models.Issue{}, err
	}
	return in, nil
}

func (s *Store) AppendMessage(ctx context.Context, id string, message string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE issues SET message_log = array_append(message_log, $1), updated_at = NOW() WHERE id = $2
	`, message, id)
	return err
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status string, escalated bool) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE issues SET status = $1, escalated = $2, updated_at = NOW() WHERE id = $3
	`, status, escalated, id)
	return err
}

func (s *Store) SetMediaSubmitted(ctx context.Context, id string, urls []string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE issues SET media_submitted = TRUE, media_urls = $1, updated_at = NOW() WHERE id = $2
	`, urls, id)
	return err
}

func (s *Store) SetAIDiagnosis(ctx context.Context, id string, diagnosis string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE issues SET ai_diagnosis = $1, updated_at = NOW() WHERE id = $2
	`, diagnosis, id)
	return err
}

// TenantUnit resolves the unit label for a phone number. Unknown callers get
// "Unknown" rather than an error so escalation notifications still go out.
func (s *Store) TenantUnit(ctx context.Context, phone string) (string, error) {
	var unit string
	err := s.Pool.QueryRow(ctx, `SELECT unit FROM tenants WHERE phone = $1`, phone).Scan(&unit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "Unknown", nil
		}
		return "", err
	}
	return unit, nil
}

func (s *Store) ListIssues(ctx context.Context, status, phone, category, q string, limit, offset int) ([]models.Issue, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	var args []any
	var wheres []string
	if status != "" {
		args = append(args, status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if phone != "" {
		args = append(args, phone)
		wheres = append(wheres, fmt.Sprintf("phone = $%d", len(args)))
	}
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(public_id ILIKE $%d OR array_to_string(message_log, ' ') ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Issue
	for rows.Next() {
		iss, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iss)
	}
	return out, rows.Err()
}

func scanIssue(row pgx.Row) (models.Issue, error) {
	var iss models.Issue
	err := row.Scan(
		&iss.ID, &iss.PublicID, &iss.Phone, &iss.Category, &iss.Cluster, &iss.Urgency,
		&iss.Escalated, &iss.Status, &iss.FollowUps, &iss.MessageLog,
		&iss.MediaSubmitted, &iss.MediaURLs, &iss.AIDiagnosis, &iss.CreatedAt, &iss.UpdatedAt,
	)
	return iss, err
}
