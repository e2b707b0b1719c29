package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/propscrub/internal/billing"
	db "github.com/JonMunkholm/propscrub/internal/database"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template already exists")
)

// Store persists templates, run history and balances.
type Store interface {
	CreateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error)
	GetTemplate(ctx context.Context, id string) (*MappingTemplate, error)
	ListTemplates(ctx context.Context) ([]MappingTemplate, error)
	UpdateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error

	InsertRun(ctx context.Context, r RunRecord) (*RunRecord, error)
	ListRuns(ctx context.Context, account string, limit int) ([]RunRecord, error)
	PurgeRuns(ctx context.Context, olderThanDays int) (int64, error)

	// GetBalance returns the account balance, creating it with start if new.
	GetBalance(ctx context.Context, account string, start billing.Balance) (billing.Balance, error)
	// AdjustBalance applies fn to the current balance atomically. An error
	// from fn leaves the balance unchanged.
	AdjustBalance(ctx context.Context, account string, start billing.Balance, fn func(billing.Balance) (billing.Balance, error)) (billing.Balance, error)
	// Purchase credits a bundle and records the purchase.
	Purchase(ctx context.Context, account string, start billing.Balance, opt billing.PurchaseOption) (billing.Balance, error)
}

// PostgresStore is the Store backed by the sqlc queries.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error) {
	mappingJSON, headersJSON, err := marshalTemplate(t)
	if err != nil {
		return nil, err
	}

	result, err := db.New(s.pool).CreateMappingTemplate(ctx, db.CreateMappingTemplateParams{
		Name:          t.Name,
		Phones:        int32(t.Phones),
		Emails:        int32(t.Emails),
		CrmFields:     t.CRMFields,
		ColumnMapping: mappingJSON,
		CsvHeaders:    headersJSON,
	})
	if err != nil {
		if strings.Contains(err.Error(), "mapping_templates_name_unique") {
			return nil, fmt.Errorf("%q: %w", t.Name, ErrTemplateExists)
		}
		return nil, fmt.Errorf("create template: %w", err)
	}
	return dbTemplateToTemplate(result)
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*MappingTemplate, error) {
	pgID, err := parseUUID(id)
	if err != nil {
		return nil, err
	}
	result, err := db.New(s.pool).GetMappingTemplate(ctx, pgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return dbTemplateToTemplate(result)
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]MappingTemplate, error) {
	results, err := db.New(s.pool).ListMappingTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	templates := make([]MappingTemplate, 0, len(results))
	for _, r := range results {
		t, err := dbTemplateToTemplate(r)
		if err != nil {
			continue // Skip rows with unreadable JSON
		}
		templates = append(templates, *t)
	}
	return templates, nil
}

func (s *PostgresStore) UpdateTemplate(ctx context.Context, t MappingTemplate) (*MappingTemplate, error) {
	pgID, err := parseUUID(t.ID)
	if err != nil {
		return nil, err
	}
	mappingJSON, headersJSON, err := marshalTemplate(t)
	if err != nil {
		return nil, err
	}

	result, err := db.New(s.pool).UpdateMappingTemplate(ctx, db.UpdateMappingTemplateParams{
		ID:            pgID,
		Name:          t.Name,
		Phones:        int32(t.Phones),
		Emails:        int32(t.Emails),
		CrmFields:     t.CRMFields,
		ColumnMapping: mappingJSON,
		CsvHeaders:    headersJSON,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		if strings.Contains(err.Error(), "mapping_templates_name_unique") {
			return nil, fmt.Errorf("%q: %w", t.Name, ErrTemplateExists)
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	return dbTemplateToTemplate(result)
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, id string) error {
	pgID, err := parseUUID(id)
	if err != nil {
		return err
	}
	n, err := db.New(s.pool).DeleteMappingTemplate(ctx, pgID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *PostgresStore) InsertRun(ctx context.Context, r RunRecord) (*RunRecord, error) {
	row, err := db.New(s.pool).InsertScrubRun(ctx, db.InsertScrubRunParams{
		SessionID:     r.SessionID,
		Account:       r.Account,
		FileName:      r.FileName,
		Tier:          string(r.Tier),
		Status:        string(r.Status),
		TotalRows:     clampInt32(r.TotalRows),
		KeptRows:      clampInt32(r.KeptRows),
		Duplicates:    clampInt32(r.Duplicates),
		MissingPhones: clampInt32(r.MissingPhones),
		InvalidEmails: clampInt32(r.InvalidEmails),
		InvalidPhones: clampInt32(r.InvalidPhones),
		PhoneLookups:  clampInt32(r.PhoneLookups),
		CostBubbles:   clampInt32(r.CostBubbles),
		Error:         pgtype.Text{String: r.Error, Valid: r.Error != ""},
		StartedAt:     pgtype.Timestamptz{Time: r.StartedAt, Valid: true},
		FinishedAt:    pgtype.Timestamptz{Time: r.FinishedAt, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("insert scrub run: %w", err)
	}
	out := dbRunToRecord(row)
	return &out, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, account string, limit int) ([]RunRecord, error) {
	rows, err := db.New(s.pool).ListScrubRuns(ctx, db.ListScrubRunsParams{
		Account: account,
		Limit:   clampInt32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list scrub runs: %w", err)
	}
	out := make([]RunRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, dbRunToRecord(r))
	}
	return out, nil
}

func (s *PostgresStore) PurgeRuns(ctx context.Context, olderThanDays int) (int64, error) {
	return db.New(s.pool).PurgeScrubRuns(ctx, clampInt32(olderThanDays))
}

func (s *PostgresStore) GetBalance(ctx context.Context, account string, start billing.Balance) (billing.Balance, error) {
	q := db.New(s.pool)
	if err := q.EnsureBalance(ctx, ensureParams(account, start)); err != nil {
		return billing.Balance{}, fmt.Errorf("ensure balance: %w", err)
	}
	row, err := q.GetBalance(ctx, account)
	if err != nil {
		return billing.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return billing.Balance{Bubbles: int(row.Bubbles), BarsOfSoap: int(row.BarsOfSoap)}, nil
}

func (s *PostgresStore) AdjustBalance(ctx context.Context, account string, start billing.Balance, fn func(billing.Balance) (billing.Balance, error)) (billing.Balance, error) {
	var out billing.Balance
	err := s.inTx(ctx, func(q *db.Queries) error {
		var err error
		out, err = adjustLocked(ctx, q, account, start, fn)
		return err
	})
	return out, err
}

func (s *PostgresStore) Purchase(ctx context.Context, account string, start billing.Balance, opt billing.PurchaseOption) (billing.Balance, error) {
	var out billing.Balance
	err := s.inTx(ctx, func(q *db.Queries) error {
		var err error
		out, err = adjustLocked(ctx, q, account, start, func(b billing.Balance) (billing.Balance, error) {
			return b.Credit(opt), nil
		})
		if err != nil {
			return err
		}
		_, err = q.InsertPurchase(ctx, db.InsertPurchaseParams{
			Account:    account,
			OptionID:   opt.ID,
			Bubbles:    int32(opt.Bubbles),
			BarsOfSoap: int32(opt.BarsOfSoap),
			PriceCents: int32(math.Round(opt.PriceUSD * 100)),
		})
		return err
	})
	return out, err
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(q *db.Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(db.New(s.pool).WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func adjustLocked(ctx context.Context, q *db.Queries, account string, start billing.Balance, fn func(billing.Balance) (billing.Balance, error)) (billing.Balance, error) {
	if err := q.EnsureBalance(ctx, ensureParams(account, start)); err != nil {
		return billing.Balance{}, fmt.Errorf("ensure balance: %w", err)
	}
	row, err := q.GetBalanceForUpdate(ctx, account)
	if err != nil {
		return billing.Balance{}, fmt.Errorf("lock balance: %w", err)
	}
	next, err := fn(billing.Balance{Bubbles: int(row.Bubbles), BarsOfSoap: int(row.BarsOfSoap)})
	if err != nil {
		return billing.Balance{}, err
	}
	updated, err := q.SetBalance(ctx, db.SetBalanceParams{
		Account:    account,
		Bubbles:    int32(next.Bubbles),
		BarsOfSoap: int32(next.BarsOfSoap),
	})
	if err != nil {
		return billing.Balance{}, fmt.Errorf("set balance: %w", err)
	}
	return billing.Balance{Bubbles: int(updated.Bubbles), BarsOfSoap: int(updated.BarsOfSoap)}, nil
}

func ensureParams(account string, start billing.Balance) db.EnsureBalanceParams {
	return db.EnsureBalanceParams{
		Account:    account,
		Bubbles:    int32(start.Bubbles),
		BarsOfSoap: int32(start.BarsOfSoap),
	}
}

func marshalTemplate(t MappingTemplate) ([]byte, []byte, error) {
	mappingJSON, err := json.Marshal(t.Mapping)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal mapping: %w", err)
	}
	headers := t.CSVHeaders
	if headers == nil {
		headers = []string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal headers: %w", err)
	}
	return mappingJSON, headersJSON, nil
}

// dbTemplateToTemplate converts a database template to our API type.
func dbTemplateToTemplate(t db.MappingTemplate) (*MappingTemplate, error) {
	var mapping scrub.Mapping
	if err := json.Unmarshal(t.ColumnMapping, &mapping); err != nil {
		return nil, fmt.Errorf("unmarshal mapping: %w", err)
	}

	var headers []string
	if err := json.Unmarshal(t.CsvHeaders, &headers); err != nil {
		return nil, fmt.Errorf("unmarshal headers: %w", err)
	}

	return &MappingTemplate{
		ID:         uuidString(t.ID),
		Name:       t.Name,
		Phones:     int(t.Phones),
		Emails:     int(t.Emails),
		CRMFields:  t.CrmFields,
		Mapping:    mapping,
		CSVHeaders: headers,
		CreatedAt:  timeOf(t.CreatedAt),
		UpdatedAt:  timeOf(t.UpdatedAt),
	}, nil
}

func dbRunToRecord(r db.ScrubRun) RunRecord {
	return RunRecord{
		ID:            uuidString(r.ID),
		SessionID:     r.SessionID,
		Account:       r.Account,
		FileName:      r.FileName,
		Tier:          scrub.Tier(r.Tier),
		Status:        Phase(r.Status),
		TotalRows:     int(r.TotalRows),
		KeptRows:      int(r.KeptRows),
		Duplicates:    int(r.Duplicates),
		MissingPhones: int(r.MissingPhones),
		InvalidEmails: int(r.InvalidEmails),
		InvalidPhones: int(r.InvalidPhones),
		PhoneLookups:  int(r.PhoneLookups),
		CostBubbles:   int(r.CostBubbles),
		Error:         r.Error.String,
		StartedAt:     timeOf(r.StartedAt),
		FinishedAt:    timeOf(r.FinishedAt),
	}
}

func parseUUID(id string) (pgtype.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid template ID: %w", ErrTemplateNotFound)
	}
	return pgtype.UUID{Bytes: uid, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func timeOf(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

func clampInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int32(n)
}
