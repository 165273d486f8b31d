package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
)

// TemplateRepository is the persistence contract for learned templates.
// Find never creates; Upsert is an atomic whole-row replace; BumpUsage is an
// SQL-side increment so concurrent re-parses of the same template never drop
// an update.
type TemplateRepository interface {
	Find(ctx context.Context, structureHash, vendorName string) (*entity.Template, error)
	Upsert(ctx context.Context, t *entity.Template) error
	BumpUsage(ctx context.Context, templateID string) error
	GetByID(ctx context.Context, templateID string) (*entity.Template, error)
	ListAll(ctx context.Context) ([]*entity.Template, error)
}

type templateRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewTemplateRepository(db *sql.DB, log *slog.Logger) TemplateRepository {
	if log == nil {
		log = slog.Default()
	}
	return &templateRepo{db: db, log: log}
}

const templateColumns = `template_id, vendor_name, structure_hash, field_positions, item_pattern, created_at, last_used, usage_count`

// Find returns the best template matching either key, preferring the highest
// usage count and breaking ties by most recent use. Read-only.
func (r *templateRepo) Find(ctx context.Context, structureHash, vendorName string) (*entity.Template, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates
		 WHERE structure_hash = ? OR (vendor_name <> '' AND vendor_name = ?)
		 ORDER BY usage_count DESC, last_used DESC
		 LIMIT 1`,
		structureHash, vendorName)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("template find failed", "structure_hash", structureHash, "vendor", vendorName, "err", err)
		return nil, common.WrapError(err, "find template")
	}
	r.log.Debug("template matched", "template_id", t.TemplateID, "usage_count", t.UsageCount)
	return t, nil
}

func (r *templateRepo) Upsert(ctx context.Context, t *entity.Template) error {
	positions, err := json.Marshal(t.FieldPositions)
	if err != nil {
		return common.WrapError(err, "marshal field_positions")
	}
	pattern, err := json.Marshal(t.ItemPattern)
	if err != nil {
		return common.WrapError(err, "marshal item_pattern")
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(template_id) DO UPDATE SET
			vendor_name     = excluded.vendor_name,
			structure_hash  = excluded.structure_hash,
			field_positions = excluded.field_positions,
			item_pattern    = excluded.item_pattern,
			last_used       = excluded.last_used,
			usage_count     = excluded.usage_count`,
		t.TemplateID, t.VendorName, t.StructureHash, string(positions), string(pattern),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		t.LastUsed.UTC().Format(time.RFC3339Nano),
		t.UsageCount)
	if err != nil {
		r.log.Error("template upsert failed", "template_id", t.TemplateID, "err", err)
		return common.WrapError(err, "upsert template")
	}
	r.log.Info("template upserted", "template_id", t.TemplateID, "vendor", t.VendorName)
	return nil
}

// BumpUsage marks a successful reuse. The increment happens inside the
// UPDATE so it cannot be lost between concurrent requests.
func (r *templateRepo) BumpUsage(ctx context.Context, templateID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE templates SET usage_count = usage_count + 1, last_used = ? WHERE template_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), templateID)
	if err != nil {
		r.log.Error("template usage bump failed", "template_id", templateID, "err", err)
		return common.WrapError(err, "bump usage")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *templateRepo) GetByID(ctx context.Context, templateID string) (*entity.Template, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE template_id = ?`, templateID)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.log.Error("template get failed", "template_id", templateID, "err", err)
		return nil, common.WrapError(err, "get template")
	}
	return t, nil
}

func (r *templateRepo) ListAll(ctx context.Context) ([]*entity.Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM templates ORDER BY last_used DESC`)
	if err != nil {
		r.log.Error("template list failed", "err", err)
		return nil, common.WrapError(err, "list templates")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.log.Warn("template list rows close", "err", cerr)
		}
	}()

	var out []*entity.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan template")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*entity.Template, error) {
	var (
		t                  entity.Template
		positions, pattern string
		createdAt, lastUse string
	)
	if err := row.Scan(&t.TemplateID, &t.VendorName, &t.StructureHash,
		&positions, &pattern, &createdAt, &lastUse, &t.UsageCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(positions), &t.FieldPositions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pattern), &t.ItemPattern); err != nil {
		return nil, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	t.LastUsed, _ = time.Parse(time.RFC3339Nano, lastUse)
	return &t, nil
}
