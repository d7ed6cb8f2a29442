// Package repositories implements the domain repositories on PostgreSQL.
package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// queryExecutor abstracts *pgxpool.Pool and pgx.Tx.
type queryExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner abstracts pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

const classificationColumns = `id, request_id, source, sentence, multiplicity, composition, calcified,
	raw_measurement_text, unit, measurements, size_mm, category, recommendation, created_at`

type postgresClassificationRepo struct {
	executor queryExecutor
	log      logging.Logger
	metrics  *prometheus.AppMetrics
}

// NewPostgresClassificationRepo returns a ClassificationRepository over db,
// which is usually a *pgxpool.Pool.  metrics may be nil.
func NewPostgresClassificationRepo(db queryExecutor, log logging.Logger, metrics *prometheus.AppMetrics) followup.ClassificationRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresClassificationRepo{executor: db, log: log, metrics: metrics}
}

func (r *postgresClassificationRepo) Save(ctx context.Context, rec *followup.ClassificationRecord) (err error) {
	start := time.Now()
	defer func() { prometheus.RecordDBQuery(r.metrics, "classification_save", time.Since(start), err) }()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	res := rec.Result
	measurements := res.Descriptor.MeasurementValues()
	if measurements == nil {
		measurements = []float64{}
	}

	query := `
		INSERT INTO nodule_classifications (
			id, request_id, source, sentence, multiplicity, composition, calcified,
			raw_measurement_text, unit, measurements, size_mm, category, recommendation
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`

	err = r.executor.QueryRow(ctx, query,
		rec.ID, rec.RequestID, rec.Source, rec.Sentence,
		string(res.Descriptor.Multiplicity), string(res.Descriptor.Composition), res.Descriptor.Calcified,
		res.Descriptor.RawMeasurementText, string(res.Descriptor.Unit), measurements,
		res.SizeMM, int(res.Category), res.Recommendation,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.Wrap(err, errors.ErrCodeConflict, "classification record already exists").WithDetail(rec.ID.String())
		}
		r.log.Error("failed to save classification", logging.String("id", rec.ID.String()), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to save classification")
	}
	return nil
}

func (r *postgresClassificationRepo) FindByID(ctx context.Context, id uuid.UUID) (rec *followup.ClassificationRecord, err error) {
	start := time.Now()
	defer func() {
		if errors.IsNotFound(err) {
			prometheus.RecordDBQuery(r.metrics, "classification_find", time.Since(start), nil)
			return
		}
		prometheus.RecordDBQuery(r.metrics, "classification_find", time.Since(start), err)
	}()

	query := `SELECT ` + classificationColumns + ` FROM nodule_classifications WHERE id = $1`
	rec, err = scanClassification(r.executor.QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("classification").WithDetail(id.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to load classification")
	}
	return rec, nil
}

func (r *postgresClassificationRepo) ListRecent(ctx context.Context, limit int) (recs []*followup.ClassificationRecord, err error) {
	start := time.Now()
	defer func() { prometheus.RecordDBQuery(r.metrics, "classification_list", time.Since(start), err) }()

	query := `SELECT ` + classificationColumns + ` FROM nodule_classifications ORDER BY created_at DESC LIMIT $1`
	rows, err := r.executor.Query(ctx, query, followup.ClampListLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to list classifications")
	}
	defer rows.Close()

	recs = make([]*followup.ClassificationRecord, 0)
	for rows.Next() {
		rec, err := scanClassification(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to scan classification")
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to iterate classifications")
	}
	return recs, nil
}

func scanClassification(row scanner) (*followup.ClassificationRecord, error) {
	var (
		rec          followup.ClassificationRecord
		multiplicity string
		composition  string
		unit         string
		category     int
	)
	d := &rec.Result.Descriptor
	err := row.Scan(
		&rec.ID, &rec.RequestID, &rec.Source, &rec.Sentence,
		&multiplicity, &composition, &d.Calcified,
		&d.RawMeasurementText, &unit, &d.Measurements,
		&rec.Result.SizeMM, &category, &rec.Result.Recommendation, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Multiplicity = nodule.Multiplicity(multiplicity)
	d.Composition = nodule.Composition(composition)
	d.Unit = nodule.Unit(unit)
	rec.Result.Category = nodule.Category(category)
	return &rec, nil
}

//Personal.AI order the ending
