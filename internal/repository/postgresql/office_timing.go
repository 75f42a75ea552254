package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-core-go/internal/domain/timing"
	"github.com/cmlabs-hris/attendance-core-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type officeTimingRepositoryImpl struct {
	db *database.DB
}

func NewOfficeTimingRepository(db *database.DB) timing.PolicyRepository {
	return &officeTimingRepositoryImpl{db: db}
}

const officeTimingColumns = `
	id, department, start_time, end_time, check_in_grace_minutes,
	check_out_grace_minutes, is_active, utc_offset_minutes, created_at, updated_at`

func scanOfficeTiming(row pgx.Row) (timing.OfficeTimingPolicy, error) {
	var (
		p          timing.OfficeTimingPolicy
		start, end pgtype.Time
		offset     int32
	)
	err := row.Scan(
		&p.ID, &p.Department, &start, &end, &p.CheckInGraceMinutes,
		&p.CheckOutGraceMinutes, &p.IsActive, &offset, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return timing.OfficeTimingPolicy{}, err
	}
	p.StartTime = clockFromTime(start)
	p.EndTime = clockFromTime(end)
	p.Offset = timing.UTCOffset(offset)
	return p, nil
}

func clockFromTime(t pgtype.Time) timing.ClockTime {
	return timing.ClockTime(time.Duration(t.Microseconds) * time.Microsecond / time.Minute)
}

func timeFromClock(c timing.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

func (r *officeTimingRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (timing.OfficeTimingPolicy, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanOfficeTiming(q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return timing.OfficeTimingPolicy{}, timing.ErrPolicyNotFound
	}
	if err != nil {
		return timing.OfficeTimingPolicy{}, fmt.Errorf("failed to get office timing: %w", err)
	}
	return p, nil
}

// GetActiveByDepartment implements timing.PolicyRepository.
func (r *officeTimingRepositoryImpl) GetActiveByDepartment(ctx context.Context, department string) (timing.OfficeTimingPolicy, error) {
	query := `SELECT` + officeTimingColumns + `
		FROM office_timings
		WHERE department = $1 AND is_active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1`
	return r.getOne(ctx, query, department)
}

// GetActiveGlobal implements timing.PolicyRepository.
func (r *officeTimingRepositoryImpl) GetActiveGlobal(ctx context.Context) (timing.OfficeTimingPolicy, error) {
	query := `SELECT` + officeTimingColumns + `
		FROM office_timings
		WHERE department IS NULL AND is_active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1`
	return r.getOne(ctx, query)
}

// GetByID implements timing.PolicyRepository.
func (r *officeTimingRepositoryImpl) GetByID(ctx context.Context, id string) (timing.OfficeTimingPolicy, error) {
	query := `SELECT` + officeTimingColumns + `
		FROM office_timings
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// List implements timing.PolicyRepository.
func (r *officeTimingRepositoryImpl) List(ctx context.Context, filter timing.PolicyFilter) ([]timing.OfficeTimingPolicy, error) {
	q := GetQuerier(ctx, r.db)

	var (
		where []string
		args  []interface{}
	)
	if filter.Department != nil {
		args = append(args, *filter.Department)
		where = append(where, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}

	query := `SELECT` + officeTimingColumns + ` FROM office_timings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY department NULLS FIRST, created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list office timings: %w", err)
	}
	defer rows.Close()

	var policies []timing.OfficeTimingPolicy
	for rows.Next() {
		p, err := scanOfficeTiming(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan office timing: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate office timings: %w", err)
	}

	return policies, nil
}

// Save implements timing.PolicyRepository.
func (r *officeTimingRepositoryImpl) Save(ctx context.Context, policy timing.OfficeTimingPolicy) (timing.OfficeTimingPolicy, error) {
	var saved timing.OfficeTimingPolicy

	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if policy.IsActive {
			deactivate := `
				UPDATE office_timings
				SET is_active = FALSE, updated_at = NOW()
				WHERE is_active = TRUE AND id <> $1
				  AND department IS NOT DISTINCT FROM $2`
			if _, err := q.Exec(ctx, deactivate, policy.ID, policy.Department); err != nil {
				return fmt.Errorf("failed to deactivate office timings in scope: %w", err)
			}
		}

		upsert := `
			INSERT INTO office_timings (
				id, department, start_time, end_time, check_in_grace_minutes,
				check_out_grace_minutes, is_active, utc_offset_minutes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				department = EXCLUDED.department,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				check_in_grace_minutes = EXCLUDED.check_in_grace_minutes,
				check_out_grace_minutes = EXCLUDED.check_out_grace_minutes,
				is_active = EXCLUDED.is_active,
				utc_offset_minutes = EXCLUDED.utc_offset_minutes,
				updated_at = NOW()
			RETURNING` + officeTimingColumns

		p, err := scanOfficeTiming(q.QueryRow(ctx, upsert,
			policy.ID, policy.Department, timeFromClock(policy.StartTime), timeFromClock(policy.EndTime),
			policy.CheckInGraceMinutes, policy.CheckOutGraceMinutes, policy.IsActive, int32(policy.Offset),
		))
		if err != nil {
			return fmt.Errorf("failed to save office timing: %w", err)
		}
		saved = p
		return nil
	})
	if err != nil {
		return timing.OfficeTimingPolicy{}, err
	}

	return saved, nil
}

// Deactivate implements timing.PolicyRepository.
func (r *officeTimingRepositoryImpl) Deactivate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE office_timings
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING id`

	var deactivatedID string
	if err := q.QueryRow(ctx, query, id).Scan(&deactivatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timing.ErrPolicyNotFound
		}
		return fmt.Errorf("failed to deactivate office timing: %w", err)
	}
	return nil
}
