package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/phrazzld/wondercards-api/internal/store"
)

const courseColumns = `id, topic, age_group, course_length, cards, saved,
		created_at, last_viewed_at, current_card_index`

// PostgresCourseStore implements store.CourseStore on PostgreSQL.
// Cards are stored as a JSONB array on the course row.
type PostgresCourseStore struct {
	db     store.DBTX
	txDB   store.TxBeginner
	logger *slog.Logger
}

// NewPostgresCourseStore creates a PostgreSQL implementation of store.CourseStore.
// db is used for single statements and txDB for UpdateProgress, which locks
// the row while checking the index. *sql.DB satisfies both.
// If logger is nil, a default logger will be used.
func NewPostgresCourseStore(db store.DBTX, txDB store.TxBeginner, logger *slog.Logger) *PostgresCourseStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if txDB == nil {
		panic("txDB cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCourseStore{
		db:     db,
		txDB:   txDB,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

// Ensure PostgresCourseStore implements store.CourseStore interface
var _ store.CourseStore = (*PostgresCourseStore)(nil)

// Create implements store.CourseStore.Create
func (s *PostgresCourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		log.Warn("course validation failed during create",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	cards, err := json.Marshal(course.Cards)
	if err != nil {
		return fmt.Errorf("%w: encode cards: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		course.ID,
		course.Topic,
		string(course.AgeGroup),
		string(course.CourseLength),
		cards,
		course.Saved,
		course.CreatedAt,
		course.LastViewedAt,
		course.CurrentCardIndex,
	)
	if err != nil {
		log.Error("failed to create course",
			slog.String("error", err.Error()),
			slog.String("course_id", course.ID.String()))
		return MapError(err)
	}

	log.Info("course created successfully",
		slog.String("course_id", course.ID.String()),
		slog.Int("card_count", len(course.Cards)),
		slog.Bool("saved", course.Saved))
	return nil
}

// GetByID implements store.CourseStore.GetByID
func (s *PostgresCourseStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("retrieving course by ID", slog.String("course_id", id.String()))

	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	course, err := scanCourse(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("course not found", slog.String("course_id", id.String()))
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return nil, MapError(err)
	}

	return course, nil
}

// List implements store.CourseStore.List
func (s *PostgresCourseStore) List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + courseColumns + ` FROM courses`
	if filter.SavedOnly {
		query += ` WHERE saved = TRUE`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, query, filter.EffectiveLimit(), offset)
	if err != nil {
		log.Error("failed to list courses", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	courses := make([]*domain.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			log.Error("failed to scan course row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating course rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed courses",
		slog.Int("count", len(courses)),
		slog.Bool("saved_only", filter.SavedOnly))
	return courses, nil
}

// UpdateProgress implements store.CourseStore.UpdateProgress
func (s *PostgresCourseStore) UpdateProgress(
	ctx context.Context,
	id uuid.UUID,
	index int,
	viewedAt time.Time,
) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Course
	err := store.RunInTransaction(ctx, s.txDB, func(ctx context.Context, tx *sql.Tx) error {
		query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 FOR UPDATE`
		course, err := scanCourse(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrCourseNotFound
			}
			return MapError(err)
		}

		if err := course.UpdateProgress(index, viewedAt); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE courses SET current_card_index = $1, last_viewed_at = $2 WHERE id = $3`,
			course.CurrentCardIndex, course.LastViewedAt, course.ID)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "course"); err != nil {
			return fmt.Errorf("%w: %w", store.ErrUpdateFailed, err)
		}

		updated = course
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("course not found for progress update", slog.String("course_id", id.String()))
		} else {
			log.Warn("failed to update course progress",
				slog.String("error", err.Error()),
				slog.String("course_id", id.String()),
				slog.Int("index", index))
		}
		return nil, err
	}

	log.Debug("course progress updated",
		slog.String("course_id", id.String()),
		slog.Int("index", index))
	return updated, nil
}

// SetSaved implements store.CourseStore.SetSaved
func (s *PostgresCourseStore) SetSaved(ctx context.Context, id uuid.UUID, saved bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `UPDATE courses SET saved = $1 WHERE id = $2`, saved, id)
	if err != nil {
		log.Error("failed to update saved flag",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "course"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrCourseNotFound
		}
		return err
	}

	log.Debug("course saved flag updated",
		slog.String("course_id", id.String()),
		slog.Bool("saved", saved))
	return nil
}

// Delete implements store.CourseStore.Delete
func (s *PostgresCourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete course",
			slog.String("error", err.Error()),
			slog.String("course_id", id.String()))
		return fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err))
	}

	if err := CheckRowsAffected(result, "course"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("course not found for delete", slog.String("course_id", id.String()))
			return store.ErrCourseNotFound
		}
		return err
	}

	log.Info("course deleted", slog.String("course_id", id.String()))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*domain.Course, error) {
	var (
		course       domain.Course
		ageGroup     string
		courseLength string
		cards        []byte
		lastViewedAt sql.NullTime
	)

	if err := row.Scan(
		&course.ID,
		&course.Topic,
		&ageGroup,
		&courseLength,
		&cards,
		&course.Saved,
		&course.CreatedAt,
		&lastViewedAt,
		&course.CurrentCardIndex,
	); err != nil {
		return nil, err
	}

	course.AgeGroup = domain.AgeGroup(ageGroup)
	course.CourseLength = domain.CourseLength(courseLength)
	if lastViewedAt.Valid {
		t := lastViewedAt.Time
		course.LastViewedAt = &t
	}

	if err := json.Unmarshal(cards, &course.Cards); err != nil {
		return nil, fmt.Errorf("decode cards for course %s: %w", course.ID, err)
	}

	return &course, nil
}
