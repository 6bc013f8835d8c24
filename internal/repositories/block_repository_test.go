package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blockRowColumns = []string{"id", "type", "headline", "description", "content", "created_at", "updated_at"}

// setupBlockTestRepository creates a block repository with a mock database
func setupBlockTestRepository(t *testing.T) (*blockRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewBlockRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestNewBlockRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewBlockRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestBlockRepository_GetByID(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name          string
		id            int
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		errorContains string
	}{
		{
			name: "success",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(append(blockRowColumns, "usage_count")).
					AddRow(1, "video", "Welcome", nil, `{"videoUrl":"https://x/w.mp4"}`, now, now, 2)
				mock.ExpectQuery(`SELECT b.id, b.type, b.headline, b.description, b.content, b.created_at, b.updated_at, .+ FROM blocks b WHERE b.id = \?`).
					WithArgs(1).
					WillReturnRows(rows)
			},
		},
		{
			name: "block not found",
			id:   999,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blocks b WHERE b.id = \?`).
					WithArgs(999).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: apperrors.ErrNotFound,
			errorContains: "block 999 not found",
		},
		{
			name: "corrupted content",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(append(blockRowColumns, "usage_count")).
					AddRow(1, "video", "Welcome", nil, `{"video_url":"https://x/w.mp4"}`, now, now, 0)
				mock.ExpectQuery(`FROM blocks b WHERE b.id = \?`).
					WithArgs(1).
					WillReturnRows(rows)
			},
			errorContains: "failed to get block by id",
		},
		{
			name: "database error",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blocks b WHERE b.id = \?`).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			errorContains: "failed to get block by id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlockTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			result, err := repo.GetByID(context.Background(), tt.id)

			if tt.errorContains != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, result.ID)
				assert.Equal(t, 2, result.UsageCount)
				assert.Nil(t, result.Description)
				assert.Equal(t, models.VideoContent{VideoURL: "https://x/w.mp4"}, result.Content)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlockRepository_GetAll(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(append(blockRowColumns, "usage_count")).
					AddRow(1, "video", "Welcome", "intro", `{"videoUrl":"v.mp4"}`, now, now, 1).
					AddRow(2, "flip_cards", "Quiz", nil, `{"cards":[{"front":"Q","back":"A"}]}`, now, now, 0)
				mock.ExpectQuery(`FROM blocks b LEFT JOIN step_blocks sb ON sb.block_id = b.id GROUP BY b.id ORDER BY b.id`).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name: "empty results",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blocks b LEFT JOIN step_blocks sb`).
					WillReturnRows(sqlmock.NewRows(append(blockRowColumns, "usage_count")))
			},
			expectedCount: 0,
		},
		{
			name: "database query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM blocks b LEFT JOIN step_blocks sb`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlockTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			result, err := repo.GetAll(context.Background())

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				assert.Len(t, result, tt.expectedCount)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlockRepository_GetUnused(t *testing.T) {
	repo, mock, cleanup := setupBlockTestRepository(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(blockRowColumns).
		AddRow(4, "feedback_activity", "Thoughts", nil, `{"question":"How was it?"}`, now, now)
	mock.ExpectQuery(`FROM blocks b LEFT JOIN step_blocks sb ON sb.block_id = b.id WHERE sb.id IS NULL ORDER BY b.id`).
		WillReturnRows(rows)

	result, err := repo.GetUnused(context.Background())

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 4, result[0].ID)
	assert.Equal(t, models.FeedbackActivityContent{Question: "How was it?"}, result[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	description := "intro"

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedID    int
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO blocks \(type, headline, description, content, created_at, updated_at\)`).
					WithArgs(models.BlockTypeVideo, "Welcome", description, `{"videoUrl":"v.mp4"}`, now, now).
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
			expectedID: 7,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO blocks`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlockTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			block := &models.Block{
				Type:        models.BlockTypeVideo,
				Headline:    "Welcome",
				Description: &description,
				Content:     models.VideoContent{VideoURL: "v.mp4"},
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			err := repo.Create(context.Background(), block)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "failed to create block")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, block.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlockRepository_Update(t *testing.T) {
	now := time.Now().UTC()
	updateQuery := `UPDATE blocks SET type = \?, headline = \?, description = \?, content = \?, updated_at = \? WHERE id = \?`

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		errorContains string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WithArgs(models.BlockTypeImage, "Gallery", nil, `{"imageUrls":["a.png"]}`, now, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "block deleted before update",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WithArgs(models.BlockTypeImage, "Gallery", nil, `{"imageUrls":["a.png"]}`, now, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: apperrors.ErrNotFound,
			errorContains: "block 3 not found",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateQuery).
					WillReturnError(errors.New("database error"))
			},
			errorContains: "failed to update block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlockTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Update(context.Background(), &models.Block{
				ID:        3,
				Type:      models.BlockTypeImage,
				Headline:  "Gallery",
				Content:   models.ImageContent{ImageURLs: []string{"a.png"}},
				UpdatedAt: now,
			})

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Contains(t, err.Error(), tt.errorContains)
			case tt.errorContains != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Equal(t, apperrors.KindUnexpected, apperrors.KindOf(err))
			default:
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlockRepository_GetDeleteCheck(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectedCount int
	}{
		{
			name: "referenced block",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT b.headline, COUNT\(sb.id\) FROM blocks b LEFT JOIN step_blocks sb`).
					WithArgs(5).
					WillReturnRows(sqlmock.NewRows([]string{"headline", "count"}).AddRow("Welcome", 3))
			},
			expectedCount: 3,
		},
		{
			name: "missing block",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT b.headline, COUNT\(sb.id\)`).
					WithArgs(5).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlockTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			check, err := repo.GetDeleteCheck(context.Background(), 5)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, check)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Welcome", check.Headline)
				assert.Equal(t, tt.expectedCount, check.UsageCount)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBlockRepository_Delete(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		errorContains string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM blocks WHERE id = \?`).
					WithArgs(5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM blocks WHERE id = \?`).
					WithArgs(5).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: apperrors.ErrNotFound,
		},
		{
			name: "referenced meanwhile",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM blocks WHERE id = \?`).
					WithArgs(5).
					WillReturnError(&mysql.MySQLError{
						Number:  1451,
						Message: "Cannot delete or update a parent row: a foreign key constraint fails (`cb`.`step_blocks`, CONSTRAINT `fk_step_blocks_block` FOREIGN KEY (`block_id`) REFERENCES `blocks` (`id`))",
					})
			},
			expectedError: apperrors.ErrConflict,
			errorContains: "the block is used in one or more steps",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM blocks WHERE id = \?`).
					WithArgs(5).
					WillReturnError(errors.New("database error"))
			},
			errorContains: "failed to delete block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupBlockTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Delete(context.Background(), 5)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			case tt.errorContains != "":
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Equal(t, apperrors.KindUnexpected, apperrors.KindOf(err))
			default:
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
