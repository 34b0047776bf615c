package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openalpha/api/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.MasteryRecord{}))
	return db
}

func TestRecordAttemptFirstSubmission(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	result, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", 65)
	require.NoError(t, err)
	assert.Equal(t, 65, result.MasteryScore)
	assert.False(t, result.Passed)

	records, err := ledger.SubjectProgress(ctx, 1, "math")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Attempts)
	assert.NotNil(t, records[0].LastAttemptAt)
	assert.Nil(t, records[0].CompletedAt)
}

func TestRecordAttemptKeepsRunningMaximum(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	scores := []int{40, 90, 55}
	expected := []int{40, 90, 90}
	for i, score := range scores {
		result, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", score)
		require.NoError(t, err)
		assert.Equal(t, expected[i], result.MasteryScore)
	}

	records, err := ledger.SubjectProgress(ctx, 1, "math")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 90, records[0].MasteryScore)
	assert.Equal(t, 3, records[0].Attempts)
}

func TestRecordAttemptCompletedAtSetOnce(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	result, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", 85)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	records, err := ledger.SubjectProgress(ctx, 1, "math")
	require.NoError(t, err)
	require.NotNil(t, records[0].CompletedAt)
	firstCompleted := *records[0].CompletedAt

	// A later low score neither lowers the mastery nor moves completion.
	result, err = ledger.RecordAttempt(ctx, 1, "math", "math-counting", 50)
	require.NoError(t, err)
	assert.Equal(t, 85, result.MasteryScore)
	assert.True(t, result.Passed)

	records, err = ledger.SubjectProgress(ctx, 1, "math")
	require.NoError(t, err)
	require.NotNil(t, records[0].CompletedAt)
	assert.True(t, records[0].CompletedAt.Equal(firstCompleted))
	assert.Equal(t, 2, records[0].Attempts)
}

func TestRecordAttemptPassingAtThreshold(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	result, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", MasteryThreshold)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	result, err = ledger.RecordAttempt(ctx, 1, "math", "math-addition-basic", MasteryThreshold-1)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestCompletedConceptIDs(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	_, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", 90)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-addition-basic", 60)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "reading", "read-alphabet", 95)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 2, "math", "math-subtraction-basic", 100)
	require.NoError(t, err)

	completed, err := ledger.CompletedConceptIDs(ctx, 1, "math")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"math-counting": true}, completed)
}

func TestSummaryBySubject(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	_, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", 90)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-addition-basic", 45)
	require.NoError(t, err)

	summaries, err := ledger.SummaryBySubject(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, summaries)

	var math *SubjectSummary
	for i := range summaries {
		if summaries[i].SubjectID == "math" {
			math = &summaries[i]
		}
	}
	require.NotNil(t, math)
	assert.Equal(t, 1, math.Completed)
	assert.Equal(t, 1, math.InProgress)
	assert.Equal(t, math.TotalConcepts-2, math.NotStarted)
	assert.Equal(t, 100/math.TotalConcepts, math.PercentComplete)
}

func TestDigest(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	digest, err := ledger.Digest(ctx, 1, "math")
	require.NoError(t, err)
	assert.Equal(t, "No prior progress", digest)

	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-counting", 90)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-addition-basic", 60)
	require.NoError(t, err)

	digest, err = ledger.Digest(ctx, 1, "math")
	require.NoError(t, err)
	assert.Equal(t, "math-addition-basic: 60%, math-counting: 90%", digest)
}

func TestDigestAll(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	digest, err := ledger.DigestAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "No progress recorded yet", digest)

	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-counting", 90)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "reading", "read-alphabet", 50)
	require.NoError(t, err)

	digest, err = ledger.DigestAll(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, digest, "math: math-counting (90%, completed)")
	assert.Contains(t, digest, "reading: read-alphabet (50%)")
}

func TestStruggling(t *testing.T) {
	ledger := NewLedger(testDB(t))
	ctx := context.Background()

	// Two attempts below threshold: struggling.
	_, err := ledger.RecordAttempt(ctx, 1, "math", "math-counting", 40)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-counting", 55)
	require.NoError(t, err)

	// One attempt below threshold: not yet.
	_, err = ledger.RecordAttempt(ctx, 1, "math", "math-addition-basic", 30)
	require.NoError(t, err)

	// Mastered after retries: no longer struggling.
	_, err = ledger.RecordAttempt(ctx, 1, "reading", "read-alphabet", 50)
	require.NoError(t, err)
	_, err = ledger.RecordAttempt(ctx, 1, "reading", "read-alphabet", 95)
	require.NoError(t, err)

	struggling, err := ledger.Struggling(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, struggling, 1)
	assert.Equal(t, "math-counting", struggling[0].ConceptID)
	assert.Equal(t, 55, struggling[0].MasteryScore)
}
