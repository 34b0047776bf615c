// Flushes every cached progress digest. Run after a catalog edit or a prompt
// change so no stale digest rides into LLM prompt context; digests rebuild
// lazily on the next tutor or coach turn.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/openalpha/api/internal/cache"
	"github.com/openalpha/api/internal/config"
	"github.com/openalpha/api/internal/curriculum"
	"github.com/openalpha/api/internal/database"
	"github.com/openalpha/api/internal/model"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Show what would be flushed without actually flushing")
	flag.Parse()

	startTime := time.Now()
	log.Println("Starting digest flush job...")

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	progressCache, err := cache.NewProgressCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer progressCache.Close()

	var studentIDs []int64
	err = db.Model(&model.User{}).
		Where("role = ?", model.RoleStudent).
		Pluck("id", &studentIDs).Error
	if err != nil {
		log.Fatalf("Failed to list students: %v", err)
	}

	subjectIDs := make([]string, 0, len(curriculum.Subjects()))
	for _, s := range curriculum.Subjects() {
		subjectIDs = append(subjectIDs, s.ID)
	}

	if *dryRun {
		log.Printf("Dry run: would flush digests for %d students across %d subjects", len(studentIDs), len(subjectIDs))
		return
	}

	ctx := context.Background()
	flushed := 0
	for _, studentID := range studentIDs {
		if err := progressCache.Invalidate(ctx, studentID, subjectIDs); err != nil {
			log.Printf("Failed to flush digests for student %d: %v", studentID, err)
			continue
		}
		flushed++
	}

	log.Printf("Flushed digests for %d/%d students in %v", flushed, len(studentIDs), time.Since(startTime))
}
