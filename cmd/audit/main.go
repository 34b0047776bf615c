// Audits the mastery ledger for rows that violate its invariants: scores out
// of range, completion timestamps inconsistent with the score, and records
// pointing at subjects or concepts no longer in the catalog.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/openalpha/api/internal/config"
	"github.com/openalpha/api/internal/curriculum"
	"github.com/openalpha/api/internal/database"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
)

type Issue struct {
	RecordID  int64  `json:"recordId"`
	StudentID int64  `json:"studentId"`
	Subject   string `json:"subject"`
	ConceptID string `json:"conceptId"`
	Type      string `json:"type"`
	Details   string `json:"details"`
}

func main() {
	workers := flag.Int("workers", 10, "Number of parallel workers")
	outputFile := flag.String("output", "audit_results.json", "Output file for results")
	flag.Parse()

	cfg := config.Load()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := curriculum.ValidateGraph(); err != nil {
		log.Fatalf("Catalog is inconsistent, fix it before auditing the ledger: %v", err)
	}

	var total int64
	db.Model(&model.MasteryRecord{}).Count(&total)
	fmt.Printf("Auditing %d mastery records with %d workers...\n", total, *workers)

	recordChan := make(chan model.MasteryRecord, *workers*10)
	issueChan := make(chan Issue, 1000)

	var processed int64
	var issueCount int64
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range recordChan {
				for _, issue := range auditRecord(record) {
					issueChan <- issue
					atomic.AddInt64(&issueCount, 1)
				}
				p := atomic.AddInt64(&processed, 1)
				if p%1000 == 0 {
					fmt.Printf("Progress: %d/%d (%.1f%%), Issues found: %d\n",
						p, total, float64(p)/float64(total)*100, atomic.LoadInt64(&issueCount))
				}
			}
		}()
	}

	var issues []Issue
	done := make(chan bool)
	go func() {
		for issue := range issueChan {
			issues = append(issues, issue)
		}
		done <- true
	}()

	startTime := time.Now()
	var batch []model.MasteryRecord
	result := db.FindInBatches(&batch, 500, func(_ *gorm.DB, _ int) error {
		for _, record := range batch {
			recordChan <- record
		}
		return nil
	})
	if result.Error != nil {
		log.Printf("Database error: %v", result.Error)
	}

	close(recordChan)
	wg.Wait()
	close(issueChan)
	<-done

	elapsed := time.Since(startTime)
	fmt.Printf("\n=== Audit Complete ===\n")
	fmt.Printf("Total records: %d\n", total)
	if total > 0 {
		fmt.Printf("Issues found: %d (%.2f%%)\n", len(issues), float64(len(issues))/float64(total)*100)
	}
	fmt.Printf("Time elapsed: %v\n", elapsed)

	issuesByType := make(map[string][]Issue)
	for _, issue := range issues {
		issuesByType[issue.Type] = append(issuesByType[issue.Type], issue)
	}

	fmt.Printf("\n=== Issues by Type ===\n")
	for typ, typeIssues := range issuesByType {
		fmt.Printf("%s: %d\n", typ, len(typeIssues))
	}

	output := map[string]interface{}{
		"summary": map[string]interface{}{
			"total":   total,
			"issues":  len(issues),
			"elapsed": elapsed.String(),
		},
		"issuesByType": issuesByType,
		"issues":       issues,
	}

	jsonData, _ := json.MarshalIndent(output, "", "  ")
	if err := os.WriteFile(*outputFile, jsonData, 0644); err != nil {
		log.Printf("Failed to write output file: %v", err)
	} else {
		fmt.Printf("\nResults saved to %s\n", *outputFile)
	}
}

func auditRecord(record model.MasteryRecord) []Issue {
	var issues []Issue
	report := func(typ, details string) {
		issues = append(issues, Issue{
			RecordID:  record.ID,
			StudentID: record.StudentID,
			Subject:   record.Subject,
			ConceptID: record.ConceptID,
			Type:      typ,
			Details:   details,
		})
	}

	if record.MasteryScore < 0 || record.MasteryScore > 100 {
		report("SCORE_OUT_OF_RANGE", fmt.Sprintf("mastery score %d", record.MasteryScore))
	}

	if record.Attempts < 1 {
		report("NO_ATTEMPTS", fmt.Sprintf("attempts is %d on an existing record", record.Attempts))
	}

	// completedAt and the threshold must agree in both directions.
	if record.MasteryScore >= progress.MasteryThreshold && record.CompletedAt == nil {
		report("MISSING_COMPLETED_AT", fmt.Sprintf("score %d is at threshold but completedAt is unset", record.MasteryScore))
	}
	if record.MasteryScore < progress.MasteryThreshold && record.CompletedAt != nil {
		report("UNEARNED_COMPLETED_AT", fmt.Sprintf("score %d is below threshold but completedAt is set", record.MasteryScore))
	}

	if record.LastAttemptAt == nil {
		report("MISSING_LAST_ATTEMPT", "lastAttemptAt is unset")
	}
	if record.CompletedAt != nil && record.LastAttemptAt != nil && record.CompletedAt.After(record.LastAttemptAt.Add(time.Second)) {
		report("COMPLETED_AFTER_LAST_ATTEMPT", "completedAt is newer than the last attempt")
	}

	// A catalog edit can orphan ledger rows; they stay readable but never
	// feed recommendations again.
	if _, ok := curriculum.GetSubject(record.Subject); !ok {
		report("UNKNOWN_SUBJECT", fmt.Sprintf("subject %q is not in the catalog", record.Subject))
	} else if _, ok := curriculum.GetConcept(record.Subject, record.ConceptID); !ok {
		report("UNKNOWN_CONCEPT", fmt.Sprintf("concept %q is not in subject %q", record.ConceptID, record.Subject))
	}

	return issues
}
