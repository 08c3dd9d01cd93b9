package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/rollbook/internal/config"
	"github.com/stemsi/rollbook/internal/docstore"
	"github.com/stemsi/rollbook/internal/logger"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/repository"
	"github.com/stemsi/rollbook/internal/roster"
	"github.com/stemsi/rollbook/internal/service"
	"github.com/stemsi/rollbook/internal/validator"
)

const grade = "5B"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	opts := []docstore.Option{}
	if cfg.StoreAuthToken != "" {
		opts = append(opts, docstore.WithAuthToken(cfg.StoreAuthToken))
	}
	store := docstore.New(cfg.StoreURL, opts...)

	studentRepo := repository.NewStudentRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store)
	studentService := service.NewStudentService(roster.NewStore(studentRepo, log), attendanceRepo, log)

	state, err := studentService.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load existing students")
	}
	if len(state.Students) > 0 {
		fmt.Printf("Roster already has %d students, nothing to seed.\n", len(state.Students))
		return
	}

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Nanda Pratama",
		"Putri Dian", "Rafi Ahmad", "Toni Setiawan", "Wahyu Hidayat", "Zaki Anwar",
	}

	fmt.Printf("=== Seeding %d Students into %s ===\n", len(names), grade)

	successCount := 0
	for i, name := range names {
		student := model.Student{
			Name:       name,
			Grade:      grade,
			RollNumber: fmt.Sprintf("%d", i+1),
			Email:      fmt.Sprintf("student%02d@example.com", i+1),
		}

		created, err := studentService.Create(ctx, student)
		switch {
		case errors.Is(err, service.ErrAttendanceInit):
			fmt.Printf("Created %s (%s) without an attendance record: %v\n", name, created.ID, err)
			successCount++
		case err != nil:
			fmt.Printf("Error creating student %s: %v\n", name, err)
		default:
			successCount++
			if (i+1)%5 == 0 {
				fmt.Printf("Created %d students...\n", i+1)
			}
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(names))
}
