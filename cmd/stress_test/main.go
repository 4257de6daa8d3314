package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/rl1809/invoice-dashboard/internal/adapter/storage"
	"github.com/rl1809/invoice-dashboard/internal/config"
	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/core/service"
	"github.com/rl1809/invoice-dashboard/internal/logger"
)

const (
	totalRequests  = 200
	invalidEvery   = 10 // every 10th submission has no customer
	requestTimeout = 5 * time.Second
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, storage.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	repo, err := storage.NewSQLAdapter(db)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// Tag this run so counts ignore earlier data
	runID := uuid.NewString()[:8]
	customer := "stress-" + runID

	cache := storage.NewMemoryPageCache(cfg.Cache.TTL)
	invoiceService := service.NewInvoiceService(repo, cache, logger.NewNop())

	var successCount atomic.Int32
	var invalidCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			form := domain.FormData{
				"customerId": customer,
				"amount":     fmt.Sprintf("%d.%02d", n+1, n%100),
				"status":     "pending",
			}
			if n%invalidEvery == 0 {
				form["customerId"] = ""
			}

			reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()

			state := invoiceService.CreateInvoice(reqCtx, form)
			switch {
			case state.OK():
				successCount.Add(1)
			case len(state.Errors) > 0:
				invalidCount.Add(1)
			default:
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	invalid := invalidCount.Load()
	fail := failCount.Load()
	expectedInvalid := int32((totalRequests + invalidEvery - 1) / invalidEvery)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Driver:           %s\n", cfg.Database.Driver)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Rejected:         %d\n", invalid)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if invalid == expectedInvalid && success == int32(totalRequests)-expectedInvalid && fail == 0 {
		fmt.Printf("PASS: %d invoices created, %d rejected\n", success, invalid)
	} else {
		fmt.Printf("FAIL: Expected %d created/%d rejected/0 failed, got %d/%d/%d\n",
			int32(totalRequests)-expectedInvalid, expectedInvalid, success, invalid, fail)
	}

	stored, err := repo.CountInvoices(ctx, customer)
	if err != nil {
		log.Fatalf("failed to count invoices: %v", err)
	}
	fmt.Printf("Stored Invoices:  %d\n", stored)

	if stored == int(success) {
		fmt.Println("PASS: Every accepted invoice was stored")
	} else {
		fmt.Printf("FAIL: Expected %d stored, got %d\n", success, stored)
	}
}
