package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/product-catalog/internal/adapter/handler"
	"github.com/rl1809/product-catalog/internal/core/domain"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "catalog gRPC address")
	totalRequests := flag.Int("n", 50, "concurrent create requests")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *addr, err)
	}
	defer conn.Close()

	client := handler.NewGRPCClient(conn)
	name := "stress-" + uuid.NewString()

	// Counters
	var successCount, conflictCount, otherCount atomic.Int32
	var createdID atomic.Value

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			product, err := client.Create(ctx, domain.ProductInput{
				Name:          name,
				Description:   fmt.Sprintf("worker %d", worker),
				Price:         decimal.RequireFromString("9.99"),
				Category:      "stress",
				StockQuantity: worker,
			})
			switch {
			case err == nil:
				successCount.Add(1)
				createdID.Store(product.ID)
			case status.Code(err) == codes.AlreadyExists:
				conflictCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("worker %d: %v", worker, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	conflicts := conflictCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Product Name:     %s\n", name)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Created:          %d\n", success)
	fmt.Printf("Already Exists:   %d\n", conflicts)
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == 1 && conflicts == int32(*totalRequests-1) {
		fmt.Printf("PASS: Exactly 1 create succeeded, %d conflicted\n", conflicts)
	} else {
		fmt.Printf("FAIL: Expected 1 created/%d conflicts, got %d/%d\n", *totalRequests-1, success, conflicts)
	}

	matches, err := client.SearchByName(ctx, name)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	if len(matches) == 1 {
		fmt.Println("PASS: Catalog holds a single product with that name")
	} else {
		fmt.Printf("FAIL: Expected 1 product named %s, found %d\n", name, len(matches))
	}

	if id, ok := createdID.Load().(string); ok {
		if err := client.Delete(ctx, id); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}
}
