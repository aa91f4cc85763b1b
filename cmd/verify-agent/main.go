// verify-agent sends one scripted question through the configured model and tool
// loop and prints every tool call it made. Use it to check API keys and tool wiring.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"printshop/internal/ai"
	"printshop/internal/config"
	"printshop/internal/core"
	"printshop/internal/db"
	"printshop/internal/logging"
)

const defaultQuestion = "How many orders are pending, and which customer owes the most?"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var model ai.Model
	switch cfg.AIProvider {
	case "openai":
		model, err = ai.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		model, err = ai.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if err != nil {
		log.Fatalf("model: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	tools := ai.NewShopTools(ai.ShopData{
		Customers: core.NewCustomerService(pool),
		Orders:    core.NewOrderService(pool),
		Payments:  core.NewPaymentService(pool),
		Catalog:   core.NewCatalogService(pool),
		Templates: core.NewTemplateService(pool),
		Reports:   core.NewReportingService(pool),
	})
	d := ai.NewDispatcher(model, tools, ai.SystemPrompt, logger)

	question := defaultQuestion
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}
	fmt.Printf("PROVIDER: %s\nQUESTION: %s\n", cfg.AIProvider, question)

	res, err := d.Run(ctx, []ai.Turn{{Role: ai.RoleUser, Text: question}})
	if err != nil {
		log.Fatalf("dispatcher: %v", err)
	}

	fmt.Printf("\n--- TOOL CALLS (%d model calls) ---\n", res.Iterations)
	for _, c := range res.ToolCalls {
		status := "ok"
		if c.Failed {
			status = "FAILED"
		}
		fmt.Printf("- %s %s [%s, %s]\n", c.Name, c.Args, status, c.Duration)
	}
	fmt.Printf("\n--- ANSWER ---\n%s\n", res.Text)
	if res.Exhausted {
		fmt.Println("\nWARNING: tool loop exhausted before a final answer.")
	}
}
