package main

import (
	"context"
	"time"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/rates"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting rates-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Track the configured symbols plus every currency an account is
	// denominated in, so reports never hit a missing rate for existing
	// accounts.
	symbols := cfg.RatesSymbols
	if accounts, err := repo.ListAccounts(context.Background()); err != nil {
		logger.Warn("Failed to list accounts for rate symbols", "error", err)
	} else {
		symbols = mergeSymbols(symbols, accounts)
	}

	fetcher := rates.NewFetcher(cfg.RatesBaseURL, cfg.ReferenceCurrency, repo)
	logger.Info("Rate fetcher configured",
		"base_url", cfg.RatesBaseURL,
		"reference_currency", cfg.ReferenceCurrency,
		"symbols", symbols,
		"interval", cfg.RatesInterval,
	)

	go func() {
		if err := fetcher.Run(ctx, symbols, cfg.RatesInterval); err != nil {
			logger.Error("Rate fetcher stopped", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Rates worker stopped gracefully")
}

func mergeSymbols(symbols []string, accounts []core.Account) []string {
	seen := make(map[string]bool, len(symbols))
	merged := make([]string, 0, len(symbols)+len(accounts))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	for _, a := range accounts {
		if a.Currency != "" && !seen[a.Currency] {
			seen[a.Currency] = true
			merged = append(merged, a.Currency)
		}
	}
	return merged
}
