package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"CryptoChat/internal/domain/models"
	"CryptoChat/internal/repository"
	"CryptoChat/internal/service/coingecko"
	"CryptoChat/internal/service/ratelimit"
	"CryptoChat/internal/services/classifier"
	"CryptoChat/internal/services/responder"
	"CryptoChat/internal/usecase"
	"CryptoChat/pkg/cache"
	"CryptoChat/pkg/config"
	applogger "CryptoChat/pkg/logger"
	"CryptoChat/pkg/metrics"
)

const replyTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "optional config file path")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := applogger.New(&applogger.Config{Level: *logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	market := cache.NewMemoryCache()
	defer market.Close()
	portfolios := cache.NewMemoryCache()
	defer portfolios.Close()

	ttl := cfg.CoinGecko.CacheTTL
	client := coingecko.New(cfg.CoinGecko.BaseURL,
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout),
		coingecko.WithRetry(cfg.CoinGecko.RetryAttempts),
		coingecko.WithCache(market, coingecko.CacheTTL{
			Search:   ttl.Search,
			Price:    ttl.Price,
			History:  ttl.History,
			Trending: ttl.Trending,
			Markets:  ttl.Markets,
		}),
		coingecko.WithRateLimit(ratelimit.New(), cfg.CoinGecko.RateLimit.Capacity, cfg.CoinGecko.RateLimit.RefillPerSec),
		coingecko.WithLogger(l),
	)

	chat := usecase.NewChatUseCase(
		classifier.New(),
		responder.NewGenerator(client, responder.WithLogger(l)),
		client,
		repository.NewCachePortfolioStore(portfolios, cfg.Portfolio.KeyPrefix, 0),
		usecase.WithChatLogger(l),
		usecase.WithChatMetrics(metrics.Nop{}),
	)

	if err := repl(chat); err != nil {
		log.Fatalf("chat: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.LoadWithEnv(path)
}

func repl(chat *usecase.ChatUseCase) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()
	printReply(out, chat.Welcome())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		reply, err := chat.HandleMessage(ctx, usecase.DefaultSessionID, line)
		cancel()
		if err != nil {
			fmt.Fprintf(out, "bot> %v\n\n", err)
			continue
		}
		printReply(out, reply)
	}
}

func printReply(w io.Writer, r *models.ChatReply) {
	fmt.Fprintf(w, "bot> %s\n", r.Content)
	if r.Chart != nil {
		m := r.Chart.Metrics
		arrow := "📈"
		if !m.IsPositive {
			arrow = "📉"
		}
		fmt.Fprintf(w, "     %s $%s -> $%s (%s%%) %s\n",
			r.Chart.Symbol, responder.FormatPrice(m.StartPrice), responder.FormatPrice(m.CurrentPrice),
			responder.FormatPercent(m.ChangePercent), arrow)
		fmt.Fprintf(w, "     low $%s  high $%s  volatility %s%%  points %d\n",
			responder.FormatPrice(m.Min), responder.FormatPrice(m.Max),
			responder.FormatPercent(m.Volatility*100), len(r.Chart.Points))
	}
	fmt.Fprintln(w)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cryptochat_history")
}
