package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/repository"
)

type output struct {
	KeyID string `json:"key_id"`
	Token string `json:"token"`
	Tier  string `json:"tier"`
	Label string `json:"label"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		tier        = flag.String("tier", model.TierFree, "Tier (free, basic, pro, unlimited)")
		label       = flag.String("label", "bootstrap", "Key label")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	if !slices.Contains(model.ValidTiers, *tier) {
		fmt.Fprintf(os.Stderr, "invalid tier %q (valid: %s)\n", *tier, strings.Join(model.ValidTiers, ", "))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	token, err := auth.GenerateToken()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate token:", err)
		os.Exit(1)
	}

	apiKey := &model.APIKey{
		ID:        uuid.New().String(),
		Token:     token,
		Tier:      *tier,
		Active:    true,
		Label:     *label,
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.CreateAPIKey(ctx, apiKey); err != nil {
		fmt.Fprintln(os.Stderr, "create api key:", err)
		os.Exit(1)
	}

	out := output{
		KeyID: apiKey.ID,
		Token: token,
		Tier:  apiKey.Tier,
		Label: apiKey.Label,
	}

	switch strings.ToLower(*format) {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Println(out.Token)
	}
}
