// Copyright 2026 Civicore Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/civicore/polidex"
	"github.com/civicore/polidex/ai"
	"github.com/civicore/polidex/core"
	"github.com/civicore/polidex/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "polidex",
		Usage: "Role-aware retrieval over government policy documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "prewarm",
				Usage:  "Embed every document that has no vectors yet",
				Action: prewarmCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Documents embedded in parallel (0 picks a default)",
						Value: 0,
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Run one retrieval against the store",
				ArgsUsage: "[query terms]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "Requesting role (system_admin, reviewer, institution_admin, institution_member, public)",
						Value: "public",
					},
					&cli.Uint64Flag{
						Name:  "institution",
						Usage: "Institution ID of the requesting user (0 for none)",
					},
					&cli.Uint64Flag{
						Name:  "user",
						Usage: "User ID of the requesting user (0 for anonymous)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of hits to return",
						Value:   5,
					},
				},
			},
			{
				Name:   "register",
				Usage:  "Store a document's extracted text",
				Action: registerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the extracted text file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "visibility",
						Usage: "Document visibility (public, institution, restricted, confidential)",
						Value: "public",
					},
					&cli.Uint64Flag{
						Name:  "institution",
						Usage: "Owning institution ID (0 for none)",
					},
					&cli.StringFlag{
						Name:  "approval",
						Usage: "Approval state (draft, pending, approved, rejected)",
						Value: "approved",
					},
					&cli.Uint64Flag{
						Name:  "uploader",
						Usage: "User ID of the uploader",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openEngine(c *cli.Context, opts ...polidex.EngineOption) (*polidex.Engine, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Commands without embedding flags fall back to the config defaults
	var cfgOpts []ai.ConfigOption
	if host := c.String("embedding-host"); host != "" {
		cfgOpts = append(cfgOpts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		cfgOpts = append(cfgOpts, ai.WithModel(model))
	}
	aiConfig := ai.NewConfig(cfgOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engineOpts := append([]polidex.EngineOption{polidex.WithAIConfig(aiConfig)}, opts...)
	engine, err := polidex.NewEngine(dbPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func prewarmCommand(c *cli.Context) error {
	engine, err := openEngine(c, polidex.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := engine.Prewarm(context.Background(), c.Int("concurrency")); err != nil {
		return fmt.Errorf("prewarm failed: %w", err)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query terms are required")
	}

	role, err := core.ParseRole(c.String("role"))
	if err != nil {
		return err
	}
	user := core.UserContext{
		UserId:        core.ID(c.Uint64("user")),
		InstitutionId: core.ID(c.Uint64("institution")),
		Role:          role,
	}

	engine, err := openEngine(c, polidex.WithMonitor(search.NewMetricsMonitor()))
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Retrieve(context.Background(), query, user, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(result.Hits))
	for i, hit := range result.Hits {
		fmt.Printf("%d: %q (doc %d seq %d) [%0.3f]\n", i, hit.Text, hit.DocumentId, hit.Seq, hit.Score)
	}
	if len(result.Incomplete) > 0 {
		fmt.Printf("Embedding incomplete for %d documents: %v\n", len(result.Incomplete), result.Incomplete)
	}
	return nil
}

func registerCommand(c *cli.Context) error {
	filePath := c.String("file")
	text, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	visibility, err := core.ParseVisibility(c.String("visibility"))
	if err != nil {
		return err
	}
	approval, err := core.ParseApprovalState(c.String("approval"))
	if err != nil {
		return err
	}

	title := c.String("title")
	if title == "" {
		title = filepath.Base(filePath)
	}

	doc := &core.Document{
		Title: title,
		Access: core.Access{
			Visibility:    visibility,
			InstitutionId: core.ID(c.Uint64("institution")),
			ApprovalState: approval,
			UploaderId:    core.ID(c.Uint64("uploader")),
		},
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stored, err := engine.RegisterDocument(context.Background(), doc, string(text))
	if err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}

	fmt.Printf("Registered document %d (%s)\n", stored.Id, stored.Title)
	return nil
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.String("log-level"))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
