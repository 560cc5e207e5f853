package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	Prefix         string `envconfig:"PREFIX" default:"conv:"`
	Limit          int    `envconfig:"LIMIT" default:"100"`
}

// Local copies of the persisted document shapes, so the viewer stays
// independent from the server packages.
type conversationDoc struct {
	ID           string    `json:"id"`
	Members      [2]string `json:"members"`
	LastMessage  string    `json:"last_message"`
	LastSenderID string    `json:"last_sender_id"`
	UpdatedAt    int64     `json:"updated_at"`
}

type messageDoc struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Type     string `json:"type"`
	Text     string `json:"text"`
	Media    []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"media"`
	CreatedAt int64 `json:"created_at"`
}

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in read-only mode.
	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	color.Cyan.Printf("🔎 chispa viewer — scanning prefix %q (limit %d)\n", config.Prefix, config.Limit)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headersFor(config.Prefix))
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(config.Prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && count < config.Limit; it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				table.Append(rowFor(config.Prefix, string(item.Key()), value))
				return nil
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("%d entries\n", count)
}

func headersFor(prefix string) []string {
	switch {
	case strings.HasPrefix(prefix, "conv:"):
		return []string{"ID", "Members", "Last Message", "Last Sender", "Updated At"}
	case strings.HasPrefix(prefix, "msg:"):
		return []string{"ID", "Author", "Type", "Content", "Created At"}
	default:
		return []string{"Key", "Value"}
	}
}

func rowFor(prefix, key string, value []byte) []string {
	switch {
	case strings.HasPrefix(prefix, "conv:"):
		var doc conversationDoc
		if err := json.Unmarshal(value, &doc); err != nil {
			return []string{key, fmt.Sprintf("unreadable: %v", err)}
		}
		return []string{
			shortID(doc.ID),
			fmt.Sprintf("%s ↔ %s", doc.Members[0], doc.Members[1]),
			doc.LastMessage,
			doc.LastSenderID,
			time.Unix(0, doc.UpdatedAt).UTC().Format("15:04:05"),
		}
	case strings.HasPrefix(prefix, "msg:"):
		var doc messageDoc
		if err := json.Unmarshal(value, &doc); err != nil {
			return []string{key, fmt.Sprintf("unreadable: %v", err)}
		}
		content := doc.Text
		if doc.Type == "media" && len(doc.Media) > 0 {
			content = fmt.Sprintf("[%s] %s", doc.Media[0].Type, doc.Media[0].URL)
		}
		return []string{
			shortID(doc.ID),
			doc.AuthorID,
			doc.Type,
			content,
			time.Unix(0, doc.CreatedAt).UTC().Format("15:04:05"),
		}
	default:
		return []string{key, string(value)}
	}
}

// shortID keeps the first 8 characters for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
