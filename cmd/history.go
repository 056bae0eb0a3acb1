package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"speech-translation-service/internal/config"
	"speech-translation-service/internal/history"
	"speech-translation-service/internal/history/sqlite"
	"speech-translation-service/internal/models"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear stored translation history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = cfg.History.SQLitePath
		}
		userID, _ := cmd.Flags().GetString("user")
		roomID, _ := cmd.Flags().GetString("room")
		limit, _ := cmd.Flags().GetInt("limit")
		clearRoom, _ := cmd.Flags().GetBool("clear-room")

		if (userID == "") == (roomID == "") {
			return errors.New("exactly one of --user or --room is required")
		}
		if clearRoom && roomID == "" {
			return errors.New("--clear-room requires --room")
		}

		store, err := sqlite.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if clearRoom {
			n, err := store.DeleteRoom(ctx, roomID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records from room %s\n", n, roomID)
			return nil
		}

		var recs []models.TranslationRecord
		if roomID != "" {
			recs, err = store.ListByRoom(ctx, roomID, limit)
		} else {
			recs, err = store.ListByUser(ctx, userID, limit)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	},
}

func init() {
	historyCmd.Flags().String("db", "", "SQLite database path (defaults to HISTORY_SQLITE_PATH)")
	historyCmd.Flags().String("user", "", "List the personal history of this user")
	historyCmd.Flags().String("room", "", "List the shared history of this room")
	historyCmd.Flags().Int("limit", history.DefaultListLimit, "Maximum records to list")
	historyCmd.Flags().Bool("clear-room", false, "Delete the room history instead of listing it")
}
