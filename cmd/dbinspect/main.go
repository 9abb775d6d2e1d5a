package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/daylistapp/daylist-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/DayList/data/store")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	userCount := countDocs(db, "user:")
	sessionCount := countDocs(db, "sess:")
	contactCount := countDocs(db, "contact:")

	// Lists with per-list todo counts
	todosByList := map[string]int{}
	completedByList := map[string]int{}
	todoCount := 0
	orphanTodos := 0
	listIDs := map[string]bool{}

	err = db.View(func(txn *badger.Txn) error {
		iterDocs(txn, "list:", func(val []byte) {
			var list domain.List
			if err := json.Unmarshal(val, &list); err != nil {
				log.Printf("Error decoding list: %v", err)
				return
			}
			listIDs[list.ID] = true
			fmt.Printf("List: %s\n", list.Name)
			fmt.Printf("  ID: %s\n", list.ID)
			fmt.Printf("  Collaborators: %d\n", len(list.Collaborators))
			fmt.Printf("  Created by: %s\n", list.CreatedBy)
			fmt.Println()
		})

		iterDocs(txn, "todo:", func(val []byte) {
			var todo domain.Todo
			if err := json.Unmarshal(val, &todo); err != nil {
				log.Printf("Error decoding todo: %v", err)
				return
			}
			todoCount++
			todosByList[todo.ListID]++
			if todo.Completed {
				completedByList[todo.ListID]++
			}
		})
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	for listID := range todosByList {
		if !listIDs[listID] {
			orphanTodos += todosByList[listID]
		}
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users: %d\n", userCount)
	fmt.Printf("Sessions: %d\n", sessionCount)
	fmt.Printf("Lists: %d\n", len(listIDs))
	fmt.Printf("Todos: %d\n", todoCount)
	fmt.Printf("Contacts: %d\n", contactCount)
	if orphanTodos > 0 {
		fmt.Printf("Orphaned todos (list deleted): %d\n", orphanTodos)
	}
	for listID, count := range todosByList {
		if listIDs[listID] {
			fmt.Printf("  %s: %d todos (%d completed)\n", listID, count, completedByList[listID])
		}
	}
}

// iterDocs walks all primary documents under a prefix, skipping
// secondary index keys.
func iterDocs(txn *badger.Txn, prefix string, fn func(val []byte)) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	idxPrefix := prefix + "idx:"
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if strings.HasPrefix(key, idxPrefix) {
			continue
		}
		if err := item.Value(func(val []byte) error {
			fn(val)
			return nil
		}); err != nil {
			log.Printf("Error reading %s: %v", key, err)
		}
	}
}

func countDocs(db *badger.DB, prefix string) int {
	count := 0
	_ = db.View(func(txn *badger.Txn) error {
		iterDocs(txn, prefix, func([]byte) { count++ })
		return nil
	})
	return count
}
