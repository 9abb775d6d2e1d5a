// Package main provides a tool to seed the database with demo data.
//
// This creates a handful of users, shared lists, todos and contacts to
// exercise the API and the live views against realistic state.
//
// Usage:
//
//	DB_PATH=~/DayList/data/store go run ./cmd/seed
//	DB_PATH=~/DayList/data/store go run ./cmd/seed --todos-per-list 20
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/daylistapp/daylist-server/internal/auth"
	"github.com/daylistapp/daylist-server/internal/color"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/store"
)

var todosPerList = flag.Int("todos-per-list", 8, "Number of todos to create per list")

var seedUsers = []struct {
	email string
	name  string
	root  bool
}{
	{"alice@example.com", "Alice", true},
	{"bob@example.com", "Bob", false},
	{"carol@example.com", "Carol", false},
}

var seedLists = []struct {
	name          string
	creator       string
	collaborators []string
}{
	{"Groceries", "alice@example.com", []string{"bob@example.com"}},
	{"Weekend Trip", "bob@example.com", []string{"alice@example.com", "carol@example.com"}},
	{"Reading", "carol@example.com", nil},
}

var seedTodoTexts = []string{
	"Milk", "Bread", "Apples", "Coffee", "Pasta", "Olive oil",
	"Book the cabin", "Pack hiking boots", "Check tire pressure",
	"Finish chapter three", "Return library books", "Eggs", "Butter",
}

var seedContacts = []struct {
	name    string
	email   string
	company string
}{
	{"Margaret Hamilton", "margaret@example.com", "MIT"},
	{"Grace Hopper", "grace@example.com", "Navy"},
	{"Dennis Ritchie", "dennis@example.com", "Bell Labs"},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/DayList/data/store")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, slog.New(slog.DiscardHandler), store.NoopEmitter{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	userIDs := make(map[string]string)
	for _, u := range seedUsers {
		existing, err := s.GetUserByEmail(ctx, u.email)
		if err == nil {
			fmt.Printf("User %s already exists, skipping\n", u.email)
			userIDs[u.email] = existing.ID
			continue
		}

		userID, err := id.Generate("user")
		if err != nil {
			log.Fatalf("Failed to generate user id: %v", err)
		}
		hash, err := auth.HashPassword("password123")
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		now := time.Now().UTC()
		user := &domain.User{
			ID:           userID,
			Email:        u.email,
			DisplayName:  u.name,
			PasswordHash: hash,
			AvatarColor:  color.ForUser(userID),
			IsRoot:       u.root,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.Users.Create(ctx, userID, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", u.email, err)
		}
		userIDs[u.email] = userID
		fmt.Printf("Created user %s (%s)\n", u.name, u.email)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, l := range seedLists {
		listID, err := id.Generate("list")
		if err != nil {
			log.Fatalf("Failed to generate list id: %v", err)
		}

		collaborators := make([]string, 0, len(l.collaborators))
		for _, email := range l.collaborators {
			collaborators = append(collaborators, userIDs[email])
		}

		list := domain.NewList(listID, l.name, userIDs[l.creator], collaborators)
		if err := s.Lists.Create(ctx, listID, list); err != nil {
			log.Fatalf("Failed to create list %s: %v", l.name, err)
		}
		fmt.Printf("Created list %q with %d collaborators\n", l.name, len(list.Collaborators))

		for i := 0; i < *todosPerList; i++ {
			todoID, err := id.Generate("todo")
			if err != nil {
				log.Fatalf("Failed to generate todo id: %v", err)
			}

			text := seedTodoTexts[rng.Intn(len(seedTodoTexts))]
			creator := list.Collaborators[rng.Intn(len(list.Collaborators))]
			todo := domain.NewTodo(todoID, listID, text, creator)
			todo.Completed = rng.Intn(3) == 0

			if err := s.Todos.Create(ctx, todoID, todo); err != nil {
				log.Fatalf("Failed to create todo: %v", err)
			}
		}
		fmt.Printf("  added %d todos\n", *todosPerList)
	}

	aliceID := userIDs["alice@example.com"]
	for _, c := range seedContacts {
		contactID, err := id.Generate("contact")
		if err != nil {
			log.Fatalf("Failed to generate contact id: %v", err)
		}

		now := time.Now().UTC()
		contact := &domain.Contact{
			ID:        contactID,
			Name:      c.name,
			Email:     c.email,
			Company:   c.company,
			CreatedBy: aliceID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Contacts.Create(ctx, contactID, contact); err != nil {
			log.Fatalf("Failed to create contact %s: %v", c.name, err)
		}
		fmt.Printf("Created contact %s\n", c.name)
	}

	fmt.Println("Done")
}
